package job

import (
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	loc := time.UTC

	// 当天时刻未到：当天执行
	now := time.Date(2026, 8, 30, 0, 30, 0, 0, loc)
	next := nextRun(now, 1)
	want := time.Date(2026, 8, 30, 1, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("nextRun = %s, want %s", next, want)
	}

	// 当天时刻已过：顺延到次日
	now = time.Date(2026, 8, 30, 1, 30, 0, 0, loc)
	next = nextRun(now, 1)
	want = time.Date(2026, 8, 31, 1, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("nextRun = %s, want %s", next, want)
	}

	// 恰好在整点：顺延到次日，避免同一天重复执行
	now = time.Date(2026, 8, 30, 1, 0, 0, 0, loc)
	next = nextRun(now, 1)
	want = time.Date(2026, 8, 31, 1, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("nextRun = %s, want %s", next, want)
	}
}
