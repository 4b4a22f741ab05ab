package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestNextIDUnique(t *testing.T) {
	const n = 10000

	var mu sync.Mutex
	seen := make(map[int64]bool, n)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n/10; j++ {
				id := NextID()
				mu.Lock()
				if seen[id] {
					t.Errorf("重复 ID: %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestGenerateAccountNumber(t *testing.T) {
	accountNumber := GenerateAccountNumber()

	if !strings.HasPrefix(accountNumber, "ACC") {
		t.Errorf("accountNumber = %s, 应以 ACC 开头", accountNumber)
	}
	if len(accountNumber) != len("ACC")+14+8 {
		t.Errorf("accountNumber = %s, 长度应为前缀+时间戳14位+序列8位", accountNumber)
	}
}

func TestGenerateTransactionID(t *testing.T) {
	transactionID := GenerateTransactionID()

	if !strings.HasPrefix(transactionID, "TXN") {
		t.Errorf("transactionID = %s, 应以 TXN 开头", transactionID)
	}

	if transactionID == GenerateTransactionID() {
		t.Error("连续生成的流水号不应相同")
	}
}
