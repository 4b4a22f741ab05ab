package job

import (
	"context"
	"testing"
	"time"

	"corebank/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func makeDue(t *testing.T, db *gorm.DB, transactionID string) {
	t.Helper()
	err := db.Model(&model.Transaction{}).
		Where("transaction_id = ?", transactionID).
		Update("scheduled_date", time.Now().Add(-time.Minute)).Error
	if err != nil {
		t.Fatalf("调整预约时间失败: %v", err)
	}
}

func TestScheduledSweepJobRunOnce(t *testing.T) {
	db, engine := newTestEngine(t)
	ctx := context.Background()
	accountSvc := engine.AccountService()
	mustRegisterCustomer(t, accountSvc, "CUST001")
	source := mustOpenAccount(t, accountSvc, "CUST001", model.AccountTypeSavings, "500.00")
	target := mustOpenAccount(t, accountSvc, "CUST001", model.AccountTypeSavings, "0")

	first, err := engine.ScheduleFuture(ctx, model.TransactionTypeTransfer,
		source.AccountNumber, target.AccountNumber, decimal.RequireFromString("100.00"), time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	second, err := engine.ScheduleFuture(ctx, model.TransactionTypeDeposit,
		target.AccountNumber, "", decimal.RequireFromString("50.00"), time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	makeDue(t, db, first.TransactionID)
	makeDue(t, db, second.TransactionID)

	sweep := NewScheduledSweepJob(engine, time.Minute, 100)

	processed, failed, skipped := sweep.RunOnce(ctx)
	if processed != 2 || failed != 0 || skipped != 0 {
		t.Errorf("RunOnce = (%d, %d, %d), want (2, 0, 0)", processed, failed, skipped)
	}

	srcBalance, _ := accountSvc.GetBalance(ctx, source.AccountNumber)
	tgtBalance, _ := accountSvc.GetBalance(ctx, target.AccountNumber)
	if !srcBalance.Equal(decimal.RequireFromString("400.00")) {
		t.Errorf("sourceBalance = %s, want 400.00", srcBalance)
	}
	if !tgtBalance.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("targetBalance = %s, want 150.00", tgtBalance)
	}

	// 扫描是幂等的：第二轮不应再拾取任何预约项
	processed, failed, skipped = sweep.RunOnce(ctx)
	if processed != 0 || failed != 0 || skipped != 0 {
		t.Errorf("第二轮 RunOnce = (%d, %d, %d), want (0, 0, 0)", processed, failed, skipped)
	}
}

func TestScheduledSweepJobFailureIsolation(t *testing.T) {
	db, engine := newTestEngine(t)
	ctx := context.Background()
	accountSvc := engine.AccountService()
	mustRegisterCustomer(t, accountSvc, "CUST001")
	rich := mustOpenAccount(t, accountSvc, "CUST001", model.AccountTypeSavings, "500.00")
	poor := mustOpenAccount(t, accountSvc, "CUST001", model.AccountTypeSavings, "10.00")

	ok, err := engine.ScheduleFuture(ctx, model.TransactionTypeWithdrawal,
		rich.AccountNumber, "", decimal.RequireFromString("100.00"), time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	bad, err := engine.ScheduleFuture(ctx, model.TransactionTypeWithdrawal,
		poor.AccountNumber, "", decimal.RequireFromString("100.00"), time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	makeDue(t, db, ok.TransactionID)
	makeDue(t, db, bad.TransactionID)

	sweep := NewScheduledSweepJob(engine, time.Minute, 100)

	// 单笔失败不影响同批其余的执行
	processed, failed, _ := sweep.RunOnce(ctx)
	if processed != 1 || failed != 1 {
		t.Errorf("RunOnce = (%d, %d), want processed=1, failed=1", processed, failed)
	}

	okTxn, _ := engine.GetByID(ctx, ok.TransactionID)
	if okTxn.Status != model.TransactionStatusCompleted {
		t.Errorf("成功项 status = %s, want COMPLETED", okTxn.Status)
	}
	badTxn, _ := engine.GetByID(ctx, bad.TransactionID)
	if badTxn.Status != model.TransactionStatusFailed {
		t.Errorf("失败项 status = %s, want FAILED", badTxn.Status)
	}

	// 失败项不会被下一轮重复拾取
	processed, failed, skipped := sweep.RunOnce(ctx)
	if processed != 0 || failed != 0 || skipped != 0 {
		t.Errorf("第二轮 RunOnce = (%d, %d, %d), want (0, 0, 0)", processed, failed, skipped)
	}
}
