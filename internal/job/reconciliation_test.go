package job

import (
	"context"
	"testing"

	"corebank/internal/model"

	"github.com/shopspring/decimal"
)

func TestReconciliationJobChargesMaintenanceFee(t *testing.T) {
	db, engine := newTestEngine(t)
	ctx := context.Background()
	accountSvc := engine.AccountService()
	mustRegisterCustomer(t, accountSvc, "CUST001")

	lowChecking := mustOpenAccount(t, accountSvc, "CUST001", model.AccountTypeChecking, "400.00")
	richChecking := mustOpenAccount(t, accountSvc, "CUST001", model.AccountTypeChecking, "600.00")
	lowSavings := mustOpenAccount(t, accountSvc, "CUST001", model.AccountTypeSavings, "50.00")

	reconciliation := NewReconciliationJob(engine, 2)

	corrected, charged := reconciliation.RunOnce(ctx)
	if corrected != 0 {
		t.Errorf("corrected = %d, 无漂移时不应发生修正", corrected)
	}
	if charged != 1 {
		t.Errorf("charged = %d, 只有低余额活期账户应被收费", charged)
	}

	lowBalance, _ := accountSvc.GetBalance(ctx, lowChecking.AccountNumber)
	if !lowBalance.Equal(decimal.RequireFromString("399.00")) {
		t.Errorf("balance = %s, want 399.00", lowBalance)
	}

	richBalance, _ := accountSvc.GetBalance(ctx, richChecking.AccountNumber)
	if !richBalance.Equal(decimal.RequireFromString("600.00")) {
		t.Errorf("balance = %s, 余额达标的活期账户不应被收费", richBalance)
	}

	savingsBalance, _ := accountSvc.GetBalance(ctx, lowSavings.AccountNumber)
	if !savingsBalance.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("balance = %s, 储蓄账户不应被收费", savingsBalance)
	}

	var count int64
	db.Model(&model.Transaction{}).
		Where("type = ? AND status = ?", model.TransactionTypeFeeDebit, model.TransactionStatusCompleted).
		Count(&count)
	if count != 1 {
		t.Errorf("FEE_DEBIT 流水 = %d 条, want 1", count)
	}
}

func TestReconciliationJobCorrectsAvailableBalanceDrift(t *testing.T) {
	db, engine := newTestEngine(t)
	ctx := context.Background()
	accountSvc := engine.AccountService()
	mustRegisterCustomer(t, accountSvc, "CUST001")

	account := mustOpenAccount(t, accountSvc, "CUST001", model.AccountTypeSavings, "100.00")

	// 人为制造漂移
	err := db.Model(&model.Account{}).
		Where("account_number = ?", account.AccountNumber).
		Update("available_balance", decimal.RequireFromString("80.00")).Error
	if err != nil {
		t.Fatalf("制造漂移失败: %v", err)
	}

	reconciliation := NewReconciliationJob(engine, 2)

	corrected, _ := reconciliation.RunOnce(ctx)
	if corrected != 1 {
		t.Errorf("corrected = %d, want 1", corrected)
	}

	saved, _ := accountSvc.GetAccount(ctx, account.AccountNumber)
	if !saved.AvailableBalance.Equal(saved.Balance) {
		t.Errorf("availableBalance = %s, 修正后应等于 balance %s", saved.AvailableBalance, saved.Balance)
	}
}
