package service

import (
	"context"
	"errors"
	"testing"

	"corebank/internal/model"
	"corebank/internal/repository"

	"github.com/shopspring/decimal"
)

func TestOpenAccountDefaultsByType(t *testing.T) {
	svc := NewAccountService(newTestDB(t))
	mustRegisterCustomer(t, svc, "CUST001")

	cases := []struct {
		accountType   string
		wantRate      string
		wantOverdraft string
	}{
		{model.AccountTypeSavings, "0.025", "0"},
		{model.AccountTypeChecking, "0.005", "500"},
		{model.AccountTypeBusiness, "0.015", "1000"},
		{model.AccountTypeMoneyMarket, "0", "0"},
	}

	for _, c := range cases {
		account := mustOpenAccount(t, svc, "CUST001", c.accountType, "0")
		if !account.InterestRate.Equal(decimal.RequireFromString(c.wantRate)) {
			t.Errorf("%s interestRate = %s, want %s", c.accountType, account.InterestRate, c.wantRate)
		}
		if !account.OverdraftLimit.Equal(decimal.RequireFromString(c.wantOverdraft)) {
			t.Errorf("%s overdraftLimit = %s, want %s", c.accountType, account.OverdraftLimit, c.wantOverdraft)
		}
		if account.Status != model.AccountStatusActive {
			t.Errorf("%s status = %s, 新开账户应为 ACTIVE", c.accountType, account.Status)
		}
	}
}

func TestOpenAccountWithInitialDeposit(t *testing.T) {
	svc := NewAccountService(newTestDB(t))
	mustRegisterCustomer(t, svc, "CUST001")

	account := mustOpenAccount(t, svc, "CUST001", model.AccountTypeSavings, "1000.00")

	if !account.Balance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("balance = %s, want 1000.00", account.Balance)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("availableBalance = %s, want 1000.00", account.AvailableBalance)
	}
}

func TestOpenAccountRequiresActiveCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()

	if _, err := svc.OpenAccount(ctx, "CUST404", model.AccountTypeSavings, decimal.Zero); !errors.Is(err, repository.ErrCustomerNotFound) {
		t.Errorf("err = %v, want ErrCustomerNotFound", err)
	}

	suspended := &model.Customer{CustomerID: "CUST002", Name: "停用客户", Status: model.CustomerStatusSuspended}
	if err := db.Create(suspended).Error; err != nil {
		t.Fatalf("创建客户失败: %v", err)
	}
	if _, err := svc.OpenAccount(ctx, "CUST002", model.AccountTypeSavings, decimal.Zero); !errors.Is(err, ErrCustomerNotActive) {
		t.Errorf("err = %v, want ErrCustomerNotActive", err)
	}
}

func TestCloseAccount(t *testing.T) {
	svc := NewAccountService(newTestDB(t))
	ctx := context.Background()
	mustRegisterCustomer(t, svc, "CUST001")

	funded := mustOpenAccount(t, svc, "CUST001", model.AccountTypeSavings, "10.00")
	if err := svc.Close(ctx, funded.AccountNumber); !errors.Is(err, ErrNonZeroBalance) {
		t.Errorf("err = %v, 余额不为零的账户不应允许销户", err)
	}

	empty := mustOpenAccount(t, svc, "CUST001", model.AccountTypeSavings, "0")
	if err := svc.Close(ctx, empty.AccountNumber); err != nil {
		t.Fatalf("零余额账户销户应成功: %v", err)
	}

	closed, _ := svc.GetAccount(ctx, empty.AccountNumber)
	if closed.Status != model.AccountStatusClosed {
		t.Errorf("status = %s, want CLOSED", closed.Status)
	}

	// CLOSED 是终态
	if err := svc.Freeze(ctx, empty.AccountNumber); !errors.Is(err, ErrAccountClosed) {
		t.Errorf("err = %v, 已销户账户不应允许冻结", err)
	}
	if err := svc.Close(ctx, empty.AccountNumber); !errors.Is(err, ErrAccountClosed) {
		t.Errorf("err = %v, 重复销户应被拒绝", err)
	}
}

func TestFreezeAccount(t *testing.T) {
	svc := NewAccountService(newTestDB(t))
	ctx := context.Background()
	mustRegisterCustomer(t, svc, "CUST001")

	account := mustOpenAccount(t, svc, "CUST001", model.AccountTypeChecking, "100.00")
	if err := svc.Freeze(ctx, account.AccountNumber); err != nil {
		t.Fatalf("冻结失败: %v", err)
	}

	frozen, _ := svc.GetAccount(ctx, account.AccountNumber)
	if frozen.Status != model.AccountStatusFrozen {
		t.Errorf("status = %s, want FROZEN", frozen.Status)
	}
	if frozen.IsActive() {
		t.Error("冻结账户不应可交易")
	}
}

func TestEligibleForInterest(t *testing.T) {
	svc := NewAccountService(newTestDB(t))

	base := func() *model.Account {
		return &model.Account{
			AccountType:  model.AccountTypeSavings,
			Status:       model.AccountStatusActive,
			Balance:      decimal.RequireFromString("100.00"),
			InterestRate: decimal.RequireFromString("0.025"),
		}
	}

	if !svc.EligibleForInterest(base()) {
		t.Error("余额恰好在门槛上的活跃储蓄账户应计息")
	}

	lowBalance := base()
	lowBalance.Balance = decimal.RequireFromString("99.99")
	if svc.EligibleForInterest(lowBalance) {
		t.Error("余额低于门槛不应计息")
	}

	checking := base()
	checking.AccountType = model.AccountTypeChecking
	if svc.EligibleForInterest(checking) {
		t.Error("非储蓄账户不应计息")
	}

	frozen := base()
	frozen.Status = model.AccountStatusFrozen
	if svc.EligibleForInterest(frozen) {
		t.Error("冻结账户不应计息")
	}

	zeroRate := base()
	zeroRate.InterestRate = decimal.Zero
	if svc.EligibleForInterest(zeroRate) {
		t.Error("零利率账户不应计息")
	}
}

func TestDailyInterest(t *testing.T) {
	svc := NewAccountService(newTestDB(t))

	// 1000.00 × (0.025/365 → 0.00006849) = 0.06849 → 0.07
	account := &model.Account{
		Balance:      decimal.RequireFromString("1000.00"),
		InterestRate: decimal.RequireFromString("0.025"),
	}

	interest := svc.DailyInterest(account)
	if !interest.Equal(decimal.RequireFromString("0.07")) {
		t.Errorf("dailyInterest = %s, want 0.07", interest)
	}
}

func TestRecalculateAvailable(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db)
	ctx := context.Background()
	mustRegisterCustomer(t, svc, "CUST001")

	account := mustOpenAccount(t, svc, "CUST001", model.AccountTypeSavings, "100.00")

	changed, err := svc.RecalculateAvailable(ctx, account)
	if err != nil {
		t.Fatalf("重算可用余额失败: %v", err)
	}
	if changed {
		t.Error("无漂移时不应发生修正")
	}

	// 人为制造漂移
	account.AvailableBalance = decimal.RequireFromString("80.00")
	changed, err = svc.RecalculateAvailable(ctx, account)
	if err != nil {
		t.Fatalf("重算可用余额失败: %v", err)
	}
	if !changed {
		t.Error("有漂移时应发生修正")
	}

	saved, _ := svc.GetAccount(ctx, account.AccountNumber)
	if !saved.AvailableBalance.Equal(saved.Balance) {
		t.Errorf("availableBalance = %s, 修正后应等于 balance %s", saved.AvailableBalance, saved.Balance)
	}
}
