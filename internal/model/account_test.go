package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func newTestAccount(balance, overdraft string) *Account {
	return &Account{
		AccountNumber:    "ACC001",
		AccountType:      AccountTypeChecking,
		Balance:          decimal.RequireFromString(balance),
		AvailableBalance: decimal.RequireFromString(balance),
		OverdraftLimit:   decimal.RequireFromString(overdraft),
		Status:           AccountStatusActive,
	}
}

func TestCanWithdraw(t *testing.T) {
	account := newTestAccount("100.00", "50.00")

	cases := []struct {
		amount string
		want   bool
	}{
		{"100.00", true},
		{"150.00", true}, // 吃满透支额度
		{"150.01", false},
		{"0", false},
		{"-10.00", false},
	}

	for _, c := range cases {
		got := account.CanWithdraw(decimal.RequireFromString(c.amount))
		if got != c.want {
			t.Errorf("CanWithdraw(%s) = %v, want %v", c.amount, got, c.want)
		}
	}
}

func TestAddFunds(t *testing.T) {
	account := newTestAccount("100.00", "0")

	account.AddFunds(decimal.RequireFromString("50.50"))

	if !account.Balance.Equal(decimal.RequireFromString("150.50")) {
		t.Errorf("balance = %s, want 150.50", account.Balance)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("150.50")) {
		t.Errorf("availableBalance = %s, want 150.50", account.AvailableBalance)
	}
	if account.LastTransactionDate == nil {
		t.Error("入账后应刷新最后交易时间")
	}
}

func TestAddFundsRejectsNonPositive(t *testing.T) {
	account := newTestAccount("100.00", "0")

	account.AddFunds(decimal.Zero)
	account.AddFunds(decimal.RequireFromString("-5.00"))

	if !account.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("balance = %s, 非正金额不应变更余额", account.Balance)
	}
	if account.LastTransactionDate != nil {
		t.Error("非正金额不应刷新最后交易时间")
	}
}

func TestDeductFunds(t *testing.T) {
	account := newTestAccount("100.00", "0")

	account.DeductFunds(decimal.RequireFromString("40.00"))

	if !account.Balance.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("balance = %s, want 60.00", account.Balance)
	}
	if !account.AvailableBalance.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("availableBalance = %s, want 60.00", account.AvailableBalance)
	}
}

func TestDeductFundsOverdraft(t *testing.T) {
	account := newTestAccount("100.00", "500.00")

	account.DeductFunds(decimal.RequireFromString("300.00"))

	if !account.Balance.Equal(decimal.RequireFromString("-200.00")) {
		t.Errorf("balance = %s, 透支后应为 -200.00", account.Balance)
	}
}

func TestDeductFundsExceedingLimitIsNoop(t *testing.T) {
	account := newTestAccount("100.00", "0")

	account.DeductFunds(decimal.RequireFromString("100.01"))

	if !account.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("balance = %s, 超额出账不应变更余额", account.Balance)
	}
	if account.LastTransactionDate != nil {
		t.Error("超额出账不应刷新最后交易时间")
	}
}

func TestIsActive(t *testing.T) {
	account := newTestAccount("0", "0")

	if !account.IsActive() {
		t.Error("ACTIVE 账户应可交易")
	}

	for _, status := range []string{
		AccountStatusFrozen, AccountStatusClosed, AccountStatusSuspended,
		AccountStatusInactive, AccountStatusDormant,
	} {
		account.Status = status
		if account.IsActive() {
			t.Errorf("status=%s 不应可交易", status)
		}
	}
}
