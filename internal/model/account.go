package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 账户类型 / 状态常量
// ============================================================================

const (
	AccountTypeSavings     = "SAVINGS"
	AccountTypeChecking    = "CHECKING"
	AccountTypeBusiness    = "BUSINESS"
	AccountTypeJoint       = "JOINT"
	AccountTypeMoneyMarket = "MONEY_MARKET"
	AccountTypeCD          = "CD"
	AccountTypeCredit      = "CREDIT"
	AccountTypeLoan        = "LOAN"
)

const (
	AccountStatusActive          = "ACTIVE"
	AccountStatusInactive        = "INACTIVE"
	AccountStatusSuspended       = "SUSPENDED"
	AccountStatusClosed          = "CLOSED" // 终态，不可再流转
	AccountStatusFrozen          = "FROZEN"
	AccountStatusPendingApproval = "PENDING_APPROVAL"
	AccountStatusDormant         = "DORMANT"
)

// Account 账户表
// 记录账户余额，是整个账务系统的核心数据
//
// 【重要】余额不变式：
// 1. 出账不能超过 可用余额 + 透支额度，透支时余额最多降到 -overdraft_limit
// 2. available_balance <= balance + overdraft_limit
// 3. 余额只能通过 AddFunds / DeductFunds 变更，二者同步更新两个余额字段
//    和最后交易时间
// 4. 账户永不物理删除，销户是状态流转（且要求余额为零）
type Account struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountNumber       string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"account_number"` // 账号，生成后不可变
	AccountType         string          `gorm:"type:varchar(20);not null" json:"account_type"`
	Balance             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance"`           // 账面余额
	AvailableBalance    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"available_balance"` // 可用余额
	OverdraftLimit      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"overdraft_limit"`   // 透支额度
	InterestRate        decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"interest_rate"`      // 年利率（小数形式，如 0.025）
	Status              string          `gorm:"type:varchar(20);index;not null" json:"status"`
	CustomerID          string          `gorm:"type:varchar(64);index;not null" json:"customer_id"` // 所属客户
	Version             int             `gorm:"not null;default:0" json:"version"`                  // 乐观锁版本号
	LastTransactionDate *time.Time      `json:"last_transaction_date"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// IsActive 账户是否处于可交易状态
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// TotalAvailable 总可用额度 = 可用余额 + 透支额度
func (a *Account) TotalAvailable() decimal.Decimal {
	return a.AvailableBalance.Add(a.OverdraftLimit)
}

// CanWithdraw 校验出账金额是否在总可用额度内
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	if amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return amount.LessThanOrEqual(a.TotalAvailable())
}

// AddFunds 入账
// 同步增加账面余额和可用余额，并刷新最后交易时间
func (a *Account) AddFunds(amount decimal.Decimal) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return
	}
	a.Balance = a.Balance.Add(amount)
	a.AvailableBalance = a.AvailableBalance.Add(amount)
	now := time.Now()
	a.LastTransactionDate = &now
}

// DeductFunds 出账
// 调用方必须先通过 CanWithdraw 校验；校验不通过时不做任何变更
func (a *Account) DeductFunds(amount decimal.Decimal) {
	if !a.CanWithdraw(amount) {
		return
	}
	a.Balance = a.Balance.Sub(amount)
	a.AvailableBalance = a.AvailableBalance.Sub(amount)
	now := time.Now()
	a.LastTransactionDate = &now
}
