package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 交易类型常量
// ============================================================================

const (
	TransactionTypeDeposit           = "DEPOSIT"            // 存款
	TransactionTypeWithdrawal        = "WITHDRAWAL"         // 取款
	TransactionTypeTransfer          = "TRANSFER"           // 转账
	TransactionTypePayment           = "PAYMENT"            // 付款
	TransactionTypeInterestCredit    = "INTEREST_CREDIT"    // 利息入账
	TransactionTypeFeeDebit          = "FEE_DEBIT"          // 费用扣款
	TransactionTypeRefund            = "REFUND"             // 退款
	TransactionTypeReversal          = "REVERSAL"           // 冲正
	TransactionTypeLoanPayment       = "LOAN_PAYMENT"       // 还贷
	TransactionTypeLoanDisbursement  = "LOAN_DISBURSEMENT"  // 放贷
	TransactionTypeScheduledTransfer = "SCHEDULED_TRANSFER" // 预约转账
	TransactionTypeAutomatedInterest = "AUTOMATED_INTEREST" // 自动计息
	TransactionTypeOverdraftFee      = "OVERDRAFT_FEE"      // 透支费
	TransactionTypeATMWithdrawal     = "ATM_WITHDRAWAL"
	TransactionTypeOnlineTransfer    = "ONLINE_TRANSFER"
	TransactionTypeWireTransfer      = "WIRE_TRANSFER"
	TransactionTypeCheckDeposit      = "CHECK_DEPOSIT"
	TransactionTypeDirectDeposit     = "DIRECT_DEPOSIT"
)

// ============================================================================
// 交易状态机
// ============================================================================

const (
	TransactionStatusPending    = "PENDING"
	TransactionStatusScheduled  = "SCHEDULED"
	TransactionStatusProcessing = "PROCESSING"
	TransactionStatusCompleted  = "COMPLETED"
	TransactionStatusFailed     = "FAILED"
	TransactionStatusReversed   = "REVERSED"
)

// ValidStatusTransitions 合法的状态流转
// PENDING/SCHEDULED -> PROCESSING -> COMPLETED | FAILED
// COMPLETED 只能经冲正流转一次到 REVERSED，其余流转一律非法
var ValidStatusTransitions = map[string][]string{
	TransactionStatusPending:    {TransactionStatusProcessing},
	TransactionStatusScheduled:  {TransactionStatusProcessing},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusCompleted:  {TransactionStatusReversed},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidStatusTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// ============================================================================
// 交易流水实体
// ============================================================================

// Transaction 交易流水表
// 记录每一笔资金变动，是对账和审计的核心依据
//
// 【重要】流水表设计原则：
// 1. 终态流水只追加，不修改，不删除 —— 保证审计可追溯
// 2. 记录交易前后余额快照 —— 便于校验余额一致性；快照在余额变更的
//    同一时刻写入，且只写一次
// 3. 状态按状态机单向流转，非法流转属于编码错误
// 4. 转账必须携带对手账户；存取款没有对手账户
type Transaction struct {
	ID                  int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID       string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_id"` // 流水号（全局唯一，永不复用）
	Type                string              `gorm:"type:varchar(32);not null" json:"type"`
	Amount              decimal.Decimal     `gorm:"type:decimal(15,2);not null" json:"amount"` // 金额，恒为正数
	Currency            string              `gorm:"type:varchar(8);not null" json:"currency"`
	Description         string              `gorm:"type:varchar(256)" json:"description"`
	Status              string              `gorm:"type:varchar(20);index;not null" json:"status"`
	SourceAccount       string              `gorm:"type:varchar(32);index;not null" json:"source_account"` // 出账方账号
	TargetAccount       string              `gorm:"type:varchar(32);index" json:"target_account"`          // 入账方账号（转账必填）
	SourceBalanceBefore decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"source_balance_before"`
	SourceBalanceAfter  decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"source_balance_after"`
	TargetBalanceBefore decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"target_balance_before"`
	TargetBalanceAfter  decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"target_balance_after"`
	TransactionDate     time.Time           `gorm:"index;not null" json:"transaction_date"`
	ScheduledDate       *time.Time          `gorm:"index" json:"scheduled_date"` // 预约执行时间
	ProcessedDate       *time.Time          `json:"processed_date"`              // 实际处理完成时间
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// IsTerminal 是否已到终态（终态流水视为不可变历史）
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusReversed:
		return true
	}
	return false
}
