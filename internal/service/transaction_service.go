package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"corebank/internal/config"
	"corebank/internal/infrastructure/lock"
	"corebank/internal/model"
	"corebank/internal/repository"
	"corebank/pkg/idgen"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrSameAccountTransfer      = errors.New("转出转入账户不能相同")
	ErrMissingTargetAccount     = errors.New("转账必须指定对手账户")
	ErrInvalidScheduleDate      = errors.New("预约时间必须晚于当前时间")
	ErrInvalidReversalState     = errors.New("只有已完成的交易才能冲正")
	ErrUnsupportedReversalType  = errors.New("该交易类型不支持冲正")
	ErrUnsupportedScheduledType = errors.New("预约交易类型不支持自动执行")
)

// 乐观锁冲突的整体重做次数上限
const maxOptimisticRetries = 3

const defaultHistoryLimit = 50

// TransactionService 交易引擎
// 每笔资金操作的执行路径：
//  1. 前置校验（金额、账户存在性、账户状态）
//  2. 按账号升序获取账户锁，同账户的资金操作串行化
//  3. 在一个数据库事务内：创建流水(PROCESSING) -> 变更余额(带版本号 CAS)
//     -> 写入结果和余额快照 -> 投递审计事件到发件箱
//  4. 版本号冲突时整体重做，上限 maxOptimisticRetries 次
//
// 业务失败（余额不足等）时原子单元整体回滚，随后独立落一条 FAILED
// 流水供审计；前置校验失败则不产生任何流水
type TransactionService struct {
	db              *gorm.DB
	locker          lock.AccountLocker
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
	accountSvc      *AccountService
	currency        string
	auditTopic      string
}

func NewTransactionService(db *gorm.DB, locker lock.AccountLocker, cfg *config.Config) *TransactionService {
	currency := "USD"
	auditTopic := "ledger.transaction.events"
	if cfg != nil {
		if cfg.Business.Currency != "" {
			currency = cfg.Business.Currency
		}
		if cfg.Kafka.Topic.TransactionEvents != "" {
			auditTopic = cfg.Kafka.Topic.TransactionEvents
		}
	}

	return &TransactionService{
		db:              db,
		locker:          locker,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
		accountSvc:      NewAccountService(db),
		currency:        currency,
		auditTopic:      auditTopic,
	}
}

// AccountService 暴露内部账户服务，供定时任务复用同一套校验逻辑
func (s *TransactionService) AccountService() *AccountService {
	return s.accountSvc
}

func (s *TransactionService) newTransaction(txnType string, amount decimal.Decimal, sourceAccount, targetAccount, description string) *model.Transaction {
	return &model.Transaction{
		TransactionID:   idgen.GenerateTransactionID(),
		Type:            txnType,
		Amount:          amount,
		Currency:        s.currency,
		Description:     description,
		Status:          model.TransactionStatusPending,
		SourceAccount:   sourceAccount,
		TargetAccount:   targetAccount,
		TransactionDate: time.Now(),
	}
}

// ============================================================================
// 转账
// ============================================================================

// Transfer 同步转账
// 成功时返回 COMPLETED 流水；业务失败时返回错误并独立落 FAILED 流水
func (s *TransactionService) Transfer(ctx context.Context, sourceAccount, targetAccount string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if sourceAccount == targetAccount {
		return nil, ErrSameAccountTransfer
	}

	release, err := s.locker.LockAccounts(ctx, sourceAccount, targetAccount)
	if err != nil {
		return nil, err
	}
	defer release()

	var txn *model.Transaction
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		txn, err = s.executeTransfer(ctx, model.TransactionTypeTransfer, sourceAccount, targetAccount, amount, description)
		if !errors.Is(err, repository.ErrOptimisticLock) {
			break
		}
		log.Printf("转账版本冲突，整体重做: source=%s, target=%s, attempt=%d", sourceAccount, targetAccount, attempt+1)
	}

	if err != nil {
		s.persistFailed(ctx, txn, err)
		return nil, err
	}
	return txn, nil
}

// executeTransfer 执行一次转账尝试
// 返回的流水对象在前置校验（账户不存在、状态非法）失败时为 nil，
// 此后任何失败都返回已构造的流水供调用方落 FAILED 记录
func (s *TransactionService) executeTransfer(ctx context.Context, txnType, sourceAccount, targetAccount string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	srcAcct, err := s.accountRepo.GetByAccountNumber(ctx, sourceAccount)
	if err != nil {
		return nil, fmt.Errorf("转出账户 %s: %w", sourceAccount, err)
	}
	tgtAcct, err := s.accountRepo.GetByAccountNumber(ctx, targetAccount)
	if err != nil {
		return nil, fmt.Errorf("转入账户 %s: %w", targetAccount, err)
	}

	if !srcAcct.IsActive() {
		return nil, fmt.Errorf("转出账户 %s: %w", sourceAccount, ErrAccountNotActive)
	}
	if !tgtAcct.IsActive() {
		return nil, fmt.Errorf("转入账户 %s: %w", targetAccount, ErrAccountNotActive)
	}

	txn := s.newTransaction(txnType, amount, sourceAccount, targetAccount, description)
	txn.SourceBalanceBefore = decimal.NewNullDecimal(srcAcct.Balance)
	txn.TargetBalanceBefore = decimal.NewNullDecimal(tgtAcct.Balance)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txn.Status = model.TransactionStatusProcessing
		if err := s.transactionRepo.Create(ctx, tx, txn); err != nil {
			return fmt.Errorf("创建流水失败: %w", err)
		}

		if err := s.accountSvc.Debit(ctx, tx, srcAcct, amount); err != nil {
			return err
		}
		if err := s.accountSvc.Credit(ctx, tx, tgtAcct, amount); err != nil {
			return err
		}

		txn.SourceBalanceAfter = decimal.NewNullDecimal(srcAcct.Balance)
		txn.TargetBalanceAfter = decimal.NewNullDecimal(tgtAcct.Balance)
		txn.Status = model.TransactionStatusCompleted
		if err := s.transactionRepo.SaveResult(ctx, tx, txn); err != nil {
			return err
		}

		return s.enqueueAuditEvent(ctx, tx, txn)
	})
	if err != nil {
		return txn, err
	}

	log.Printf("转账成功: transactionID=%s, source=%s, target=%s, amount=%s",
		txn.TransactionID, sourceAccount, targetAccount, amount)
	return txn, nil
}

// ============================================================================
// 存款 / 取款（含计息入账和费用扣款的内部通道）
// ============================================================================

// Deposit 存款
func (s *TransactionService) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	return s.creditAccount(ctx, model.TransactionTypeDeposit, accountNumber, amount, description)
}

// Withdraw 取款
func (s *TransactionService) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	return s.debitAccount(ctx, model.TransactionTypeWithdrawal, accountNumber, amount, description)
}

// PostInterest 利息入账，走存款通道但流水类型独立，便于对账区分
func (s *TransactionService) PostInterest(ctx context.Context, accountNumber string, amount decimal.Decimal, memo string) (*model.Transaction, error) {
	return s.creditAccount(ctx, model.TransactionTypeAutomatedInterest, accountNumber, amount, memo)
}

// AssessFee 费用扣款，走取款通道
func (s *TransactionService) AssessFee(ctx context.Context, accountNumber string, amount decimal.Decimal, memo string) (*model.Transaction, error) {
	return s.debitAccount(ctx, model.TransactionTypeFeeDebit, accountNumber, amount, memo)
}

func (s *TransactionService) creditAccount(ctx context.Context, txnType, accountNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	release, err := s.locker.LockAccounts(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	defer release()

	var txn *model.Transaction
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		txn, err = s.executeSingle(ctx, txnType, accountNumber, amount, description, false)
		if !errors.Is(err, repository.ErrOptimisticLock) {
			break
		}
	}

	if err != nil {
		s.persistFailed(ctx, txn, err)
		return nil, err
	}
	return txn, nil
}

func (s *TransactionService) debitAccount(ctx context.Context, txnType, accountNumber string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	release, err := s.locker.LockAccounts(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	defer release()

	var txn *model.Transaction
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		txn, err = s.executeSingle(ctx, txnType, accountNumber, amount, description, true)
		if !errors.Is(err, repository.ErrOptimisticLock) {
			break
		}
	}

	if err != nil {
		s.persistFailed(ctx, txn, err)
		return nil, err
	}
	return txn, nil
}

// executeSingle 单账户资金操作（存款/取款及其派生类型）
func (s *TransactionService) executeSingle(ctx context.Context, txnType, accountNumber string, amount decimal.Decimal, description string, isDebit bool) (*model.Transaction, error) {
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if !account.IsActive() {
		return nil, fmt.Errorf("账户 %s: %w", accountNumber, ErrAccountNotActive)
	}

	txn := s.newTransaction(txnType, amount, accountNumber, "", description)
	txn.SourceBalanceBefore = decimal.NewNullDecimal(account.Balance)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txn.Status = model.TransactionStatusProcessing
		if err := s.transactionRepo.Create(ctx, tx, txn); err != nil {
			return fmt.Errorf("创建流水失败: %w", err)
		}

		if isDebit {
			if err := s.accountSvc.Debit(ctx, tx, account, amount); err != nil {
				return err
			}
		} else {
			if err := s.accountSvc.Credit(ctx, tx, account, amount); err != nil {
				return err
			}
		}

		txn.SourceBalanceAfter = decimal.NewNullDecimal(account.Balance)
		txn.Status = model.TransactionStatusCompleted
		if err := s.transactionRepo.SaveResult(ctx, tx, txn); err != nil {
			return err
		}

		return s.enqueueAuditEvent(ctx, tx, txn)
	})
	if err != nil {
		return txn, err
	}

	return txn, nil
}

// ============================================================================
// 预约交易
// ============================================================================

// ScheduleFuture 创建预约交易
// 只做前置校验并落 SCHEDULED 流水，余额在到期执行时才变动
func (s *TransactionService) ScheduleFuture(ctx context.Context, txnType, sourceAccount, targetAccount string, amount decimal.Decimal, scheduledDate time.Time, description string) (*model.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if !scheduledDate.After(time.Now()) {
		return nil, ErrInvalidScheduleDate
	}

	switch txnType {
	case model.TransactionTypeTransfer, model.TransactionTypeDeposit, model.TransactionTypeWithdrawal:
	default:
		return nil, ErrUnsupportedScheduledType
	}

	if txnType == model.TransactionTypeTransfer {
		if targetAccount == "" {
			return nil, ErrMissingTargetAccount
		}
		if targetAccount == sourceAccount {
			return nil, ErrSameAccountTransfer
		}
	}

	srcAcct, err := s.accountRepo.GetByAccountNumber(ctx, sourceAccount)
	if err != nil {
		return nil, fmt.Errorf("出账账户 %s: %w", sourceAccount, err)
	}
	if !srcAcct.IsActive() {
		return nil, fmt.Errorf("出账账户 %s: %w", sourceAccount, ErrAccountNotActive)
	}
	if targetAccount != "" {
		if _, err := s.accountRepo.GetByAccountNumber(ctx, targetAccount); err != nil {
			return nil, fmt.Errorf("入账账户 %s: %w", targetAccount, err)
		}
	}

	txn := s.newTransaction(txnType, amount, sourceAccount, targetAccount, description)
	txn.Status = model.TransactionStatusScheduled
	txn.ScheduledDate = &scheduledDate

	if err := s.transactionRepo.Create(ctx, nil, txn); err != nil {
		return nil, fmt.Errorf("创建预约流水失败: %w", err)
	}

	log.Printf("预约交易创建成功: transactionID=%s, type=%s, scheduledDate=%s",
		txn.TransactionID, txnType, scheduledDate.Format(time.RFC3339))
	return txn, nil
}

// ExecuteScheduled 执行一笔到期的预约交易
// 领取（SCHEDULED -> PROCESSING 的 CAS）、余额变更、写结果在同一个
// 数据库事务内完成，多个执行者竞争同一笔时只有一个能领取成功。
//
// 业务失败时单独提交状态流转到 FAILED，预约项离开待执行集合，
// 不会被下一轮扫描重复拾取；版本冲突重试耗尽则保持 SCHEDULED，
// 留给下一轮扫描重试
func (s *TransactionService) ExecuteScheduled(ctx context.Context, transactionID string) error {
	txn, err := s.transactionRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return err
	}

	if txn.Status != model.TransactionStatusScheduled {
		return fmt.Errorf("流水 %s 当前状态 %s: %w", transactionID, txn.Status, repository.ErrTransactionStatusInvalid)
	}

	switch txn.Type {
	case model.TransactionTypeTransfer, model.TransactionTypeDeposit, model.TransactionTypeWithdrawal:
	default:
		// 不支持的类型直接置为失败，避免每轮扫描反复拾取
		if failErr := s.failScheduled(ctx, transactionID); failErr != nil {
			return failErr
		}
		return fmt.Errorf("流水 %s 类型 %s: %w", transactionID, txn.Type, ErrUnsupportedScheduledType)
	}

	accounts := []string{txn.SourceAccount}
	if txn.Type == model.TransactionTypeTransfer {
		accounts = append(accounts, txn.TargetAccount)
	}

	release, err := s.locker.LockAccounts(ctx, accounts...)
	if err != nil {
		return err
	}
	defer release()

	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		err = s.executeScheduledOnce(ctx, txn)
		if !errors.Is(err, repository.ErrOptimisticLock) {
			break
		}
	}

	if err == nil {
		log.Printf("预约交易执行成功: transactionID=%s, type=%s", transactionID, txn.Type)
		return nil
	}

	// 已被其他执行者领取：不是失败，保持现状
	if errors.Is(err, repository.ErrTransactionStatusInvalid) {
		return err
	}
	// 版本冲突重试耗尽：保持 SCHEDULED，下一轮扫描重试
	if errors.Is(err, repository.ErrOptimisticLock) {
		return err
	}

	// 业务失败：预约项流转到 FAILED
	if failErr := s.failScheduled(ctx, transactionID); failErr != nil {
		log.Printf("预约交易置失败态出错: transactionID=%s, err=%v", transactionID, failErr)
	}
	log.Printf("预约交易执行失败: transactionID=%s, err=%v", transactionID, err)
	return err
}

func (s *TransactionService) executeScheduledOnce(ctx context.Context, txn *model.Transaction) error {
	srcAcct, err := s.accountRepo.GetByAccountNumber(ctx, txn.SourceAccount)
	if err != nil {
		return fmt.Errorf("出账账户 %s: %w", txn.SourceAccount, err)
	}
	if !srcAcct.IsActive() {
		return fmt.Errorf("出账账户 %s: %w", txn.SourceAccount, ErrAccountNotActive)
	}

	var tgtAcct *model.Account
	if txn.Type == model.TransactionTypeTransfer {
		tgtAcct, err = s.accountRepo.GetByAccountNumber(ctx, txn.TargetAccount)
		if err != nil {
			return fmt.Errorf("入账账户 %s: %w", txn.TargetAccount, err)
		}
		if !tgtAcct.IsActive() {
			return fmt.Errorf("入账账户 %s: %w", txn.TargetAccount, ErrAccountNotActive)
		}
	}

	txn.SourceBalanceBefore = decimal.NewNullDecimal(srcAcct.Balance)
	if tgtAcct != nil {
		txn.TargetBalanceBefore = decimal.NewNullDecimal(tgtAcct.Balance)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// 领取预约项，竞争失败说明已被执行
		if err := s.transactionRepo.UpdateStatus(ctx, tx, txn.TransactionID,
			model.TransactionStatusScheduled, model.TransactionStatusProcessing); err != nil {
			return err
		}

		switch txn.Type {
		case model.TransactionTypeDeposit:
			if err := s.accountSvc.Credit(ctx, tx, srcAcct, txn.Amount); err != nil {
				return err
			}
		case model.TransactionTypeWithdrawal:
			if err := s.accountSvc.Debit(ctx, tx, srcAcct, txn.Amount); err != nil {
				return err
			}
		case model.TransactionTypeTransfer:
			if err := s.accountSvc.Debit(ctx, tx, srcAcct, txn.Amount); err != nil {
				return err
			}
			if err := s.accountSvc.Credit(ctx, tx, tgtAcct, txn.Amount); err != nil {
				return err
			}
		}

		txn.SourceBalanceAfter = decimal.NewNullDecimal(srcAcct.Balance)
		if tgtAcct != nil {
			txn.TargetBalanceAfter = decimal.NewNullDecimal(tgtAcct.Balance)
		}
		txn.Status = model.TransactionStatusCompleted
		if err := s.transactionRepo.SaveResult(ctx, tx, txn); err != nil {
			return err
		}

		return s.enqueueAuditEvent(ctx, tx, txn)
	})
}

// failScheduled 把预约项流转到 FAILED（独立提交，不在业务事务内）
func (s *TransactionService) failScheduled(ctx context.Context, transactionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.transactionRepo.UpdateStatus(ctx, tx, transactionID,
			model.TransactionStatusScheduled, model.TransactionStatusProcessing); err != nil {
			return err
		}
		return s.transactionRepo.UpdateStatus(ctx, tx, transactionID,
			model.TransactionStatusProcessing, model.TransactionStatusFailed)
	})
}

// ============================================================================
// 冲正
// ============================================================================

// Reverse 冲正一笔已完成的交易
// 生成一笔反向的 REVERSAL 流水，并在同一事务内把原流水
// COMPLETED -> REVERSED，保证一笔交易只能被冲正一次
func (s *TransactionService) Reverse(ctx context.Context, transactionID, reason string) (*model.Transaction, error) {
	orig, err := s.transactionRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if orig.Status != model.TransactionStatusCompleted {
		return nil, fmt.Errorf("流水 %s 当前状态 %s: %w", transactionID, orig.Status, ErrInvalidReversalState)
	}

	description := "冲正 " + orig.TransactionID
	if reason != "" {
		description += ": " + reason
	}

	// 反向操作映射：转账交换出入账方；存款按取款冲回；取款按存款冲回
	var accounts []string
	switch orig.Type {
	case model.TransactionTypeTransfer:
		accounts = []string{orig.SourceAccount, orig.TargetAccount}
	case model.TransactionTypeDeposit, model.TransactionTypeWithdrawal:
		accounts = []string{orig.SourceAccount}
	default:
		return nil, fmt.Errorf("流水 %s 类型 %s: %w", transactionID, orig.Type, ErrUnsupportedReversalType)
	}

	release, err := s.locker.LockAccounts(ctx, accounts...)
	if err != nil {
		return nil, err
	}
	defer release()

	var reversal *model.Transaction
	for attempt := 0; attempt < maxOptimisticRetries; attempt++ {
		reversal, err = s.executeReversal(ctx, orig, description)
		if !errors.Is(err, repository.ErrOptimisticLock) {
			break
		}
	}

	if err != nil {
		// 并发冲正竞争失败不落 FAILED，原流水已被对方冲正
		if !errors.Is(err, repository.ErrTransactionStatusInvalid) {
			s.persistFailed(ctx, reversal, err)
		}
		return nil, err
	}

	log.Printf("冲正成功: originalID=%s, reversalID=%s", orig.TransactionID, reversal.TransactionID)
	return reversal, nil
}

func (s *TransactionService) executeReversal(ctx context.Context, orig *model.Transaction, description string) (*model.Transaction, error) {
	switch orig.Type {
	case model.TransactionTypeTransfer:
		// 反向转账：原入账方出账，原出账方入账
		srcAcct, err := s.accountRepo.GetByAccountNumber(ctx, orig.TargetAccount)
		if err != nil {
			return nil, fmt.Errorf("冲正出账账户 %s: %w", orig.TargetAccount, err)
		}
		tgtAcct, err := s.accountRepo.GetByAccountNumber(ctx, orig.SourceAccount)
		if err != nil {
			return nil, fmt.Errorf("冲正入账账户 %s: %w", orig.SourceAccount, err)
		}
		if !srcAcct.IsActive() {
			return nil, fmt.Errorf("冲正出账账户 %s: %w", srcAcct.AccountNumber, ErrAccountNotActive)
		}
		if !tgtAcct.IsActive() {
			return nil, fmt.Errorf("冲正入账账户 %s: %w", tgtAcct.AccountNumber, ErrAccountNotActive)
		}

		reversal := s.newTransaction(model.TransactionTypeReversal, orig.Amount, srcAcct.AccountNumber, tgtAcct.AccountNumber, description)
		reversal.SourceBalanceBefore = decimal.NewNullDecimal(srcAcct.Balance)
		reversal.TargetBalanceBefore = decimal.NewNullDecimal(tgtAcct.Balance)

		err = s.db.Transaction(func(tx *gorm.DB) error {
			reversal.Status = model.TransactionStatusProcessing
			if err := s.transactionRepo.Create(ctx, tx, reversal); err != nil {
				return fmt.Errorf("创建冲正流水失败: %w", err)
			}
			if err := s.accountSvc.Debit(ctx, tx, srcAcct, orig.Amount); err != nil {
				return err
			}
			if err := s.accountSvc.Credit(ctx, tx, tgtAcct, orig.Amount); err != nil {
				return err
			}
			reversal.SourceBalanceAfter = decimal.NewNullDecimal(srcAcct.Balance)
			reversal.TargetBalanceAfter = decimal.NewNullDecimal(tgtAcct.Balance)
			reversal.Status = model.TransactionStatusCompleted
			if err := s.transactionRepo.SaveResult(ctx, tx, reversal); err != nil {
				return err
			}
			if err := s.transactionRepo.UpdateStatus(ctx, tx, orig.TransactionID,
				model.TransactionStatusCompleted, model.TransactionStatusReversed); err != nil {
				return err
			}
			return s.enqueueAuditEvent(ctx, tx, reversal)
		})
		if err != nil {
			return reversal, err
		}
		return reversal, nil

	case model.TransactionTypeDeposit, model.TransactionTypeWithdrawal:
		account, err := s.accountRepo.GetByAccountNumber(ctx, orig.SourceAccount)
		if err != nil {
			return nil, fmt.Errorf("冲正账户 %s: %w", orig.SourceAccount, err)
		}
		if !account.IsActive() {
			return nil, fmt.Errorf("冲正账户 %s: %w", account.AccountNumber, ErrAccountNotActive)
		}

		// 存款冲正是出账，取款冲正是入账
		isDebit := orig.Type == model.TransactionTypeDeposit

		reversal := s.newTransaction(model.TransactionTypeReversal, orig.Amount, account.AccountNumber, "", description)
		reversal.SourceBalanceBefore = decimal.NewNullDecimal(account.Balance)

		err = s.db.Transaction(func(tx *gorm.DB) error {
			reversal.Status = model.TransactionStatusProcessing
			if err := s.transactionRepo.Create(ctx, tx, reversal); err != nil {
				return fmt.Errorf("创建冲正流水失败: %w", err)
			}
			if isDebit {
				if err := s.accountSvc.Debit(ctx, tx, account, orig.Amount); err != nil {
					return err
				}
			} else {
				if err := s.accountSvc.Credit(ctx, tx, account, orig.Amount); err != nil {
					return err
				}
			}
			reversal.SourceBalanceAfter = decimal.NewNullDecimal(account.Balance)
			reversal.Status = model.TransactionStatusCompleted
			if err := s.transactionRepo.SaveResult(ctx, tx, reversal); err != nil {
				return err
			}
			if err := s.transactionRepo.UpdateStatus(ctx, tx, orig.TransactionID,
				model.TransactionStatusCompleted, model.TransactionStatusReversed); err != nil {
				return err
			}
			return s.enqueueAuditEvent(ctx, tx, reversal)
		})
		if err != nil {
			return reversal, err
		}
		return reversal, nil
	}

	return nil, fmt.Errorf("流水 %s 类型 %s: %w", orig.TransactionID, orig.Type, ErrUnsupportedReversalType)
}

// ============================================================================
// 失败流水与审计事件
// ============================================================================

// persistFailed 业务失败后独立落一条 FAILED 流水
// 原子单元回滚时 PROCESSING 流水随之消失，审计要求失败也必须留痕，
// 所以在回滚之后用新事务重写一条终态为 FAILED 的流水
func (s *TransactionService) persistFailed(ctx context.Context, txn *model.Transaction, cause error) {
	if txn == nil {
		// 前置校验失败，没有流水需要落盘
		return
	}

	now := time.Now()
	txn.ID = 0
	txn.Status = model.TransactionStatusFailed
	txn.ProcessedDate = &now
	txn.SourceBalanceAfter = decimal.NullDecimal{}
	txn.TargetBalanceAfter = decimal.NullDecimal{}
	if cause != nil {
		txn.Description = fmt.Sprintf("%s [失败原因: %v]", txn.Description, cause)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.transactionRepo.Create(ctx, tx, txn); err != nil {
			return err
		}
		return s.enqueueAuditEvent(ctx, tx, txn)
	})
	if err != nil {
		log.Printf("落 FAILED 流水失败: transactionID=%s, err=%v", txn.TransactionID, err)
	}
}

// auditEvent 审计事件载荷
type auditEvent struct {
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	SourceAccount string `json:"source_account"`
	TargetAccount string `json:"target_account,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// enqueueAuditEvent 把审计事件写入发件箱，与账务变更同事务提交
func (s *TransactionService) enqueueAuditEvent(ctx context.Context, tx *gorm.DB, txn *model.Transaction) error {
	event := auditEvent{
		TransactionID: txn.TransactionID,
		Type:          txn.Type,
		Status:        txn.Status,
		Amount:        txn.Amount.StringFixed(2),
		Currency:      txn.Currency,
		SourceAccount: txn.SourceAccount,
		TargetAccount: txn.TargetAccount,
		OccurredAt:    time.Now().Format(time.RFC3339),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化审计事件失败: %w", err)
	}

	return s.outboxRepo.Create(ctx, tx, &model.OutboxMessage{
		MessageKey: txn.TransactionID,
		Topic:      s.auditTopic,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	})
}

// ============================================================================
// 查询
// ============================================================================

func (s *TransactionService) GetByID(ctx context.Context, transactionID string) (*model.Transaction, error) {
	return s.transactionRepo.GetByTransactionID(ctx, transactionID)
}

// HistoryForAccount 账户流水，按交易时间倒序
func (s *TransactionService) HistoryForAccount(ctx context.Context, accountNumber string, limit int) ([]*model.Transaction, error) {
	if _, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.transactionRepo.ListByAccount(ctx, accountNumber, limit)
}

func (s *TransactionService) ListPending(ctx context.Context) ([]*model.Transaction, error) {
	return s.transactionRepo.ListPending(ctx)
}

func (s *TransactionService) ListScheduled(ctx context.Context) ([]*model.Transaction, error) {
	return s.transactionRepo.ListScheduled(ctx)
}

// ListScheduledDue 到期待执行的预约交易
func (s *TransactionService) ListScheduledDue(ctx context.Context, now time.Time, limit int) ([]*model.Transaction, error) {
	return s.transactionRepo.ListScheduledDue(ctx, now, limit)
}
