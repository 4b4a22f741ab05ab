package repository

import (
	"context"
	"errors"
	"time"

	"corebank/internal/model"

	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound      = errors.New("交易流水不存在")
	ErrTransactionStatusInvalid = errors.New("交易状态流转非法")
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.Transaction, error) {
	var trans model.Transaction
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &trans, nil
}

// UpdateStatus 按状态机流转交易状态（CAS）
// 当前状态不匹配或流转非法时返回 ErrTransactionStatusInvalid；
// 并发竞争同一条流水时只有一个调用方能成功
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, transactionID string, fromStatus, toStatus string) error {
	if !model.CanTransitionTo(fromStatus, toStatus) {
		return ErrTransactionStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{
		"status": toStatus,
	}

	if toStatus == model.TransactionStatusCompleted ||
		toStatus == model.TransactionStatusFailed ||
		toStatus == model.TransactionStatusReversed {
		now := time.Now()
		updates["processed_date"] = &now
	}

	result := tx.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("transaction_id = ? AND status = ?", transactionID, fromStatus).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrTransactionStatusInvalid
	}

	return nil
}

// SaveResult 在余额变更的同一事务内写入交易结果
// 余额快照只在这里写入，且每条流水只写一次（仅 PROCESSING 态可写）
func (r *TransactionRepository) SaveResult(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	if tx == nil {
		tx = r.db
	}

	if !model.CanTransitionTo(model.TransactionStatusProcessing, trans.Status) {
		return ErrTransactionStatusInvalid
	}

	now := time.Now()
	result := tx.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("transaction_id = ? AND status = ?", trans.TransactionID, model.TransactionStatusProcessing).
		Updates(map[string]interface{}{
			"status":                trans.Status,
			"source_balance_before": trans.SourceBalanceBefore,
			"source_balance_after":  trans.SourceBalanceAfter,
			"target_balance_before": trans.TargetBalanceBefore,
			"target_balance_after":  trans.TargetBalanceAfter,
			"processed_date":        &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrTransactionStatusInvalid
	}

	trans.ProcessedDate = &now
	return nil
}

// ListByAccount 账户流水（作为出账方或入账方），按交易时间倒序
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountNumber string, limit int) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("source_account = ? OR target_account = ?", accountNumber, accountNumber).
		Order("transaction_date DESC").
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

func (r *TransactionRepository) ListPending(ctx context.Context) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{model.TransactionStatusPending, model.TransactionStatusProcessing}).
		Order("transaction_date ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *TransactionRepository) ListScheduled(ctx context.Context) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ?", model.TransactionStatusScheduled).
		Order("scheduled_date ASC").
		Find(&transactions).Error
	return transactions, err
}

// ListScheduledDue 已到执行时间的预约交易
func (r *TransactionRepository) ListScheduledDue(ctx context.Context, now time.Time, limit int) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_date <= ?", model.TransactionStatusScheduled, now).
		Order("scheduled_date ASC").
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

// ListCompletedSince 时间窗口内已完成的交易，供报表聚合
func (r *TransactionRepository) ListCompletedSince(ctx context.Context, since time.Time) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND transaction_date >= ?", model.TransactionStatusCompleted, since).
		Order("transaction_date ASC").
		Find(&transactions).Error
	return transactions, err
}
