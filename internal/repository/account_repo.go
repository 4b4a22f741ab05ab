package repository

import (
	"context"
	"errors"
	"time"

	"corebank/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound  = errors.New("账户不存在")
	ErrCustomerNotFound = errors.New("客户不存在")
	ErrOptimisticLock   = errors.New("乐观锁冲突，请重试")
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(account).Error
}

func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("account_number = ?", accountNumber).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetForUpdate 行锁读取，仅在事务内使用
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, accountNumber string) (*model.Account, error) {
	var account model.Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_number = ?", accountNumber).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// UpdateWithVersion 带版本号校验的保存（CAS）
// 读取后账户被并发修改过时返回 ErrOptimisticLock，调用方需整体重做：
// 重新读取、重新校验、重新变更
//
// 成功后同步推进内存对象的版本号，便于同一事务内连续保存
func (r *AccountRepository) UpdateWithVersion(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Account{}).
		Where("account_number = ? AND version = ?", account.AccountNumber, account.Version).
		Updates(map[string]interface{}{
			"balance":               account.Balance,
			"available_balance":     account.AvailableBalance,
			"status":                account.Status,
			"last_transaction_date": account.LastTransactionDate,
			"updated_at":            time.Now(),
			"version":               gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// 区分不存在和版本冲突
		if _, err := r.GetByAccountNumber(ctx, account.AccountNumber); err != nil {
			return err
		}
		return ErrOptimisticLock
	}

	account.Version++
	return nil
}

func (r *AccountRepository) ListByCustomer(ctx context.Context, customerID string) ([]*model.Account, error) {
	var accounts []*model.Account
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *AccountRepository) ListActive(ctx context.Context) ([]*model.Account, error) {
	var accounts []*model.Account
	err := r.db.WithContext(ctx).
		Where("status = ?", model.AccountStatusActive).
		Order("account_number ASC").
		Find(&accounts).Error
	return accounts, err
}
