package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"corebank/internal/model"
	"corebank/internal/repository"
	"corebank/pkg/idgen"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount     = errors.New("金额必须大于0")
	ErrInsufficientFunds = errors.New("可用余额不足")
	ErrAccountNotActive  = errors.New("账户不可交易")
	ErrCustomerNotActive = errors.New("客户状态不可开户")
	ErrNonZeroBalance    = errors.New("余额不为零的账户不能销户")
	ErrAccountClosed     = errors.New("账户已销户")
)

// 计息门槛：余额低于 100.00 的储蓄账户不计息
var minBalanceForInterest = decimal.NewFromInt(100)

var daysPerYear = decimal.NewFromInt(365)

// AccountService 账户管理
// 负责账户生命周期和余额变更原语；余额变更必须在交易引擎的
// 原子单元内通过 Credit / Debit 进行
type AccountService struct {
	db           *gorm.DB
	accountRepo  *repository.AccountRepository
	customerRepo *repository.CustomerRepository
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		db:           db,
		accountRepo:  repository.NewAccountRepository(db),
		customerRepo: repository.NewCustomerRepository(db),
	}
}

// RegisterCustomer 登记客户，新客户默认 ACTIVE
func (s *AccountService) RegisterCustomer(ctx context.Context, customerID, name string) (*model.Customer, error) {
	customer := &model.Customer{
		CustomerID: customerID,
		Name:       name,
		Status:     model.CustomerStatusActive,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("登记客户失败: %w", err)
	}
	return customer, nil
}

// OpenAccount 开户
// 要求客户存在且状态为 ACTIVE；按账户类型设置默认利率和透支额度
func (s *AccountService) OpenAccount(ctx context.Context, customerID, accountType string, initialDeposit decimal.Decimal) (*model.Account, error) {
	customer, err := s.customerRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if !customer.IsActive() {
		return nil, fmt.Errorf("客户 %s: %w", customerID, ErrCustomerNotActive)
	}

	account := &model.Account{
		AccountNumber: idgen.GenerateAccountNumber(),
		AccountType:   accountType,
		CustomerID:    customerID,
		Status:        model.AccountStatusActive,
		Balance:       decimal.Zero,
	}

	if initialDeposit.GreaterThan(decimal.Zero) {
		account.Balance = initialDeposit
		account.AvailableBalance = initialDeposit
	}

	configureAccountDefaults(account)

	if err := s.accountRepo.Create(ctx, nil, account); err != nil {
		return nil, fmt.Errorf("创建账户失败: %w", err)
	}

	log.Printf("开户成功: accountNumber=%s, type=%s, customerID=%s, initialDeposit=%s",
		account.AccountNumber, accountType, customerID, initialDeposit)

	return account, nil
}

// configureAccountDefaults 按账户类型设置默认利率和透支额度
func configureAccountDefaults(account *model.Account) {
	switch account.AccountType {
	case model.AccountTypeSavings:
		account.InterestRate = decimal.RequireFromString("0.025") // 年利率 2.5%
		account.OverdraftLimit = decimal.Zero
	case model.AccountTypeChecking:
		account.InterestRate = decimal.RequireFromString("0.005") // 年利率 0.5%
		account.OverdraftLimit = decimal.NewFromInt(500)
	case model.AccountTypeBusiness:
		account.InterestRate = decimal.RequireFromString("0.015") // 年利率 1.5%
		account.OverdraftLimit = decimal.NewFromInt(1000)
	default:
		account.InterestRate = decimal.Zero
		account.OverdraftLimit = decimal.Zero
	}
}

func (s *AccountService) GetAccount(ctx context.Context, accountNumber string) (*model.Account, error) {
	return s.accountRepo.GetByAccountNumber(ctx, accountNumber)
}

func (s *AccountService) GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

func (s *AccountService) ListCustomerAccounts(ctx context.Context, customerID string) ([]*model.Account, error) {
	if _, err := s.customerRepo.GetByCustomerID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.accountRepo.ListByCustomer(ctx, customerID)
}

func (s *AccountService) ListActiveAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.accountRepo.ListActive(ctx)
}

// Credit 入账原语
// 只变更内存对象并做带版本号的保存，必须在调用方的数据库事务内执行
func (s *AccountService) Credit(ctx context.Context, tx *gorm.DB, account *model.Account, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	account.AddFunds(amount)
	return s.accountRepo.UpdateWithVersion(ctx, tx, account)
}

// Debit 出账原语
// 校验账户状态和总可用额度（可用余额 + 透支额度）
func (s *AccountService) Debit(ctx context.Context, tx *gorm.DB, account *model.Account, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !account.IsActive() {
		return fmt.Errorf("账户 %s: %w", account.AccountNumber, ErrAccountNotActive)
	}

	if !account.CanWithdraw(amount) {
		return fmt.Errorf("账户 %s 总可用额度 %s，请求 %s: %w",
			account.AccountNumber, account.TotalAvailable(), amount, ErrInsufficientFunds)
	}

	account.DeductFunds(amount)
	return s.accountRepo.UpdateWithVersion(ctx, tx, account)
}

// Freeze 冻结账户
func (s *AccountService) Freeze(ctx context.Context, accountNumber string) error {
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return err
	}

	// CLOSED 是终态
	if account.Status == model.AccountStatusClosed {
		return fmt.Errorf("账户 %s: %w", accountNumber, ErrAccountClosed)
	}

	account.Status = model.AccountStatusFrozen
	if err := s.accountRepo.UpdateWithVersion(ctx, nil, account); err != nil {
		return err
	}

	log.Printf("账户已冻结: accountNumber=%s", accountNumber)
	return nil
}

// Close 销户
// 仅允许余额恰好为零的账户销户；销户后状态不可再流转
func (s *AccountService) Close(ctx context.Context, accountNumber string) error {
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return err
	}

	if account.Status == model.AccountStatusClosed {
		return fmt.Errorf("账户 %s: %w", accountNumber, ErrAccountClosed)
	}

	if !account.Balance.IsZero() {
		return fmt.Errorf("账户 %s 余额 %s: %w", accountNumber, account.Balance, ErrNonZeroBalance)
	}

	account.Status = model.AccountStatusClosed
	if err := s.accountRepo.UpdateWithVersion(ctx, nil, account); err != nil {
		return err
	}

	log.Printf("账户已销户: accountNumber=%s", accountNumber)
	return nil
}

// EligibleForInterest 是否符合计息条件
// 储蓄账户、状态正常、余额不低于门槛、利率为正
func (s *AccountService) EligibleForInterest(account *model.Account) bool {
	return account.AccountType == model.AccountTypeSavings &&
		account.IsActive() &&
		account.Balance.GreaterThanOrEqual(minBalanceForInterest) &&
		account.InterestRate.GreaterThan(decimal.Zero)
}

// DailyInterest 计算单日利息
// 日利率 = 年利率 / 365（8位小数四舍五入），利息金额保留2位小数四舍五入
func (s *AccountService) DailyInterest(account *model.Account) decimal.Decimal {
	dailyRate := account.InterestRate.DivRound(daysPerYear, 8)
	return account.Balance.Mul(dailyRate).Round(2)
}

// RecalculateAvailable 重算可用余额
// 本核心没有预授权冻结模型，可用余额直接以账面余额为准，
// 仅修正两个字段之间的漂移，返回是否发生了修正
func (s *AccountService) RecalculateAvailable(ctx context.Context, account *model.Account) (bool, error) {
	if account.AvailableBalance.Equal(account.Balance) {
		return false, nil
	}

	account.AvailableBalance = account.Balance
	if err := s.accountRepo.UpdateWithVersion(ctx, nil, account); err != nil {
		return false, err
	}
	return true, nil
}
