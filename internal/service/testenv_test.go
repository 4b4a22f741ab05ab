package service

import (
	"context"
	"testing"

	"corebank/internal/config"
	"corebank/internal/infrastructure/lock"
	"corebank/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层 DB 失败: %v", err)
	}
	// 内存库每个连接是独立库，固定单连接保证所有操作看到同一份数据
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Customer{},
		&model.Account{},
		&model.Transaction{},
		&model.OutboxMessage{},
	); err != nil {
		t.Fatalf("迁移表结构失败: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Business.Currency = "USD"
	cfg.Business.SweepBatchSize = 100
	return cfg
}

// newTestEngine 进程内账户锁 + 内存库的完整交易引擎
func newTestEngine(t *testing.T) (*gorm.DB, *TransactionService) {
	t.Helper()
	db := newTestDB(t)
	return db, NewTransactionService(db, lock.NewKeyedMutex(), testConfig())
}

func mustRegisterCustomer(t *testing.T, svc *AccountService, customerID string) {
	t.Helper()
	if _, err := svc.RegisterCustomer(context.Background(), customerID, "测试客户"); err != nil {
		t.Fatalf("登记客户失败: %v", err)
	}
}

func mustOpenAccount(t *testing.T, svc *AccountService, customerID, accountType, initialDeposit string) *model.Account {
	t.Helper()
	account, err := svc.OpenAccount(context.Background(), customerID, accountType,
		decimal.RequireFromString(initialDeposit))
	if err != nil {
		t.Fatalf("开户失败: %v", err)
	}
	return account
}
