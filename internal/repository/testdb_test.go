package repository

import (
	"testing"

	"corebank/internal/model"

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
