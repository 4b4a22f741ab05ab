package model

import (
	"time"
)

const (
	CustomerStatusActive              = "ACTIVE"
	CustomerStatusInactive            = "INACTIVE"
	CustomerStatusSuspended           = "SUSPENDED"
	CustomerStatusClosed              = "CLOSED"
	CustomerStatusPendingVerification = "PENDING_VERIFICATION"
)

// Customer 客户表
// 核心只在开户时校验客户资质，客户资料管理由外围系统负责
type Customer struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"customer_id"`
	Name       string    `gorm:"type:varchar(128);not null" json:"name"`
	Status     string    `gorm:"type:varchar(20);index;not null" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// IsActive 客户是否可开户
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}
