package model

import "time"

// Customer 客户表
type Customer struct {
	CustomerID string    `gorm:"primaryKey;type:varchar(36)"`
	TenantID   string    `gorm:"type:varchar(36);not null;index"`
	Name       string    `gorm:"type:varchar(128);not null"`
	Phone      string    `gorm:"type:varchar(32);not null"`
	Email      string    `gorm:"type:varchar(255);not null;default:''"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customer"
}
