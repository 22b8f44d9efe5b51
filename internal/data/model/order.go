package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 订单表
type Order struct {
	OrderID       string            `gorm:"primaryKey;type:varchar(36)"`
	TenantID      string            `gorm:"type:varchar(36);not null;index:idx_tenant_created,priority:1"`
	CustomerID    string            `gorm:"type:varchar(36);not null"`
	Total         decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	Status        string            `gorm:"type:varchar(16);not null;default:'pending';index:idx_status_created,priority:1"` // pending, completed, cancelled
	PaymentStatus string            `gorm:"type:varchar(16);not null;default:'pending'"`                                     // pending, approved, rejected
	PaymentID     string            `gorm:"type:varchar(64);not null;uniqueIndex"`                                           // Mercado Pago 支付ID
	PixCode       string            `gorm:"type:text"`
	CreatedAt     time.Time         `gorm:"autoCreateTime;index:idx_tenant_created,priority:2;index:idx_status_created,priority:2"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime"`
	CompletedAt   *time.Time        `gorm:"type:datetime"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;references:OrderID"`
	Allocations   []OrderAllocation `gorm:"foreignKey:OrderID;references:OrderID"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "customer_order"
}

// OrderItem 订单项表
type OrderItem struct {
	ItemID    string          `gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `gorm:"type:varchar(36);not null;index"`
	AppID     string          `gorm:"type:varchar(36);not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Position  int             `gorm:"not null;default:0"`
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_item"
}

// OrderAllocation 订单分配的充值码，一个充值码最多分配给一个订单
type OrderAllocation struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	OrderID  string `gorm:"type:varchar(36);not null;index"`
	CodeID   string `gorm:"type:varchar(36);not null;uniqueIndex"`
	Position int    `gorm:"not null"`
}

// TableName 指定表名
func (OrderAllocation) TableName() string {
	return "order_allocation"
}
