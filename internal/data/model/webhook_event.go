package model

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent 支付回调审计表
type WebhookEvent struct {
	EventID    string         `gorm:"primaryKey;type:varchar(36)"`
	PaymentID  string         `gorm:"type:varchar(64);not null;index"`
	Status     string         `gorm:"type:varchar(32);not null;default:''"`
	Source     string         `gorm:"type:varchar(16);not null;default:''"` // webhook, reconcile
	Outcome    string         `gorm:"type:varchar(16);not null"`
	Error      string         `gorm:"type:varchar(512);not null;default:''"`
	TenantID   string         `gorm:"type:varchar(36);not null;default:''"`
	OrderID    string         `gorm:"type:varchar(36);not null;default:''"`
	Payload    datatypes.JSON `gorm:"type:json"`
	ReceivedAt time.Time      `gorm:"not null;index"`
}

// TableName 指定表名
func (WebhookEvent) TableName() string {
	return "webhook_event"
}
