package model

import "time"

// Tenant 租户表，支付与消息凭证内联存储
type Tenant struct {
	TenantID          string    `gorm:"primaryKey;type:varchar(36)"`
	Name              string    `gorm:"type:varchar(128);not null"`
	PaymentToken      string    `gorm:"type:varchar(255);not null;default:''"` // Mercado Pago access token
	PaymentWebhookURL string    `gorm:"type:varchar(512);not null;default:''"`
	WhatsappInstance  string    `gorm:"type:varchar(128);not null;default:''"`
	WhatsappAPIKey    string    `gorm:"type:varchar(255);not null;default:''"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Tenant) TableName() string {
	return "tenant"
}
