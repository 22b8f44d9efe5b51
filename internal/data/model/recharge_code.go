package model

import "time"

// RechargeCode 充值码表，同一租户内充值码唯一
type RechargeCode struct {
	CodeID    string     `gorm:"primaryKey;type:varchar(36)"`
	TenantID  string     `gorm:"type:varchar(36);not null;uniqueIndex:uk_tenant_code,priority:1;index:idx_tenant_app_used,priority:1"`
	AppID     string     `gorm:"type:varchar(36);not null;index:idx_tenant_app_used,priority:2"`
	Code      string     `gorm:"type:varchar(255);not null;uniqueIndex:uk_tenant_code,priority:2"`
	Used      bool       `gorm:"not null;default:false;index:idx_tenant_app_used,priority:3"`
	OrderID   *string    `gorm:"type:varchar(36)"` // 分配到的订单，未使用时为 NULL
	UsedAt    *time.Time `gorm:"type:datetime"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
}

// TableName 指定表名
func (RechargeCode) TableName() string {
	return "recharge_code"
}
