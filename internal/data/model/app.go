package model

import "time"

// App 商品表
type App struct {
	AppID     string    `gorm:"primaryKey;type:varchar(36)"`
	TenantID  string    `gorm:"type:varchar(36);not null;index"`
	Name      string    `gorm:"type:varchar(128);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (App) TableName() string {
	return "app"
}
