package model

// All 返回需要自动迁移的全部表
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&Customer{},
		&App{},
		&RechargeCode{},
		&Order{},
		&OrderItem{},
		&OrderAllocation{},
		&WebhookEvent{},
	}
}
