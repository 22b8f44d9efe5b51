package biz

import (
	"time"

	"recharge-service/internal/conf"
)

// RechargeConfig 业务配置
type RechargeConfig struct {
	PixExpiration      time.Duration // PIX 支付有效期
	NotifyTimeout      time.Duration // 单条通知的发送超时
	ReconcileMinAge    time.Duration // 补偿任务只处理创建时间早于该值的订单
	ReconcileBatchSize int           // 补偿任务单次处理的订单数
}

// NewRechargeConfig 从配置创建 RechargeConfig
func NewRechargeConfig(c *conf.Bootstrap) *RechargeConfig {
	config := &RechargeConfig{
		PixExpiration:      15 * time.Minute, // 默认值
		NotifyTimeout:      10 * time.Second,
		ReconcileMinAge:    10 * time.Minute,
		ReconcileBatchSize: 100,
	}
	if c == nil || c.Recharge == nil {
		return config
	}
	if psp := c.Recharge.Psp; psp != nil && psp.PixExpiration.AsDuration() > 0 {
		config.PixExpiration = psp.PixExpiration.AsDuration()
	}
	if m := c.Recharge.Messaging; m != nil && m.Timeout.AsDuration() > 0 {
		// 留出入队或回退直连的余量
		config.NotifyTimeout = 2 * m.Timeout.AsDuration()
	}
	if r := c.Recharge.Reconcile; r != nil {
		if r.MinAge.AsDuration() > 0 {
			config.ReconcileMinAge = r.MinAge.AsDuration()
		}
		if r.BatchSize > 0 {
			config.ReconcileBatchSize = int(r.BatchSize)
		}
	}
	return config
}
