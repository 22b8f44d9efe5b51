package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RechargeMetrics 充值码销售服务指标
type RechargeMetrics struct {
	// 订单相关指标
	OrderCreateTotal    *prometheus.CounterVec // 订单创建总数（按结果）
	OrderCreateDuration prometheus.Histogram   // 订单创建耗时（含支付调用）
	OrderCompleteTotal  *prometheus.CounterVec // 订单完成总数（按结果）
	OrderCancelTotal    *prometheus.CounterVec // 订单取消总数（按原因）

	// 支付相关指标
	PaymentIntentTotal    *prometheus.CounterVec // 支付意图调用总数（按结果）
	PaymentIntentDuration prometheus.Histogram   // 支付意图调用耗时

	// 库存相关指标
	CodesAllocatedTotal prometheus.Counter     // 已分配充值码总数
	CodesImportedTotal  *prometheus.CounterVec // 导入充值码总数（按结果 added/duplicate）

	// Webhook 相关指标
	WebhookTotal *prometheus.CounterVec // Webhook 处理总数（按结果）

	// 通知相关指标
	NotificationTotal *prometheus.CounterVec // 通知发送总数（按类型、渠道、结果）

	// 分布式锁相关指标
	LockAcquireTotal    *prometheus.CounterVec // 锁获取总数（按结果）
	LockAcquireDuration prometheus.Histogram   // 锁获取耗时
}

// NewRechargeMetrics 创建服务指标
func NewRechargeMetrics() *RechargeMetrics {
	return &RechargeMetrics{
		OrderCreateTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recharge_order_create_total",
				Help: "Total number of order creations",
			},
			[]string{"result"}, // result: success/failed
		),
		OrderCreateDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recharge_order_create_duration_seconds",
				Help:    "Duration of order creation including the payment intent call",
				Buckets: prometheus.DefBuckets,
			},
		),
		OrderCompleteTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recharge_order_complete_total",
				Help: "Total number of order completion attempts",
			},
			[]string{"result"}, // result: success/already_completed/insufficient/failed
		),
		OrderCancelTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recharge_order_cancel_total",
				Help: "Total number of order cancellations",
			},
			[]string{"reason"}, // reason: rejected/operator
		),

		PaymentIntentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recharge_payment_intent_total",
				Help: "Total number of payment intent requests",
			},
			[]string{"result"},
		),
		PaymentIntentDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recharge_payment_intent_duration_seconds",
				Help:    "Duration of payment intent requests",
				Buckets: prometheus.DefBuckets,
			},
		),

		CodesAllocatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "recharge_codes_allocated_total",
				Help: "Total number of recharge codes allocated to orders",
			},
		),
		CodesImportedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recharge_codes_imported_total",
				Help: "Total number of recharge codes submitted for import",
			},
			[]string{"result"}, // result: added/duplicate
		),

		WebhookTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recharge_webhook_total",
				Help: "Total number of payment webhook deliveries",
			},
			[]string{"outcome"},
		),

		NotificationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recharge_notification_total",
				Help: "Total number of customer notifications",
			},
			[]string{"kind", "channel", "result"},
		),

		LockAcquireTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recharge_lock_acquire_total",
				Help: "Total number of tenant lock acquisition attempts",
			},
			[]string{"result"}, // result: success/failed
		),
		LockAcquireDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recharge_lock_acquire_duration_seconds",
				Help:    "Duration of tenant lock acquisition",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0}, // 毫秒级
			},
		),
	}
}

var (
	defaultMetrics *RechargeMetrics
	once           sync.Once
)

// GetMetrics 获取全局指标实例
// promauto 注册到默认 registry，同名指标只能注册一次
func GetMetrics() *RechargeMetrics {
	once.Do(func() {
		defaultMetrics = NewRechargeMetrics()
	})
	return defaultMetrics
}
