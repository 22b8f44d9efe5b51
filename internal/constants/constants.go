package constants

// 订单状态常量
const (
	// OrderStatusPending 待处理
	OrderStatusPending = "pending"
	// OrderStatusCompleted 已完成（已分配充值码）
	OrderStatusCompleted = "completed"
	// OrderStatusCancelled 已取消
	OrderStatusCancelled = "cancelled"
)

// 支付状态常量
const (
	// PaymentStatusPending 待支付
	PaymentStatusPending = "pending"
	// PaymentStatusApproved 支付成功
	PaymentStatusApproved = "approved"
	// PaymentStatusRejected 支付被拒绝
	PaymentStatusRejected = "rejected"
)

// Redis Key 前缀常量
const (
	// RedisKeyTenantLock 租户锁 key 前缀
	RedisKeyTenantLock = "recharge:lock:tenant:"
	// RedisKeyPaymentIndex 支付ID -> 租户/订单 索引 key 前缀
	RedisKeyPaymentIndex = "recharge:payment:"
)

// 支付方式常量
const (
	// PaymentMethodPix PIX 即时转账，唯一允许的支付方式
	PaymentMethodPix = "pix"
)

// Webhook 处理结果常量
const (
	// WebhookOutcomeCompleted 订单完成
	WebhookOutcomeCompleted = "completed"
	// WebhookOutcomeDuplicate 重复投递，订单已完成
	WebhookOutcomeDuplicate = "duplicate"
	// WebhookOutcomeRejected 支付被拒绝，订单取消
	WebhookOutcomeRejected = "rejected"
	// WebhookOutcomeIgnored 非终态，忽略
	WebhookOutcomeIgnored = "ignored"
	// WebhookOutcomeUnmatched 找不到订单
	WebhookOutcomeUnmatched = "unmatched"
	// WebhookOutcomeFailed 处理失败
	WebhookOutcomeFailed = "failed"
)

// 通知类型常量
const (
	NotificationKindPix      = "pix"
	NotificationKindSummary  = "order_summary"
	NotificationKindCodes    = "codes"
	NotificationKindRejected = "rejected"
)

// 指标结果标签
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// 通知投递通道
const (
	ChannelQueue  = "queue"
	ChannelDirect = "direct"
)

// 其它
const (
	// OrderNumberLength 展示给客户的订单号长度（订单ID前缀）
	OrderNumberLength = 8
	// UnknownAppName 充值码所属应用已不存在时的展示名
	UnknownAppName = "Aplicativo Desconhecido"
	// DefaultAppName 消息中找不到应用名称时的占位
	DefaultAppName = "Aplicativo"
)
