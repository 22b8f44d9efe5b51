package biz

import (
	"context"

	"github.com/shopspring/decimal"
)

// CreateIntentRequest 创建支付意图请求
type CreateIntentRequest struct {
	Amount          decimal.Decimal
	Description     string
	PayerEmail      string
	PayerName       string
	NotificationURL string // 租户配置的 webhook 地址，为空时不传
}

// PaymentIntent 支付意图
type PaymentIntent struct {
	ProviderPaymentID string // 支付服务分配的支付ID，订单与 webhook 的唯一关联键
	DisplayToken      string // PIX 复制粘贴码
}

// PaymentIntentClient 支付服务客户端接口（定义在 biz 层）
// 每次 CreateIntent 都使用新的幂等键，不做内部重试。
// 非 2xx 或响应格式错误返回 PROVIDER_ERROR，网络错误返回 UNAVAILABLE。
type PaymentIntentClient interface {
	CreateIntent(ctx context.Context, cred PaymentCredential, req *CreateIntentRequest) (*PaymentIntent, error)
	// GetPaymentStatus 查询支付状态（approved/rejected/pending 等原始状态）
	GetPaymentStatus(ctx context.Context, cred PaymentCredential, paymentID string) (string, error)
}

// PaymentRef 支付ID索引指向的租户与订单
type PaymentRef struct {
	PaymentID string
	TenantID  string
	OrderID   string
}

// PaymentIndex 支付ID -> 订单索引，替代逐租户扫描
type PaymentIndex interface {
	// Resolve 找不到时返回 nil, nil
	Resolve(ctx context.Context, paymentID string) (*PaymentRef, error)
	// Remember 预热索引缓存，失败只记录日志
	Remember(ctx context.Context, ref *PaymentRef)
	// Forget 订单删除后清除缓存，失败只记录日志
	Forget(ctx context.Context, paymentID string)
}
