package service

import (
	"time"

	"recharge-service/internal/biz"

	"github.com/shopspring/decimal"
)

// 请求中的 tenant_id、app_id 等路径参数通过 BindVars 绑定，同名 json tag

type RegisterTenantRequest struct {
	Name string `json:"name"`
}

type TenantRequest struct {
	TenantID string `json:"tenant_id"`
}

type ConfigurePaymentRequest struct {
	TenantID    string `json:"tenant_id"`
	AccessToken string `json:"access_token"`
	WebhookURL  string `json:"webhook_url"`
}

type ConfigureMessagingRequest struct {
	TenantID string `json:"tenant_id"`
	Instance string `json:"instance"`
	APIKey   string `json:"api_key"`
}

type TenantReply struct {
	TenantID            string    `json:"tenant_id"`
	Name                string    `json:"name"`
	PaymentConfigured   bool      `json:"payment_configured"`
	WebhookURL          string    `json:"webhook_url,omitempty"`
	MessagingConfigured bool      `json:"messaging_configured"`
	MessagingInstance   string    `json:"messaging_instance,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

type ProductRequest struct {
	TenantID string `json:"tenant_id"`
	AppID    string `json:"app_id"`
	Name     string `json:"name"`
}

type ProductReply struct {
	AppID     string    `json:"app_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ListProductsReply struct {
	Products []*ProductReply `json:"products"`
}

type ImportCodesRequest struct {
	TenantID string   `json:"tenant_id"`
	AppID    string   `json:"app_id"`
	Codes    []string `json:"codes"`
}

type DuplicateCodeReply struct {
	Code    string `json:"code"`
	AppName string `json:"app_name"`
}

type ImportCodesReply struct {
	Added      []string              `json:"added"`
	Duplicates []*DuplicateCodeReply `json:"duplicates"`
}

type ListCodesRequest struct {
	TenantID string `json:"tenant_id"`
	AppID    string `json:"app_id"`
}

type CodeRequest struct {
	TenantID string `json:"tenant_id"`
	CodeID   string `json:"code_id"`
}

type CodeReply struct {
	CodeID  string     `json:"code_id"`
	AppID   string     `json:"app_id"`
	Code    string     `json:"code"`
	Used    bool       `json:"used"`
	OrderID string     `json:"order_id,omitempty"`
	UsedAt  *time.Time `json:"used_at,omitempty"`
}

type ListCodesReply struct {
	Codes []*CodeReply `json:"codes"`
}

type StockItem struct {
	AppID   string `json:"app_id"`
	AppName string `json:"app_name"`
	Unused  int    `json:"unused"`
}

type StockReply struct {
	Items []*StockItem `json:"items"`
}

type CustomerRequest struct {
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

type CustomerReply struct {
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListCustomersReply struct {
	Customers []*CustomerReply `json:"customers"`
}

type OrderItemRequest struct {
	AppID     string          `json:"app_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateOrderRequest struct {
	TenantID   string              `json:"tenant_id"`
	CustomerID string              `json:"customer_id"`
	Items      []*OrderItemRequest `json:"items"`
}

type OrderRequest struct {
	TenantID string `json:"tenant_id"`
	OrderID  string `json:"order_id"`
}

type OrderItemReply struct {
	AppID     string `json:"app_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderReply struct {
	OrderID       string            `json:"order_id"`
	Number        string            `json:"number"`
	CustomerID    string            `json:"customer_id"`
	Items         []*OrderItemReply `json:"items"`
	Total         string            `json:"total"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentID     string            `json:"payment_id"`
	PixCode       string            `json:"pix_code"`
	Codes         []*CodeReply      `json:"codes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}

type ListOrdersReply struct {
	Orders []*OrderReply `json:"orders"`
}

type EmptyReply struct{}

type WebhookReply struct {
	Outcome string `json:"outcome"`
}

func toTenantReply(t *biz.Tenant) *TenantReply {
	return &TenantReply{
		TenantID:            t.ID,
		Name:                t.Name,
		PaymentConfigured:   t.Payment.Configured(),
		WebhookURL:          t.Payment.WebhookURL,
		MessagingConfigured: t.Messaging.Configured(),
		MessagingInstance:   t.Messaging.Instance,
		CreatedAt:           t.CreatedAt,
	}
}

func toProductReply(a *biz.App) *ProductReply {
	return &ProductReply{AppID: a.ID, Name: a.Name, CreatedAt: a.CreatedAt}
}

func toCustomerReply(c *biz.Customer) *CustomerReply {
	return &CustomerReply{
		CustomerID: c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
		CreatedAt:  c.CreatedAt,
	}
}

func toCodeReply(c *biz.RechargeCode) *CodeReply {
	return &CodeReply{
		CodeID:  c.ID,
		AppID:   c.AppID,
		Code:    c.Code,
		Used:    c.Used,
		OrderID: c.OrderID,
		UsedAt:  c.UsedAt,
	}
}

func toOrderReply(o *biz.Order) *OrderReply {
	reply := &OrderReply{
		OrderID:       o.ID,
		Number:        o.Number(),
		CustomerID:    o.CustomerID,
		Items:         make([]*OrderItemReply, 0, len(o.Items)),
		Total:         o.Total.StringFixed(2),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentID:     o.PaymentID,
		PixCode:       o.PixCode,
		CreatedAt:     o.CreatedAt,
		CompletedAt:   o.CompletedAt,
	}
	for _, item := range o.Items {
		reply.Items = append(reply.Items, &OrderItemReply{
			AppID:     item.AppID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return reply
}
