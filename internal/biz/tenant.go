package biz

import (
	"context"
	"strings"
	"time"

	rechargeErrors "recharge-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// PaymentCredential 租户在 Mercado Pago 的支付凭证
type PaymentCredential struct {
	AccessToken string // Mercado Pago access token
	WebhookURL  string // 支付结果回调地址
}

// Configured 是否已配置支付凭证
func (c PaymentCredential) Configured() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

// MessagingCredential 租户的 WhatsApp 网关凭证
type MessagingCredential struct {
	Instance string
	APIKey   string
}

// Configured 是否已配置消息凭证
func (c MessagingCredential) Configured() bool {
	return c.Instance != "" && c.APIKey != ""
}

// Tenant 租户（卖家）领域对象，所有数据按租户隔离
type Tenant struct {
	ID        string
	Name      string
	Payment   PaymentCredential
	Messaging MessagingCredential
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantRepo 租户数据层接口
type TenantRepo interface {
	CreateTenant(ctx context.Context, t *Tenant) error
	// GetTenant 不存在时返回 nil, nil
	GetTenant(ctx context.Context, tenantID string) (*Tenant, error)
	UpdatePaymentCredential(ctx context.Context, tenantID string, cred PaymentCredential) error
	UpdateMessagingCredential(ctx context.Context, tenantID string, cred MessagingCredential) error
}

// TenantUseCase 租户业务逻辑
type TenantUseCase struct {
	repo TenantRepo
	log  *log.Helper
}

// NewTenantUseCase 创建租户 UseCase
func NewTenantUseCase(repo TenantRepo, logger log.Logger) *TenantUseCase {
	return &TenantUseCase{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// RegisterTenant 注册租户
func (uc *TenantUseCase) RegisterTenant(ctx context.Context, name string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, rechargeErrors.Newf(rechargeErrors.ErrCodeInvalidArgument, "nome é obrigatório")
	}
	t := &Tenant{
		ID:   uuid.NewString(),
		Name: name,
	}
	if err := uc.repo.CreateTenant(ctx, t); err != nil {
		uc.log.Errorf("CreateTenant failed: name=%s, error=%v", name, err)
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	uc.log.Infof("Tenant registered: tenant_id=%s", t.ID)
	return t, nil
}

// GetTenant 获取租户，不存在返回 NotFound
func (uc *TenantUseCase) GetTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	return mustGetTenant(ctx, uc.repo, tenantID)
}

// ConfigurePayment 配置支付凭证
func (uc *TenantUseCase) ConfigurePayment(ctx context.Context, tenantID, accessToken, webhookURL string) (*Tenant, error) {
	if _, err := mustGetTenant(ctx, uc.repo, tenantID); err != nil {
		return nil, err
	}
	cred := PaymentCredential{
		AccessToken: strings.TrimSpace(accessToken),
		WebhookURL:  strings.TrimSpace(webhookURL),
	}
	if err := uc.repo.UpdatePaymentCredential(ctx, tenantID, cred); err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	uc.log.Infof("Payment credential updated: tenant_id=%s, configured=%v", tenantID, cred.Configured())
	return mustGetTenant(ctx, uc.repo, tenantID)
}

// ConfigureMessaging 配置 WhatsApp 凭证
func (uc *TenantUseCase) ConfigureMessaging(ctx context.Context, tenantID, instance, apiKey string) (*Tenant, error) {
	if _, err := mustGetTenant(ctx, uc.repo, tenantID); err != nil {
		return nil, err
	}
	cred := MessagingCredential{
		Instance: strings.TrimSpace(instance),
		APIKey:   strings.TrimSpace(apiKey),
	}
	if err := uc.repo.UpdateMessagingCredential(ctx, tenantID, cred); err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	uc.log.Infof("Messaging credential updated: tenant_id=%s, configured=%v", tenantID, cred.Configured())
	return mustGetTenant(ctx, uc.repo, tenantID)
}

func mustGetTenant(ctx context.Context, repo TenantRepo, tenantID string) (*Tenant, error) {
	t, err := repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	if t == nil {
		return nil, rechargeErrors.New(rechargeErrors.ErrCodeTenantNotFound)
	}
	return t, nil
}
