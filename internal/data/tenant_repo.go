package data

import (
	"context"
	"errors"

	"recharge-service/internal/biz"
	"recharge-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

type tenantRepo struct {
	data *Data
	log  *log.Helper
}

// NewTenantRepo 创建租户 repo
func NewTenantRepo(data *Data, logger log.Logger) biz.TenantRepo {
	return &tenantRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *tenantRepo) CreateTenant(ctx context.Context, t *biz.Tenant) error {
	m := &model.Tenant{
		TenantID:          t.ID,
		Name:              t.Name,
		PaymentToken:      t.Payment.AccessToken,
		PaymentWebhookURL: t.Payment.WebhookURL,
		WhatsappInstance:  t.Messaging.Instance,
		WhatsappAPIKey:    t.Messaging.APIKey,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	t.CreatedAt = m.CreatedAt
	t.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *tenantRepo) GetTenant(ctx context.Context, tenantID string) (*biz.Tenant, error) {
	var m model.Tenant
	if err := r.data.DB(ctx).Where("tenant_id = ?", tenantID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &biz.Tenant{
		ID:   m.TenantID,
		Name: m.Name,
		Payment: biz.PaymentCredential{
			AccessToken: m.PaymentToken,
			WebhookURL:  m.PaymentWebhookURL,
		},
		Messaging: biz.MessagingCredential{
			Instance: m.WhatsappInstance,
			APIKey:   m.WhatsappAPIKey,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func (r *tenantRepo) UpdatePaymentCredential(ctx context.Context, tenantID string, cred biz.PaymentCredential) error {
	return r.data.DB(ctx).Model(&model.Tenant{}).
		Where("tenant_id = ?", tenantID).
		Updates(map[string]interface{}{
			"payment_token":       cred.AccessToken,
			"payment_webhook_url": cred.WebhookURL,
		}).Error
}

func (r *tenantRepo) UpdateMessagingCredential(ctx context.Context, tenantID string, cred biz.MessagingCredential) error {
	return r.data.DB(ctx).Model(&model.Tenant{}).
		Where("tenant_id = ?", tenantID).
		Updates(map[string]interface{}{
			"whatsapp_instance": cred.Instance,
			"whatsapp_api_key":  cred.APIKey,
		}).Error
}
