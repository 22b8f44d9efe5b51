package data

import (
	"context"
	"encoding/json"

	"recharge-service/internal/biz"
	"recharge-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/datatypes"
)

type webhookEventRepo struct {
	data *Data
	log  *log.Helper
}

// NewWebhookEventRepo 创建 webhook 审计 repo
func NewWebhookEventRepo(data *Data, logger log.Logger) biz.WebhookEventRepo {
	return &webhookEventRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *webhookEventRepo) SaveEvent(ctx context.Context, e *biz.WebhookEvent) error {
	m := &model.WebhookEvent{
		EventID:    e.ID,
		PaymentID:  e.PaymentID,
		Status:     e.Status,
		Source:     e.Source,
		Outcome:    e.Outcome,
		Error:      truncate(e.Error, 512),
		TenantID:   e.TenantID,
		OrderID:    e.OrderID,
		ReceivedAt: e.ReceivedAt,
	}
	// 非 JSON 的原始内容不入库
	if len(e.Payload) > 0 && json.Valid(e.Payload) {
		m.Payload = datatypes.JSON(e.Payload)
	}
	return r.data.DB(ctx).Create(m).Error
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
