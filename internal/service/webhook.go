package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"recharge-service/internal/biz"
	"recharge-service/internal/constants"
	rechargeErrors "recharge-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// WebhookService 支付服务回调
type WebhookService struct {
	uc  *biz.WebhookUseCase
	log *log.Helper
}

// NewWebhookService 创建 WebhookService
func NewWebhookService(uc *biz.WebhookUseCase, logger log.Logger) *WebhookService {
	return &WebhookService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

// webhookPayload 同时兼容两种格式：
// {"id": "...", "status": "approved"} 以及 Mercado Pago 通知 {"type": "payment", "data": {"id": "..."}}
type webhookPayload struct {
	ID     json.RawMessage `json:"id"`
	Status string          `json:"status"`
	Type   string          `json:"type"`
	Topic  string          `json:"topic"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook 处理支付结果通知
// query 为回调 URL 上的参数（Mercado Pago 也会通过 data.id/type 传递）
func (s *WebhookService) MercadoPagoWebhook(ctx context.Context, body []byte, query map[string]string) (*WebhookReply, error) {
	var p webhookPayload
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &p); err != nil {
			s.log.Warnf("Invalid webhook body: error=%v", err)
			return nil, rechargeErrors.New(rechargeErrors.ErrCodeWebhookInvalid)
		}
	}

	kind := firstNonEmpty(p.Type, p.Topic, query["type"], query["topic"])
	if kind != "" && kind != "payment" {
		s.log.Infof("Webhook ignored: type=%s", kind)
		return &WebhookReply{Outcome: constants.WebhookOutcomeIgnored}, nil
	}

	ev := &biz.PaymentEvent{
		PaymentID: firstNonEmpty(rawID(p.Data.ID), rawID(p.ID), query["data.id"], query["id"]),
		Status:    p.Status,
		Source:    "webhook",
		Raw:       body,
	}
	res, err := s.uc.HandlePaymentEvent(ctx, ev)
	if err != nil {
		return nil, err
	}
	return &WebhookReply{Outcome: res.Outcome}, nil
}

// rawID 支付ID可能是数字也可能是字符串
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
