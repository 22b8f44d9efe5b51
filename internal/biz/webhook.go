package biz

import (
	"context"
	"strings"
	"time"

	"recharge-service/internal/constants"
	rechargeErrors "recharge-service/internal/errors"
	"recharge-service/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// PaymentEvent 支付结果事件（webhook 或补偿任务）
// Status 为空时按支付ID向支付服务查询
type PaymentEvent struct {
	PaymentID string
	Status    string
	Source    string // webhook/reconcile
	Raw       []byte
}

// WebhookResult 处理结果
type WebhookResult struct {
	Outcome  string
	TenantID string
	OrderID  string
}

// WebhookEvent webhook 审计记录
type WebhookEvent struct {
	ID         string
	PaymentID  string
	Status     string
	Source     string
	Outcome    string
	Error      string
	TenantID   string
	OrderID    string
	Payload    []byte
	ReceivedAt time.Time
}

// WebhookEventRepo webhook 审计日志
type WebhookEventRepo interface {
	SaveEvent(ctx context.Context, e *WebhookEvent) error
}

// WebhookUseCase 支付结果对账
type WebhookUseCase struct {
	index    PaymentIndex
	orders   *OrderUseCase
	repo     OrderRepo
	tenants  TenantRepo
	payments PaymentIntentClient
	events   WebhookEventRepo
	conf     *RechargeConfig
	log      *log.Helper
	metrics  *metrics.RechargeMetrics
}

// NewWebhookUseCase 创建 webhook UseCase
func NewWebhookUseCase(
	index PaymentIndex,
	orders *OrderUseCase,
	repo OrderRepo,
	tenants TenantRepo,
	payments PaymentIntentClient,
	events WebhookEventRepo,
	conf *RechargeConfig,
	logger log.Logger,
) *WebhookUseCase {
	return &WebhookUseCase{
		index:    index,
		orders:   orders,
		repo:     repo,
		tenants:  tenants,
		payments: payments,
		events:   events,
		conf:     conf,
		log:      log.NewHelper(logger),
		metrics:  metrics.GetMetrics(),
	}
}

// HandlePaymentEvent 按支付ID找到订单并推进状态
//   - approved: 记录支付成功后完成订单，重复投递返回 duplicate
//   - rejected: 取消订单并通知客户
//   - 其它状态: 不处理
//
// 找不到订单返回 UNMATCHED；完成失败（如库存不足）返回错误，由支付服务重投
func (uc *WebhookUseCase) HandlePaymentEvent(ctx context.Context, ev *PaymentEvent) (*WebhookResult, error) {
	result, err := uc.handle(ctx, ev)
	uc.record(ctx, ev, result, err)
	if uc.metrics != nil {
		uc.metrics.WebhookTotal.WithLabelValues(result.Outcome).Inc()
	}
	return result, err
}

func (uc *WebhookUseCase) handle(ctx context.Context, ev *PaymentEvent) (*WebhookResult, error) {
	result := &WebhookResult{Outcome: constants.WebhookOutcomeFailed}
	if ev == nil || strings.TrimSpace(ev.PaymentID) == "" {
		return result, rechargeErrors.New(rechargeErrors.ErrCodeWebhookInvalid)
	}

	ref, err := uc.index.Resolve(ctx, ev.PaymentID)
	if err != nil {
		uc.log.Errorf("Resolve payment failed: payment_id=%s, error=%v", ev.PaymentID, err)
		return result, rechargeErrors.Ensure(err)
	}
	if ref == nil {
		return uc.unmatched(result, ev)
	}
	result.TenantID = ref.TenantID
	result.OrderID = ref.OrderID

	status := strings.ToLower(strings.TrimSpace(ev.Status))
	if status == "" {
		status, err = uc.fetchStatus(ctx, ref)
		if err != nil {
			return result, err
		}
		ev.Status = status
	}

	switch status {
	case constants.PaymentStatusApproved:
		if err := uc.orders.MarkPaymentApproved(ctx, ref.TenantID, ref.OrderID); err != nil {
			if rechargeErrors.IsCode(err, rechargeErrors.ErrCodeOrderNotFound) {
				return uc.unmatched(result, ev)
			}
			return result, err
		}
		_, err := uc.orders.CompleteOrder(ctx, ref.TenantID, ref.OrderID)
		switch {
		case err == nil:
			result.Outcome = constants.WebhookOutcomeCompleted
		case rechargeErrors.IsReason(err, rechargeErrors.ReasonAlreadyCompleted):
			uc.log.Infof("Duplicate approved event: payment_id=%s, order_id=%s", ev.PaymentID, ref.OrderID)
			result.Outcome = constants.WebhookOutcomeDuplicate
		case rechargeErrors.IsCode(err, rechargeErrors.ErrCodeOrderNotFound):
			return uc.unmatched(result, ev)
		default:
			return result, err
		}
	case constants.PaymentStatusRejected:
		order, err := uc.orders.RejectOrder(ctx, ref.TenantID, ref.OrderID)
		if err != nil {
			if rechargeErrors.IsCode(err, rechargeErrors.ErrCodeOrderNotFound) {
				return uc.unmatched(result, ev)
			}
			return result, err
		}
		// 已完成的订单不会被拒绝
		if order.Status == constants.OrderStatusCompleted {
			result.Outcome = constants.WebhookOutcomeIgnored
			break
		}
		result.Outcome = constants.WebhookOutcomeRejected
	default:
		uc.log.Infof("Payment event ignored: payment_id=%s, status=%s", ev.PaymentID, status)
		result.Outcome = constants.WebhookOutcomeIgnored
	}
	return result, nil
}

// unmatched 索引中没有该支付，或索引指向的订单已被删除
func (uc *WebhookUseCase) unmatched(result *WebhookResult, ev *PaymentEvent) (*WebhookResult, error) {
	uc.log.Warnf("Payment event unmatched: payment_id=%s, status=%s, order_id=%s", ev.PaymentID, ev.Status, result.OrderID)
	result.Outcome = constants.WebhookOutcomeUnmatched
	return result, rechargeErrors.New(rechargeErrors.ErrCodeWebhookUnmatched)
}

func (uc *WebhookUseCase) fetchStatus(ctx context.Context, ref *PaymentRef) (string, error) {
	tenant, err := mustGetTenant(ctx, uc.tenants, ref.TenantID)
	if err != nil {
		return "", err
	}
	if !tenant.Payment.Configured() {
		return "", rechargeErrors.New(rechargeErrors.ErrCodePaymentConfigMissing)
	}
	status, err := uc.payments.GetPaymentStatus(ctx, tenant.Payment, ref.PaymentID)
	if err != nil {
		uc.log.Errorf("GetPaymentStatus failed: payment_id=%s, error=%v", ref.PaymentID, err)
		return "", err
	}
	return strings.ToLower(status), nil
}

func (uc *WebhookUseCase) record(ctx context.Context, ev *PaymentEvent, result *WebhookResult, err error) {
	if uc.events == nil || ev == nil {
		return
	}
	e := &WebhookEvent{
		ID:         uuid.NewString(),
		PaymentID:  ev.PaymentID,
		Status:     ev.Status,
		Source:     ev.Source,
		Outcome:    result.Outcome,
		TenantID:   result.TenantID,
		OrderID:    result.OrderID,
		Payload:    ev.Raw,
		ReceivedAt: time.Now(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	if saveErr := uc.events.SaveEvent(ctx, e); saveErr != nil {
		uc.log.Warnf("SaveEvent failed: payment_id=%s, error=%v", ev.PaymentID, saveErr)
	}
}

// ReconcilePending 补偿丢失的 webhook：查询长时间未支付订单的支付状态，
// 终态的按 HandlePaymentEvent 同一流程处理，返回处理的订单数
func (uc *WebhookUseCase) ReconcilePending(ctx context.Context) (int, error) {
	before := time.Now().Add(-uc.conf.ReconcileMinAge)
	orders, err := uc.repo.ListStalePending(ctx, before, uc.conf.ReconcileBatchSize)
	if err != nil {
		return 0, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}

	tenants := make(map[string]*Tenant)
	handled := 0
	for _, o := range orders {
		if ctx.Err() != nil {
			return handled, ctx.Err()
		}
		tenant, ok := tenants[o.TenantID]
		if !ok {
			tenant, err = uc.tenants.GetTenant(ctx, o.TenantID)
			if err != nil {
				uc.log.Errorf("Reconcile GetTenant failed: tenant_id=%s, error=%v", o.TenantID, err)
				continue
			}
			tenants[o.TenantID] = tenant
		}
		if tenant == nil || !tenant.Payment.Configured() {
			continue
		}

		status, err := uc.payments.GetPaymentStatus(ctx, tenant.Payment, o.PaymentID)
		if err != nil {
			uc.log.Warnf("Reconcile GetPaymentStatus failed: order_id=%s, payment_id=%s, error=%v", o.ID, o.PaymentID, err)
			continue
		}
		status = strings.ToLower(status)
		if status != constants.PaymentStatusApproved && status != constants.PaymentStatusRejected {
			continue
		}
		result, err := uc.HandlePaymentEvent(ctx, &PaymentEvent{
			PaymentID: o.PaymentID,
			Status:    status,
			Source:    "reconcile",
		})
		if err != nil {
			uc.log.Warnf("Reconcile order failed: order_id=%s, payment_id=%s, error=%v", o.ID, o.PaymentID, err)
			continue
		}
		handled++
		uc.log.Infof("Reconcile order done: order_id=%s, payment_id=%s, outcome=%s", o.ID, o.PaymentID, result.Outcome)
	}
	return handled, nil
}
