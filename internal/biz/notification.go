package biz

import (
	"context"
	"sync"
	"time"

	"recharge-service/internal/constants"
	"recharge-service/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
)

// Notification 发给客户的一条消息，不携带租户凭证，投递时再解析
type Notification struct {
	TenantID  string `json:"tenant_id"`
	OrderID   string `json:"order_id,omitempty"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Kind      string `json:"kind"`
}

// MessageGateway WhatsApp 网关接口
type MessageGateway interface {
	SendText(ctx context.Context, cred MessagingCredential, recipient, text string) error
}

// NotificationQueue 通知队列（RocketMQ），未启用时 Enabled 返回 false
type NotificationQueue interface {
	Enabled() bool
	Publish(ctx context.Context, n *Notification) error
}

// NotificationUseCase 通知业务逻辑
// 通知是尽力而为的副作用：失败只记录日志与指标，不影响调用方结果
type NotificationUseCase struct {
	tenants TenantRepo
	gateway MessageGateway
	queue   NotificationQueue
	conf    *RechargeConfig
	log     *log.Helper
	metrics *metrics.RechargeMetrics
	wg      sync.WaitGroup
}

// NewNotificationUseCase 创建通知 UseCase
func NewNotificationUseCase(tenants TenantRepo, gateway MessageGateway, queue NotificationQueue, conf *RechargeConfig, logger log.Logger) *NotificationUseCase {
	return &NotificationUseCase{
		tenants: tenants,
		gateway: gateway,
		queue:   queue,
		conf:    conf,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

// Dispatch 异步发送通知，按顺序发送同一批消息，不阻塞调用方
func (uc *NotificationUseCase) Dispatch(ctx context.Context, ns ...*Notification) {
	var batch []*Notification
	for _, n := range ns {
		if n == nil || n.Recipient == "" {
			continue
		}
		batch = append(batch, n)
	}
	if len(batch) == 0 {
		return
	}

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				uc.log.Errorf("notification dispatch panic: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.conf.NotifyTimeout*time.Duration(len(batch)))
		defer cancel()
		for _, n := range batch {
			uc.send(ctx, n)
		}
	}()
}

// Wait 等待已派发的通知结束
func (uc *NotificationUseCase) Wait() {
	uc.wg.Wait()
}

func (uc *NotificationUseCase) send(ctx context.Context, n *Notification) {
	if uc.queue != nil && uc.queue.Enabled() {
		err := uc.queue.Publish(ctx, n)
		if err == nil {
			uc.observe(n.Kind, constants.ChannelQueue, constants.ResultSuccess)
			return
		}
		uc.observe(n.Kind, constants.ChannelQueue, constants.ResultFailed)
		uc.log.Warnf("Publish notification failed, fallback to direct send: tenant_id=%s, order_id=%s, kind=%s, error=%v",
			n.TenantID, n.OrderID, n.Kind, err)
	}

	if err := uc.Deliver(ctx, n); err != nil {
		uc.observe(n.Kind, constants.ChannelDirect, constants.ResultFailed)
		uc.log.Errorf("Send notification failed: tenant_id=%s, order_id=%s, kind=%s, error=%v",
			n.TenantID, n.OrderID, n.Kind, err)
		return
	}
	uc.observe(n.Kind, constants.ChannelDirect, constants.ResultSuccess)
}

// Deliver 解析租户消息凭证并通过网关发送，供直连发送与 MQ 消费者使用
// 未配置消息凭证的租户直接跳过
func (uc *NotificationUseCase) Deliver(ctx context.Context, n *Notification) error {
	tenant, err := uc.tenants.GetTenant(ctx, n.TenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		uc.log.Warnf("Notification dropped, tenant not found: tenant_id=%s, kind=%s", n.TenantID, n.Kind)
		return nil
	}
	if !tenant.Messaging.Configured() {
		uc.log.Infof("Notification skipped, messaging not configured: tenant_id=%s, kind=%s", n.TenantID, n.Kind)
		return nil
	}
	if err := uc.gateway.SendText(ctx, tenant.Messaging, n.Recipient, n.Body); err != nil {
		return err
	}
	uc.log.Infof("Notification sent: tenant_id=%s, order_id=%s, kind=%s", n.TenantID, n.OrderID, n.Kind)
	return nil
}

func (uc *NotificationUseCase) observe(kind, channel, result string) {
	if uc.metrics != nil {
		uc.metrics.NotificationTotal.WithLabelValues(kind, channel, result).Inc()
	}
}
