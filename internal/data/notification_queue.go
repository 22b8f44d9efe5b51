package data

import (
	"context"
	"encoding/json"

	"recharge-service/internal/biz"

	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/go-kratos/kratos/v2/log"
)

// DefaultNotificationTopic 通知队列默认 topic
const DefaultNotificationTopic = "recharge_notification"

type notificationQueue struct {
	data  *Data
	topic string
	log   *log.Helper
}

// NewNotificationQueue 创建通知队列，RocketMQ 未启用时 Enabled 返回 false
func NewNotificationQueue(data *Data, logger log.Logger) biz.NotificationQueue {
	topic := DefaultNotificationTopic
	if c := data.conf; c != nil && c.Data != nil && c.Data.Rocketmq != nil && c.Data.Rocketmq.Topic != "" {
		topic = c.Data.Rocketmq.Topic
	}
	return &notificationQueue{
		data:  data,
		topic: topic,
		log:   log.NewHelper(logger),
	}
}

func (q *notificationQueue) Enabled() bool {
	return q.data.mq != nil
}

func (q *notificationQueue) Publish(ctx context.Context, n *biz.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	msg := primitive.NewMessage(q.topic, body)
	msg.WithKeys([]string{n.OrderID})
	msg.WithTag(n.Kind)

	res, err := q.data.mq.SendSync(ctx, msg)
	if err != nil {
		return err
	}
	q.log.Infof("Notification published: tenant_id=%s, order_id=%s, kind=%s, msg_id=%s", n.TenantID, n.OrderID, n.Kind, res.MsgID)
	return nil
}
