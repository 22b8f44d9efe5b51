package server

import (
	"context"
	"encoding/json"

	"recharge-service/internal/biz"
	"recharge-service/internal/conf"
	"recharge-service/internal/data"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/go-kratos/kratos/v2/log"
)

// MQConsumerServer consumes customer notifications from RocketMQ and delivers them through the gateway
type MQConsumerServer struct {
	c        rocketmq.PushConsumer
	notifier *biz.NotificationUseCase
	topic    string
	log      *log.Helper
	enabled  bool
}

// NewMQConsumerServer creates a RocketMQ consumer server
func NewMQConsumerServer(c *conf.Bootstrap, notifier *biz.NotificationUseCase, logger log.Logger) *MQConsumerServer {
	helper := log.NewHelper(logger)
	if c.Data == nil || c.Data.Rocketmq == nil || !c.Data.Rocketmq.Enabled {
		return &MQConsumerServer{notifier: notifier, log: helper, enabled: false}
	}
	mc := c.Data.Rocketmq

	r, err := rocketmq.NewPushConsumer(
		consumer.WithNsResolver(primitive.NewPassthroughResolver(mc.NameServers)),
		consumer.WithGroupName(mc.GroupName+"-consumer"),
		consumer.WithRetry(int(mc.RetryTimes)),
		consumer.WithConsumeMessageBatchMaxSize(1),
	)
	if err != nil {
		helper.Errorf("init consumer error: %v", err)
		return &MQConsumerServer{notifier: notifier, log: helper, enabled: false}
	}

	topic := mc.Topic
	if topic == "" {
		topic = data.DefaultNotificationTopic
	}
	return &MQConsumerServer{
		c:        r,
		notifier: notifier,
		topic:    topic,
		log:      helper,
		enabled:  true,
	}
}

// Start starts the consumer
func (s *MQConsumerServer) Start(ctx context.Context) error {
	if !s.enabled {
		s.log.Infof("MQConsumerServer is disabled, skipping startup")
		return nil
	}

	s.log.Infof("Starting MQConsumerServer, topic: %s", s.topic)

	if err := s.c.Subscribe(s.topic, consumer.MessageSelector{}, s.handler); err != nil {
		// 不返回错误，通知会回退为直连发送
		s.log.Errorf("Failed to subscribe to topic %s: %v", s.topic, err)
		return nil
	}
	if err := s.c.Start(); err != nil {
		s.log.Errorf("Failed to start RocketMQ consumer: %v", err)
		return nil
	}
	return nil
}

// Stop stops the consumer and waits for in-flight direct notifications
func (s *MQConsumerServer) Stop(ctx context.Context) error {
	s.notifier.Wait()
	if !s.enabled || s.c == nil {
		return nil
	}
	s.log.Info("Stopping MQConsumerServer")
	return s.c.Shutdown()
}

func (s *MQConsumerServer) handler(ctx context.Context, msgs ...*primitive.MessageExt) (consumer.ConsumeResult, error) {
	for _, msg := range msgs {
		var n biz.Notification
		if err := json.Unmarshal(msg.Body, &n); err != nil {
			// 无法解析的消息重试也没有意义
			s.log.Errorf("Unmarshal notification failed: %v, body: %s", err, string(msg.Body))
			continue
		}
		if err := s.notifier.Deliver(ctx, &n); err != nil {
			s.log.Errorf("Deliver notification failed: tenant_id=%s, order_id=%s, kind=%s, error=%v", n.TenantID, n.OrderID, n.Kind, err)
			return consumer.ConsumeRetryLater, nil
		}
	}
	return consumer.ConsumeSuccess, nil
}
