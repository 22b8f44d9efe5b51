package main

import "recharge-service/internal/biz"

// CronApp Cron 应用结构
type CronApp struct {
	webhookUsecase *biz.WebhookUseCase
	notifier       *biz.NotificationUseCase
}
