package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recharge-service/internal/conf"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

const (
	defaultReconcileSpec = "0 */5 * * * *"
	reconcileTimeout     = 4 * time.Minute
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/config.yaml", "config path, eg: -conf config.yaml")
}

// newLogger 创建 logger
func newLogger() log.Logger {
	return log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "recharge-cron",
	)
}

func main() {
	flag.Parse()

	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	logger := newLogger()
	logHelper := log.NewHelper(logger)

	app, cleanup, err := wireApp(&bc, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	spec := defaultReconcileSpec
	if bc.Recharge != nil && bc.Recharge.Reconcile != nil && bc.Recharge.Reconcile.Cron != "" {
		spec = bc.Recharge.Reconcile.Cron
	}

	// 创建定时任务调度器（支持秒级调度），上一轮未结束时跳过本轮
	cronScheduler := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	_, err = cronScheduler.AddFunc(spec, func() {
		logHelper.Info("[CRON] Starting pending payment reconciliation...")
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		handled, err := app.webhookUsecase.ReconcilePending(ctx)
		if err != nil {
			logHelper.Errorf("[CRON] Error reconciling pending payments: %v", err)
			return
		}
		logHelper.Infof("[CRON] Reconciliation finished: handled=%d", handled)
	})
	if err != nil {
		logHelper.Errorf("Failed to add reconcile job: spec=%s, error=%v", spec, err)
		return
	}

	cronScheduler.Start()
	logHelper.Infof("Cron jobs started: pending payment reconciliation [%s]", spec)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logHelper.Info("Shutting down gracefully...")

	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		logHelper.Info("Cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		logHelper.Info("Cron jobs forced to stop after timeout")
	}

	// 等待对账过程中触发的客户通知发送完成
	app.notifier.Wait()
}
