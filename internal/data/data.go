package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"recharge-service/internal/biz"
	"recharge-service/internal/conf"
	"recharge-service/internal/constants"
	"recharge-service/internal/data/model"
	rechargeErrors "recharge-service/internal/errors"
	"recharge-service/internal/metrics"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/apache/rocketmq-client-go/v2/producer"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
	"github.com/google/wire"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewDB,
	NewRedis,
	NewRedsync,
	NewMQProducer,
	NewData,
	NewTenantTx,
	NewTenantRepo,
	NewCustomerRepo,
	NewAppRepo,
	NewCodeRepo,
	NewOrderRepo,
	NewWebhookEventRepo,
	NewPaymentIndex,
	NewPaymentIntentClient,
	NewMessageGateway,
	NewNotificationQueue,
)

const defaultLockExpiry = 10 * time.Second

// Data 数据层结构体
// rdb、rs、mq 均可为 nil：未配置 Redis 时租户锁退化为进程内锁，未启用 RocketMQ 时通知直接发送
type Data struct {
	db         *gorm.DB
	rdb        *redis.Client
	rs         *redsync.Redsync
	mq         rocketmq.Producer
	conf       *conf.Bootstrap
	lockExpiry time.Duration
	locks      sync.Map // tenantID -> chan struct{}
	log        *log.Helper
	metrics    *metrics.RechargeMetrics
}

// NewDB 创建数据库连接，支持 mysql 与 sqlite
func NewDB(c *conf.Bootstrap) (*gorm.DB, error) {
	if c.Data == nil || c.Data.Database == nil {
		return nil, fmt.Errorf("database config is nil")
	}
	dc := c.Data.Database

	var dialector gorm.Dialector
	switch dc.Driver {
	case "", "mysql":
		dialector = mysql.Open(dc.Source)
	case "sqlite":
		dialector = sqlite.Open(dc.Source)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", dc.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if dc.Driver == "sqlite" {
		// sqlite 不支持并发写，所有操作串行到一个连接上
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if dc.AutoMigrate {
		if err := db.AutoMigrate(model.All()...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return db, nil
}

// NewRedis 创建 Redis 连接，未配置地址时返回 nil
func NewRedis(c *conf.Bootstrap) (*redis.Client, error) {
	if c.Data == nil || c.Data.Redis == nil || c.Data.Redis.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Data.Redis.Addr,
		Password:     c.Data.Redis.Password,
		DB:           c.Data.Redis.Db,
		ReadTimeout:  c.Data.Redis.ReadTimeout.AsDuration(),
		WriteTimeout: c.Data.Redis.WriteTimeout.AsDuration(),
	})

	// 测试连接
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// NewRedsync 基于 Redis 创建分布式锁，Redis 未启用时返回 nil
func NewRedsync(rdb *redis.Client) *redsync.Redsync {
	if rdb == nil {
		return nil
	}
	return redsync.New(goredis.NewPool(rdb))
}

// NewMQProducer 创建通知队列生产者，未启用时返回 nil
func NewMQProducer(c *conf.Bootstrap, logger log.Logger) (rocketmq.Producer, func(), error) {
	if c.Data == nil || c.Data.Rocketmq == nil || !c.Data.Rocketmq.Enabled {
		return nil, func() {}, nil
	}
	mc := c.Data.Rocketmq

	p, err := rocketmq.NewProducer(
		producer.WithNsResolver(primitive.NewPassthroughResolver(mc.NameServers)),
		producer.WithRetry(int(mc.RetryTimes)),
		producer.WithGroupName(mc.GroupName),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create rocketmq producer: %w", err)
	}
	if err := p.Start(); err != nil {
		return nil, nil, fmt.Errorf("start rocketmq producer: %w", err)
	}

	cleanup := func() {
		if err := p.Shutdown(); err != nil {
			log.NewHelper(logger).Errorf("failed to shutdown rocketmq producer: %v", err)
		}
	}
	return p, cleanup, nil
}

// NewData 创建数据层实例
func NewData(c *conf.Bootstrap, logger log.Logger, db *gorm.DB, rdb *redis.Client, rs *redsync.Redsync, mq rocketmq.Producer) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	cleanup := func() {
		helper.Info("closing the data resources")
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				helper.Errorf("failed to close redis: %v", err)
			}
		}
	}

	lockExpiry := defaultLockExpiry
	if c != nil && c.Recharge != nil && c.Recharge.LockExpiry.AsDuration() > 0 {
		lockExpiry = c.Recharge.LockExpiry.AsDuration()
	}

	return &Data{
		db:         db,
		rdb:        rdb,
		rs:         rs,
		mq:         mq,
		conf:       c,
		lockExpiry: lockExpiry,
		log:        helper,
		metrics:    metrics.GetMetrics(),
	}, cleanup, nil
}

type txKey struct{}

// txScope 当前 ctx 所在的租户事务
type txScope struct {
	tenantID string
	tx       *gorm.DB
}

// DB 返回 ctx 中的事务，不在事务中时返回普通连接
func (d *Data) DB(ctx context.Context) *gorm.DB {
	if s, ok := ctx.Value(txKey{}).(*txScope); ok {
		return s.tx
	}
	return d.db.WithContext(ctx)
}

// NewTenantTx 创建租户级事务
func NewTenantTx(d *Data) biz.TenantTx {
	return d
}

// InTenantTx 获取租户锁后在数据库事务中执行 fn
func (d *Data) InTenantTx(ctx context.Context, tenantID string, fn func(ctx context.Context) error) error {
	if s, ok := ctx.Value(txKey{}).(*txScope); ok {
		if s.tenantID != tenantID {
			return fmt.Errorf("tenant transaction %s cannot nest tenant %s", s.tenantID, tenantID)
		}
		return fn(ctx)
	}

	unlock, err := d.lockTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	defer unlock()

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, &txScope{tenantID: tenantID, tx: tx}))
	})
}

// lockTenant 获取租户锁：配置了 Redis 时使用 redsync，否则使用进程内信号量
func (d *Data) lockTenant(ctx context.Context, tenantID string) (func(), error) {
	lockStartTime := time.Now()
	unlock, err := d.acquire(ctx, tenantID)
	if d.metrics != nil {
		result := constants.ResultSuccess
		if err != nil {
			result = constants.ResultFailed
		}
		d.metrics.LockAcquireTotal.WithLabelValues(result).Inc()
		d.metrics.LockAcquireDuration.Observe(time.Since(lockStartTime).Seconds())
	}
	if err != nil {
		d.log.Errorf("Failed to acquire tenant lock: tenant_id=%s, error=%v", tenantID, err)
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeLockFailed)
	}
	return unlock, nil
}

func (d *Data) acquire(ctx context.Context, tenantID string) (func(), error) {
	if d.rs != nil {
		mutex := d.rs.NewMutex(constants.RedisKeyTenantLock+tenantID, redsync.WithExpiry(d.lockExpiry))
		if err := mutex.LockContext(ctx); err != nil {
			return nil, err
		}
		return func() {
			if ok, err := mutex.Unlock(); !ok || err != nil {
				d.log.Warnf("Failed to unlock tenant: tenant_id=%s, error=%v", tenantID, err)
			}
		}, nil
	}

	v, _ := d.locks.LoadOrStore(tenantID, make(chan struct{}, 1))
	sem := v.(chan struct{})
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
