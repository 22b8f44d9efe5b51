package data

import (
	"context"
	"errors"
	"strings"
	"time"

	"recharge-service/internal/biz"
	"recharge-service/internal/constants"
	"recharge-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	defaultPaymentIndexTTL = 72 * time.Hour
	paymentIndexTimeout    = time.Second
)

// paymentIndex 支付ID -> 租户/订单索引
// Redis 作为缓存，customer_order.payment_id 唯一索引作为权威来源
type paymentIndex struct {
	data *Data
	ttl  time.Duration
	log  *log.Helper
}

// NewPaymentIndex 创建支付ID索引
func NewPaymentIndex(data *Data, logger log.Logger) biz.PaymentIndex {
	ttl := defaultPaymentIndexTTL
	if c := data.conf; c != nil && c.Recharge != nil && c.Recharge.PaymentIndexTtl.AsDuration() > 0 {
		ttl = c.Recharge.PaymentIndexTtl.AsDuration()
	}
	return &paymentIndex{
		data: data,
		ttl:  ttl,
		log:  log.NewHelper(logger),
	}
}

func (p *paymentIndex) Resolve(ctx context.Context, paymentID string) (*biz.PaymentRef, error) {
	if ref := p.fromCache(ctx, paymentID); ref != nil {
		return ref, nil
	}

	var m model.Order
	err := p.data.DB(ctx).Select("order_id", "tenant_id", "payment_id").
		Where("payment_id = ?", paymentID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	ref := &biz.PaymentRef{PaymentID: m.PaymentID, TenantID: m.TenantID, OrderID: m.OrderID}
	p.Remember(ctx, ref)
	return ref, nil
}

func (p *paymentIndex) Remember(ctx context.Context, ref *biz.PaymentRef) {
	if p.data.rdb == nil || ref == nil {
		return
	}
	cacheCtx, cancel := context.WithTimeout(ctx, paymentIndexTimeout)
	defer cancel()
	if err := p.data.rdb.Set(cacheCtx, constants.RedisKeyPaymentIndex+ref.PaymentID, ref.TenantID+":"+ref.OrderID, p.ttl).Err(); err != nil {
		// 缓存失败不影响主流程，Resolve 会回源数据库
		p.log.Warnf("Cache payment index failed: payment_id=%s, error=%v", ref.PaymentID, err)
	}
}

func (p *paymentIndex) Forget(ctx context.Context, paymentID string) {
	if p.data.rdb == nil || paymentID == "" {
		return
	}
	cacheCtx, cancel := context.WithTimeout(ctx, paymentIndexTimeout)
	defer cancel()
	if err := p.data.rdb.Del(cacheCtx, constants.RedisKeyPaymentIndex+paymentID).Err(); err != nil {
		// 残留的缓存在 webhook 中按 UNMATCHED 处理
		p.log.Warnf("Evict payment index failed: payment_id=%s, error=%v", paymentID, err)
	}
}

func (p *paymentIndex) fromCache(ctx context.Context, paymentID string) *biz.PaymentRef {
	if p.data.rdb == nil {
		return nil
	}
	cacheCtx, cancel := context.WithTimeout(ctx, paymentIndexTimeout)
	defer cancel()
	val, err := p.data.rdb.Get(cacheCtx, constants.RedisKeyPaymentIndex+paymentID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.log.Warnf("Read payment index failed: payment_id=%s, error=%v", paymentID, err)
		}
		return nil
	}
	tenantID, orderID, ok := strings.Cut(val, ":")
	if !ok || tenantID == "" || orderID == "" {
		return nil
	}
	return &biz.PaymentRef{PaymentID: paymentID, TenantID: tenantID, OrderID: orderID}
}
