package data

import (
	"context"
	"errors"
	"time"

	"recharge-service/internal/biz"
	"recharge-service/internal/constants"
	"recharge-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderRepo struct {
	data *Data
	log  *log.Helper
}

// NewOrderRepo 创建订单 repo
func NewOrderRepo(data *Data, logger log.Logger) biz.OrderRepo {
	return &orderRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *orderRepo) CreateOrder(ctx context.Context, o *biz.Order) error {
	m := &model.Order{
		OrderID:       o.ID,
		TenantID:      o.TenantID,
		CustomerID:    o.CustomerID,
		Total:         o.Total,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentID:     o.PaymentID,
		PixCode:       o.PixCode,
		CreatedAt:     o.CreatedAt,
	}
	for i, item := range o.Items {
		m.Items = append(m.Items, model.OrderItem{
			ItemID:    item.ID,
			OrderID:   o.ID,
			AppID:     item.AppID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Position:  i,
		})
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	o.CreatedAt = m.CreatedAt
	return nil
}

func (r *orderRepo) GetOrder(ctx context.Context, tenantID, orderID string) (*biz.Order, error) {
	return r.getOrder(r.data.DB(ctx), tenantID, orderID)
}

func (r *orderRepo) GetOrderForUpdate(ctx context.Context, tenantID, orderID string) (*biz.Order, error) {
	return r.getOrder(r.data.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, orderID)
}

func (r *orderRepo) getOrder(db *gorm.DB, tenantID, orderID string) (*biz.Order, error) {
	var m model.Order
	err := withDetails(db).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizOrder(&m), nil
}

func (r *orderRepo) ListOrders(ctx context.Context, tenantID string) ([]*biz.Order, error) {
	var list []model.Order
	err := withDetails(r.data.DB(ctx)).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, order_id").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toBizOrders(list), nil
}

func (r *orderRepo) ListStalePending(ctx context.Context, before time.Time, limit int) ([]*biz.Order, error) {
	var list []model.Order
	err := withDetails(r.data.DB(ctx)).
		Where("status = ? AND payment_status IN ? AND created_at < ?",
			constants.OrderStatusPending,
			[]string{constants.PaymentStatusPending, constants.PaymentStatusApproved},
			before).
		Order("created_at, order_id").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toBizOrders(list), nil
}

func (r *orderRepo) MarkCompleted(ctx context.Context, tenantID, orderID string, codeIDs []string, completedAt time.Time) (int64, error) {
	var affected int64
	err := r.data.DB(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("tenant_id = ? AND order_id = ? AND status = ?", tenantID, orderID, constants.OrderStatusPending).
			Updates(map[string]interface{}{
				"status":       constants.OrderStatusCompleted,
				"completed_at": completedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 || len(codeIDs) == 0 {
			return nil
		}

		allocations := make([]model.OrderAllocation, 0, len(codeIDs))
		for i, id := range codeIDs {
			allocations = append(allocations, model.OrderAllocation{OrderID: orderID, CodeID: id, Position: i})
		}
		return tx.Create(&allocations).Error
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (r *orderRepo) TransitionStatus(ctx context.Context, tenantID, orderID, from, to, paymentStatus string) (int64, error) {
	updates := map[string]interface{}{"status": to}
	if paymentStatus != "" {
		updates["payment_status"] = paymentStatus
	}
	result := r.data.DB(ctx).Model(&model.Order{}).
		Where("tenant_id = ? AND order_id = ? AND status = ?", tenantID, orderID, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *orderRepo) SetPaymentStatus(ctx context.Context, tenantID, orderID, paymentStatus string) error {
	return r.data.DB(ctx).Model(&model.Order{}).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Update("payment_status", paymentStatus).Error
}

func (r *orderRepo) DeleteOrder(ctx context.Context, tenantID, orderID string) (int64, error) {
	var affected int64
	err := r.data.DB(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND order_id = ? AND status <> ?", tenantID, orderID, constants.OrderStatusCompleted).
			Delete(&model.Order{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

func toBizOrder(m *model.Order) *biz.Order {
	o := &biz.Order{
		ID:             m.OrderID,
		TenantID:       m.TenantID,
		CustomerID:     m.CustomerID,
		Total:          m.Total,
		Status:         m.Status,
		PaymentStatus:  m.PaymentStatus,
		PaymentID:      m.PaymentID,
		PixCode:        m.PixCode,
		CreatedAt:      m.CreatedAt,
		CompletedAt:    m.CompletedAt,
		Items:          make([]*biz.OrderItem, 0, len(m.Items)),
		AllocatedCodes: make([]string, 0, len(m.Allocations)),
	}
	for _, item := range m.Items {
		o.Items = append(o.Items, &biz.OrderItem{
			ID:        item.ItemID,
			OrderID:   item.OrderID,
			AppID:     item.AppID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	for _, a := range m.Allocations {
		o.AllocatedCodes = append(o.AllocatedCodes, a.CodeID)
	}
	return o
}

func toBizOrders(list []model.Order) []*biz.Order {
	out := make([]*biz.Order, 0, len(list))
	for i := range list {
		out = append(out, toBizOrder(&list[i]))
	}
	return out
}
