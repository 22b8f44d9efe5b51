package data

import (
	"context"
	"errors"

	"recharge-service/internal/biz"
	"recharge-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

type customerRepo struct {
	data *Data
	log  *log.Helper
}

// NewCustomerRepo 创建客户 repo
func NewCustomerRepo(data *Data, logger log.Logger) biz.CustomerRepo {
	return &customerRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *customerRepo) CreateCustomer(ctx context.Context, c *biz.Customer) error {
	m := &model.Customer{
		CustomerID: c.ID,
		TenantID:   c.TenantID,
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	c.CreatedAt = m.CreatedAt
	return nil
}

func (r *customerRepo) GetCustomer(ctx context.Context, tenantID, customerID string) (*biz.Customer, error) {
	var m model.Customer
	err := r.data.DB(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizCustomer(&m), nil
}

func (r *customerRepo) ListCustomers(ctx context.Context, tenantID string) ([]*biz.Customer, error) {
	var list []model.Customer
	if err := r.data.DB(ctx).Where("tenant_id = ?", tenantID).Order("created_at, customer_id").Find(&list).Error; err != nil {
		return nil, err
	}
	out := make([]*biz.Customer, 0, len(list))
	for i := range list {
		out = append(out, toBizCustomer(&list[i]))
	}
	return out, nil
}

func toBizCustomer(m *model.Customer) *biz.Customer {
	return &biz.Customer{
		ID:        m.CustomerID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Phone:     m.Phone,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
	}
}
