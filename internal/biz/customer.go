package biz

import (
	"context"
	"strings"
	"time"

	rechargeErrors "recharge-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// Customer 客户领域对象
type Customer struct {
	ID        string
	TenantID  string
	Name      string
	Phone     string // WhatsApp 号码
	Email     string
	CreatedAt time.Time
}

// CustomerRepo 客户数据层接口
type CustomerRepo interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	// GetCustomer 不存在时返回 nil, nil
	GetCustomer(ctx context.Context, tenantID, customerID string) (*Customer, error)
	ListCustomers(ctx context.Context, tenantID string) ([]*Customer, error)
}

// CustomerUseCase 客户业务逻辑
type CustomerUseCase struct {
	repo    CustomerRepo
	tenants TenantRepo
	log     *log.Helper
}

// NewCustomerUseCase 创建客户 UseCase
func NewCustomerUseCase(repo CustomerRepo, tenants TenantRepo, logger log.Logger) *CustomerUseCase {
	return &CustomerUseCase{
		repo:    repo,
		tenants: tenants,
		log:     log.NewHelper(logger),
	}
}

// AddCustomer 新增客户
func (uc *CustomerUseCase) AddCustomer(ctx context.Context, tenantID, name, phone, email string) (*Customer, error) {
	if _, err := mustGetTenant(ctx, uc.tenants, tenantID); err != nil {
		return nil, err
	}
	c := &Customer{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Name:     strings.TrimSpace(name),
		Phone:    strings.TrimSpace(phone),
		Email:    strings.TrimSpace(email),
	}
	if c.Name == "" || c.Phone == "" {
		return nil, rechargeErrors.Newf(rechargeErrors.ErrCodeInvalidArgument, "nome e telefone são obrigatórios")
	}
	if err := uc.repo.CreateCustomer(ctx, c); err != nil {
		uc.log.Errorf("CreateCustomer failed: tenant_id=%s, error=%v", tenantID, err)
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	return c, nil
}

// GetCustomer 获取客户
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, tenantID, customerID string) (*Customer, error) {
	c, err := uc.repo.GetCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	if c == nil {
		return nil, rechargeErrors.New(rechargeErrors.ErrCodeCustomerNotFound)
	}
	return c, nil
}

// ListCustomers 列出租户的客户
func (uc *CustomerUseCase) ListCustomers(ctx context.Context, tenantID string) ([]*Customer, error) {
	list, err := uc.repo.ListCustomers(ctx, tenantID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	return list, nil
}
