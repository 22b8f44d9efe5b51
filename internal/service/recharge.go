package service

import (
	"context"

	"recharge-service/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
)

// RechargeService 面向卖家后台的服务
type RechargeService struct {
	tenants   *biz.TenantUseCase
	customers *biz.CustomerUseCase
	catalog   *biz.CatalogUseCase
	inventory *biz.InventoryUseCase
	orders    *biz.OrderUseCase
	log       *log.Helper
}

// NewRechargeService 创建 RechargeService
func NewRechargeService(
	tenants *biz.TenantUseCase,
	customers *biz.CustomerUseCase,
	catalog *biz.CatalogUseCase,
	inventory *biz.InventoryUseCase,
	orders *biz.OrderUseCase,
	logger log.Logger,
) *RechargeService {
	return &RechargeService{
		tenants:   tenants,
		customers: customers,
		catalog:   catalog,
		inventory: inventory,
		orders:    orders,
		log:       log.NewHelper(logger),
	}
}

// RegisterTenant 注册租户
func (s *RechargeService) RegisterTenant(ctx context.Context, req *RegisterTenantRequest) (*TenantReply, error) {
	t, err := s.tenants.RegisterTenant(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return toTenantReply(t), nil
}

// GetTenant 获取租户
func (s *RechargeService) GetTenant(ctx context.Context, req *TenantRequest) (*TenantReply, error) {
	t, err := s.tenants.GetTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	return toTenantReply(t), nil
}

// ConfigurePayment 配置 Mercado Pago 凭证
func (s *RechargeService) ConfigurePayment(ctx context.Context, req *ConfigurePaymentRequest) (*TenantReply, error) {
	t, err := s.tenants.ConfigurePayment(ctx, req.TenantID, req.AccessToken, req.WebhookURL)
	if err != nil {
		return nil, err
	}
	return toTenantReply(t), nil
}

// ConfigureMessaging 配置 WhatsApp 凭证
func (s *RechargeService) ConfigureMessaging(ctx context.Context, req *ConfigureMessagingRequest) (*TenantReply, error) {
	t, err := s.tenants.ConfigureMessaging(ctx, req.TenantID, req.Instance, req.APIKey)
	if err != nil {
		return nil, err
	}
	return toTenantReply(t), nil
}

// AddProduct 新增商品
func (s *RechargeService) AddProduct(ctx context.Context, req *ProductRequest) (*ProductReply, error) {
	app, err := s.catalog.AddProduct(ctx, req.TenantID, req.Name)
	if err != nil {
		return nil, err
	}
	return toProductReply(app), nil
}

// UpdateProduct 修改商品名称
func (s *RechargeService) UpdateProduct(ctx context.Context, req *ProductRequest) (*ProductReply, error) {
	app, err := s.catalog.UpdateProduct(ctx, req.TenantID, req.AppID, req.Name)
	if err != nil {
		return nil, err
	}
	return toProductReply(app), nil
}

// ListProducts 商品列表
func (s *RechargeService) ListProducts(ctx context.Context, req *TenantRequest) (*ListProductsReply, error) {
	apps, err := s.catalog.ListProducts(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	reply := &ListProductsReply{Products: make([]*ProductReply, 0, len(apps))}
	for _, a := range apps {
		reply.Products = append(reply.Products, toProductReply(a))
	}
	return reply, nil
}

// ImportCodes 批量导入充值码
func (s *RechargeService) ImportCodes(ctx context.Context, req *ImportCodesRequest) (*ImportCodesReply, error) {
	res, err := s.inventory.AddRechargeCodes(ctx, req.TenantID, req.AppID, req.Codes)
	if err != nil {
		return nil, err
	}
	reply := &ImportCodesReply{
		Added:      res.Added,
		Duplicates: make([]*DuplicateCodeReply, 0, len(res.Duplicates)),
	}
	for _, d := range res.Duplicates {
		reply.Duplicates = append(reply.Duplicates, &DuplicateCodeReply{Code: d.Code, AppName: d.AppName})
	}
	return reply, nil
}

// ListCodes 充值码列表
func (s *RechargeService) ListCodes(ctx context.Context, req *ListCodesRequest) (*ListCodesReply, error) {
	codes, err := s.inventory.ListCodes(ctx, req.TenantID, req.AppID)
	if err != nil {
		return nil, err
	}
	reply := &ListCodesReply{Codes: make([]*CodeReply, 0, len(codes))}
	for _, c := range codes {
		reply.Codes = append(reply.Codes, toCodeReply(c))
	}
	return reply, nil
}

// DeleteCode 删除未使用的充值码
func (s *RechargeService) DeleteCode(ctx context.Context, req *CodeRequest) (*EmptyReply, error) {
	if err := s.inventory.DeleteRechargeCode(ctx, req.TenantID, req.CodeID); err != nil {
		return nil, err
	}
	return &EmptyReply{}, nil
}

// Stock 库存
func (s *RechargeService) Stock(ctx context.Context, req *TenantRequest) (*StockReply, error) {
	levels, err := s.inventory.Stock(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	reply := &StockReply{Items: make([]*StockItem, 0, len(levels))}
	for _, l := range levels {
		reply.Items = append(reply.Items, &StockItem{AppID: l.AppID, AppName: l.AppName, Unused: l.Unused})
	}
	return reply, nil
}

// AddCustomer 新增客户
func (s *RechargeService) AddCustomer(ctx context.Context, req *CustomerRequest) (*CustomerReply, error) {
	c, err := s.customers.AddCustomer(ctx, req.TenantID, req.Name, req.Phone, req.Email)
	if err != nil {
		return nil, err
	}
	return toCustomerReply(c), nil
}

// ListCustomers 客户列表
func (s *RechargeService) ListCustomers(ctx context.Context, req *TenantRequest) (*ListCustomersReply, error) {
	list, err := s.customers.ListCustomers(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	reply := &ListCustomersReply{Customers: make([]*CustomerReply, 0, len(list))}
	for _, c := range list {
		reply.Customers = append(reply.Customers, toCustomerReply(c))
	}
	return reply, nil
}

// CreateOrder 创建订单并生成 PIX 支付
func (s *RechargeService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderReply, error) {
	items := make([]*biz.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item == nil {
			continue
		}
		items = append(items, &biz.OrderItem{
			AppID:     item.AppID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	o, err := s.orders.CreateOrder(ctx, req.TenantID, req.CustomerID, items)
	if err != nil {
		return nil, err
	}
	return toOrderReply(o), nil
}

// GetOrder 订单详情，已完成的订单附带分配的充值码
func (s *RechargeService) GetOrder(ctx context.Context, req *OrderRequest) (*OrderReply, error) {
	o, err := s.orders.GetOrder(ctx, req.TenantID, req.OrderID)
	if err != nil {
		return nil, err
	}
	return s.withCodes(ctx, o), nil
}

// ListOrders 订单列表
func (s *RechargeService) ListOrders(ctx context.Context, req *TenantRequest) (*ListOrdersReply, error) {
	orders, err := s.orders.ListOrders(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	reply := &ListOrdersReply{Orders: make([]*OrderReply, 0, len(orders))}
	for _, o := range orders {
		reply.Orders = append(reply.Orders, toOrderReply(o))
	}
	return reply, nil
}

// CompleteOrder 手动完成订单（管理员确认收款）
func (s *RechargeService) CompleteOrder(ctx context.Context, req *OrderRequest) (*OrderReply, error) {
	o, err := s.orders.CompleteOrder(ctx, req.TenantID, req.OrderID)
	if err != nil {
		return nil, err
	}
	return s.withCodes(ctx, o), nil
}

// CancelOrder 取消待处理订单
func (s *RechargeService) CancelOrder(ctx context.Context, req *OrderRequest) (*OrderReply, error) {
	o, err := s.orders.CancelOrder(ctx, req.TenantID, req.OrderID)
	if err != nil {
		return nil, err
	}
	return toOrderReply(o), nil
}

// DeleteOrder 删除未完成的订单
func (s *RechargeService) DeleteOrder(ctx context.Context, req *OrderRequest) (*EmptyReply, error) {
	if err := s.orders.DeleteOrder(ctx, req.TenantID, req.OrderID); err != nil {
		return nil, err
	}
	return &EmptyReply{}, nil
}

func (s *RechargeService) withCodes(ctx context.Context, o *biz.Order) *OrderReply {
	reply := toOrderReply(o)
	if len(o.AllocatedCodes) == 0 {
		return reply
	}
	codes, err := s.orders.AllocatedCodes(ctx, o)
	if err != nil {
		s.log.Warnf("AllocatedCodes failed: tenant_id=%s, order_id=%s, error=%v", o.TenantID, o.ID, err)
		return reply
	}
	for _, c := range codes {
		reply.Codes = append(reply.Codes, toCodeReply(c))
	}
	return reply
}
