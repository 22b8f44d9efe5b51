package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	"recharge-service/internal/constants"
	rechargeErrors "recharge-service/internal/errors"
	"recharge-service/internal/metrics"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem 订单项，创建后不可修改
type OrderItem struct {
	ID        string
	OrderID   string
	AppID     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Order 订单领域对象
// 状态只允许 pending -> completed 或 pending -> cancelled；
// completed 时 AllocatedCodes 的数量等于各订单项数量之和
type Order struct {
	ID             string
	TenantID       string
	CustomerID     string
	Items          []*OrderItem
	Total          decimal.Decimal // 创建时计算一次
	Status         string
	PaymentStatus  string
	PaymentID      string // 创建时写入，不可修改，webhook 唯一关联键
	PixCode        string
	AllocatedCodes []string // 分配的充值码ID，按分配顺序
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// Number 展示给客户的订单号
func (o *Order) Number() string {
	if len(o.ID) <= constants.OrderNumberLength {
		return o.ID
	}
	return o.ID[:constants.OrderNumberLength]
}

// OrderTotal 计算订单总额 Σ quantity × unitPrice
func OrderTotal(items []*OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// OrderRepo 订单数据层接口
type OrderRepo interface {
	// CreateOrder 同时写入订单项
	CreateOrder(ctx context.Context, o *Order) error
	// GetOrder 不存在时返回 nil, nil
	GetOrder(ctx context.Context, tenantID, orderID string) (*Order, error)
	// GetOrderForUpdate 事务内加行锁读取，不存在时返回 nil, nil
	GetOrderForUpdate(ctx context.Context, tenantID, orderID string) (*Order, error)
	ListOrders(ctx context.Context, tenantID string) ([]*Order, error)
	// ListStalePending 所有租户中创建时间早于 before 的待处理订单（支付 pending，或已 approved 但未完成）
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]*Order, error)
	// MarkCompleted 仅当 status = pending 时写入分配记录并置为 completed，返回受影响行数
	MarkCompleted(ctx context.Context, tenantID, orderID string, codeIDs []string, completedAt time.Time) (int64, error)
	// TransitionStatus 仅当 status = from 时更新，paymentStatus 为空则不修改支付状态
	TransitionStatus(ctx context.Context, tenantID, orderID, from, to, paymentStatus string) (int64, error)
	SetPaymentStatus(ctx context.Context, tenantID, orderID, paymentStatus string) error
	// DeleteOrder 仅删除未完成的订单，返回受影响行数
	DeleteOrder(ctx context.Context, tenantID, orderID string) (int64, error)
}

// OrderUseCase 订单业务逻辑
type OrderUseCase struct {
	orders    OrderRepo
	customers CustomerRepo
	tenants   TenantRepo
	apps      AppRepo
	codes     CodeRepo
	inventory *InventoryUseCase
	payments  PaymentIntentClient
	index     PaymentIndex
	tx        TenantTx
	notifier  *NotificationUseCase
	log       *log.Helper
	metrics   *metrics.RechargeMetrics
}

// NewOrderUseCase 创建订单 UseCase
func NewOrderUseCase(
	orders OrderRepo,
	customers CustomerRepo,
	tenants TenantRepo,
	apps AppRepo,
	codes CodeRepo,
	inventory *InventoryUseCase,
	payments PaymentIntentClient,
	index PaymentIndex,
	tx TenantTx,
	notifier *NotificationUseCase,
	logger log.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orders:    orders,
		customers: customers,
		tenants:   tenants,
		apps:      apps,
		codes:     codes,
		inventory: inventory,
		payments:  payments,
		index:     index,
		tx:        tx,
		notifier:  notifier,
		log:       log.NewHelper(logger),
		metrics:   metrics.GetMetrics(),
	}
}

// CreateOrder 创建订单
// 先向支付服务创建 PIX 支付，成功后才持久化订单；支付失败时不创建订单并返回 PAYMENT_FAILED
func (uc *OrderUseCase) CreateOrder(ctx context.Context, tenantID, customerID string, items []*OrderItem) (*Order, error) {
	startTime := time.Now()
	order, err := uc.createOrder(ctx, tenantID, customerID, items)
	if uc.metrics != nil {
		uc.metrics.OrderCreateDuration.Observe(time.Since(startTime).Seconds())
		result := constants.ResultSuccess
		if err != nil {
			result = constants.ResultFailed
		}
		uc.metrics.OrderCreateTotal.WithLabelValues(result).Inc()
	}
	return order, err
}

func (uc *OrderUseCase) createOrder(ctx context.Context, tenantID, customerID string, items []*OrderItem) (*Order, error) {
	tenant, err := mustGetTenant(ctx, uc.tenants, tenantID)
	if err != nil {
		return nil, err
	}
	customer, err := uc.customers.GetCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	if customer == nil {
		return nil, rechargeErrors.New(rechargeErrors.ErrCodeCustomerNotFound)
	}
	if !tenant.Payment.Configured() {
		return nil, rechargeErrors.New(rechargeErrors.ErrCodePaymentConfigMissing)
	}

	apps, err := uc.validateItems(ctx, tenantID, items)
	if err != nil {
		return nil, err
	}

	orderID := uuid.NewString()
	order := &Order{
		ID:            orderID,
		TenantID:      tenantID,
		CustomerID:    customerID,
		Status:        constants.OrderStatusPending,
		PaymentStatus: constants.PaymentStatusPending,
	}
	for _, item := range items {
		order.Items = append(order.Items, &OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			AppID:     item.AppID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	order.Total = OrderTotal(order.Items)

	description := "Pedido #" + order.Number()
	intent, err := uc.createIntent(ctx, tenant.Payment, &CreateIntentRequest{
		Amount:          order.Total,
		Description:     description,
		PayerEmail:      customer.Email,
		PayerName:       customer.Name,
		NotificationURL: tenant.Payment.WebhookURL,
	})
	if err != nil {
		uc.log.Errorf("CreateIntent failed: tenant_id=%s, order_id=%s, error=%v", tenantID, orderID, err)
		return nil, paymentFailed(err)
	}

	order.PaymentID = intent.ProviderPaymentID
	order.PixCode = intent.DisplayToken
	order.CreatedAt = time.Now()
	if err := uc.orders.CreateOrder(ctx, order); err != nil {
		// 支付服务侧的意图会随 PIX 过期失效
		uc.log.Errorf("CreateOrder failed after intent: tenant_id=%s, order_id=%s, payment_id=%s, error=%v",
			tenantID, orderID, order.PaymentID, err)
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	uc.index.Remember(ctx, &PaymentRef{PaymentID: order.PaymentID, TenantID: tenantID, OrderID: orderID})
	uc.log.Infof("Order created: tenant_id=%s, order_id=%s, payment_id=%s, total=%s",
		tenantID, orderID, order.PaymentID, order.Total.StringFixed(2))

	lines := make([]SummaryLine, 0, len(order.Items))
	for _, item := range order.Items {
		name := constants.DefaultAppName
		if a, ok := apps[item.AppID]; ok {
			name = a.Name
		}
		lines = append(lines, SummaryLine{AppName: name, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	uc.notifier.Dispatch(ctx,
		&Notification{
			TenantID:  tenantID,
			OrderID:   orderID,
			Recipient: customer.Phone,
			Kind:      constants.NotificationKindPix,
			Body:      FormatPixMessage(order.Total, description, order.PixCode),
		},
		&Notification{
			TenantID:  tenantID,
			OrderID:   orderID,
			Recipient: customer.Phone,
			Kind:      constants.NotificationKindSummary,
			Body:      FormatOrderSummary(customer.Name, order.Number(), lines, order.Total),
		},
	)
	return order, nil
}

func (uc *OrderUseCase) validateItems(ctx context.Context, tenantID string, items []*OrderItem) (map[string]*App, error) {
	if len(items) == 0 {
		return nil, rechargeErrors.Newf(rechargeErrors.ErrCodeInvalidArgument, "o pedido precisa de pelo menos um item")
	}
	appIDs := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil || strings.TrimSpace(item.AppID) == "" {
			return nil, rechargeErrors.Newf(rechargeErrors.ErrCodeInvalidArgument, "aplicativo do item é obrigatório")
		}
		if item.Quantity < 1 {
			return nil, rechargeErrors.Newf(rechargeErrors.ErrCodeInvalidArgument, "quantidade deve ser maior que zero")
		}
		if item.UnitPrice.IsNegative() {
			return nil, rechargeErrors.Newf(rechargeErrors.ErrCodeInvalidArgument, "preço unitário não pode ser negativo")
		}
		// 金额列为 decimal(12,2)
		if !item.UnitPrice.Equal(item.UnitPrice.Round(2)) {
			return nil, rechargeErrors.Newf(rechargeErrors.ErrCodeInvalidArgument, "preço unitário deve ter no máximo duas casas decimais")
		}
		appIDs = append(appIDs, item.AppID)
	}
	apps, err := uc.apps.GetAppsByIDs(ctx, tenantID, uniqueStrings(appIDs))
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	for _, id := range appIDs {
		if _, ok := apps[id]; !ok {
			e := rechargeErrors.New(rechargeErrors.ErrCodeAppNotFound)
			e.Metadata["app_id"] = id
			return nil, e
		}
	}
	return apps, nil
}

func (uc *OrderUseCase) createIntent(ctx context.Context, cred PaymentCredential, req *CreateIntentRequest) (*PaymentIntent, error) {
	startTime := time.Now()
	intent, err := uc.payments.CreateIntent(ctx, cred, req)
	if uc.metrics != nil {
		uc.metrics.PaymentIntentDuration.Observe(time.Since(startTime).Seconds())
		result := constants.ResultSuccess
		if err != nil {
			result = constants.ResultFailed
		}
		uc.metrics.PaymentIntentTotal.WithLabelValues(result).Inc()
	}
	return intent, err
}

// paymentFailed 包装支付服务错误，提示信息沿用支付服务错误
func paymentFailed(cause error) error {
	e := rechargeErrors.Wrap(cause, rechargeErrors.ErrCodePaymentFailed)
	var ke *kerrors.Error
	if errors.As(cause, &ke) {
		e.Metadata["provider_reason"] = ke.Reason
		if ke.Message != "" {
			e.Message = ke.Message
		}
	}
	return e
}

// CompleteOrder 完成订单：分配充值码并置为 completed
// 重复调用返回 ALREADY_COMPLETED 且不会再次分配；库存不足时订单保持 pending，不提交任何分配
func (uc *OrderUseCase) CompleteOrder(ctx context.Context, tenantID, orderID string) (*Order, error) {
	order, err := uc.completeOrder(ctx, tenantID, orderID)
	if uc.metrics != nil {
		uc.metrics.OrderCompleteTotal.WithLabelValues(completeResult(err)).Inc()
		if err == nil {
			uc.metrics.CodesAllocatedTotal.Add(float64(len(order.AllocatedCodes)))
		}
	}
	return order, err
}

func (uc *OrderUseCase) completeOrder(ctx context.Context, tenantID, orderID string) (*Order, error) {
	// 事务外的读取只用于快速失败，事务内会重新校验
	order, err := uc.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkCompletable(order); err != nil {
		return nil, err
	}

	var allocated []*RechargeCode
	err = uc.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		locked, err := uc.orders.GetOrderForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
		}
		if locked == nil {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotFound)
		}
		if err := checkCompletable(locked); err != nil {
			return err
		}

		now := time.Now()
		codes, err := uc.inventory.allocate(ctx, tenantID, orderID, NeededCounts(locked.Items), now)
		if err != nil {
			return err
		}
		ids := make([]string, len(codes))
		for i, c := range codes {
			ids[i] = c.ID
		}
		n, err := uc.orders.MarkCompleted(ctx, tenantID, orderID, ids, now)
		if err != nil {
			return rechargeErrors.Ensure(err)
		}
		if n == 0 {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotPending)
		}

		locked.Status = constants.OrderStatusCompleted
		locked.AllocatedCodes = ids
		locked.CompletedAt = &now
		order = locked
		allocated = codes
		return nil
	})
	if err != nil {
		if rechargeErrors.IsReason(err, rechargeErrors.ReasonInsufficientInventory) {
			uc.log.Warnf("CompleteOrder insufficient inventory: tenant_id=%s, order_id=%s, error=%v", tenantID, orderID, err)
		} else if !rechargeErrors.IsReason(err, rechargeErrors.ReasonAlreadyCompleted) {
			uc.log.Errorf("CompleteOrder failed: tenant_id=%s, order_id=%s, error=%v", tenantID, orderID, err)
		}
		return nil, rechargeErrors.Ensure(err)
	}

	uc.log.Infof("Order completed: tenant_id=%s, order_id=%s, codes=%d", tenantID, orderID, len(allocated))
	uc.notifyCodes(ctx, order, allocated)
	return order, nil
}

func checkCompletable(o *Order) error {
	switch o.Status {
	case constants.OrderStatusCompleted:
		return rechargeErrors.New(rechargeErrors.ErrCodeOrderAlreadyCompleted)
	case constants.OrderStatusCancelled:
		return rechargeErrors.New(rechargeErrors.ErrCodeOrderCancelled)
	}
	return nil
}

func completeResult(err error) string {
	switch {
	case err == nil:
		return constants.ResultSuccess
	case rechargeErrors.IsReason(err, rechargeErrors.ReasonAlreadyCompleted):
		return "already_completed"
	case rechargeErrors.IsReason(err, rechargeErrors.ReasonInsufficientInventory):
		return "insufficient"
	}
	return constants.ResultFailed
}

func (uc *OrderUseCase) notifyCodes(ctx context.Context, order *Order, codes []*RechargeCode) {
	customer, err := uc.customers.GetCustomer(ctx, order.TenantID, order.CustomerID)
	if err != nil || customer == nil {
		uc.log.Warnf("Skip codes notification, customer unavailable: tenant_id=%s, order_id=%s, error=%v", order.TenantID, order.ID, err)
		return
	}
	appIDs := make([]string, 0, len(codes))
	for _, c := range codes {
		appIDs = append(appIDs, c.AppID)
	}
	apps, err := uc.apps.GetAppsByIDs(ctx, order.TenantID, uniqueStrings(appIDs))
	if err != nil {
		uc.log.Warnf("GetAppsByIDs failed: tenant_id=%s, order_id=%s, error=%v", order.TenantID, order.ID, err)
	}
	delivered := make([]DeliveredCode, 0, len(codes))
	for _, c := range codes {
		name := constants.DefaultAppName
		if a, ok := apps[c.AppID]; ok {
			name = a.Name
		}
		delivered = append(delivered, DeliveredCode{AppName: name, Code: c.Code})
	}
	uc.notifier.Dispatch(ctx, &Notification{
		TenantID:  order.TenantID,
		OrderID:   order.ID,
		Recipient: customer.Phone,
		Kind:      constants.NotificationKindCodes,
		Body:      FormatCodesMessage(customer.Name, order.Number(), delivered),
	})
}

// RejectOrder 支付被拒绝：pending -> cancelled 并通知客户
// 已取消的订单只补记支付状态，不重复通知；已完成的订单保持不变，返回的订单状态仍为 completed
func (uc *OrderUseCase) RejectOrder(ctx context.Context, tenantID, orderID string) (*Order, error) {
	var (
		order   *Order
		changed bool
	)
	err := uc.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		o, err := uc.orders.GetOrderForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
		}
		if o == nil {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotFound)
		}
		order = o
		switch o.Status {
		case constants.OrderStatusCompleted:
			uc.log.Warnf("Rejection for completed order ignored: tenant_id=%s, order_id=%s", tenantID, orderID)
			return nil
		case constants.OrderStatusCancelled:
			if o.PaymentStatus == constants.PaymentStatusRejected {
				return nil
			}
			o.PaymentStatus = constants.PaymentStatusRejected
			return rechargeErrors.Ensure(uc.orders.SetPaymentStatus(ctx, tenantID, orderID, constants.PaymentStatusRejected))
		}
		n, err := uc.orders.TransitionStatus(ctx, tenantID, orderID,
			constants.OrderStatusPending, constants.OrderStatusCancelled, constants.PaymentStatusRejected)
		if err != nil {
			return rechargeErrors.Ensure(err)
		}
		if n == 0 {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotPending)
		}
		o.Status = constants.OrderStatusCancelled
		o.PaymentStatus = constants.PaymentStatusRejected
		changed = true
		return nil
	})
	if err != nil {
		uc.log.Errorf("RejectOrder failed: tenant_id=%s, order_id=%s, error=%v", tenantID, orderID, err)
		return nil, rechargeErrors.Ensure(err)
	}
	if !changed {
		return order, nil
	}

	if uc.metrics != nil {
		uc.metrics.OrderCancelTotal.WithLabelValues("rejected").Inc()
	}
	uc.log.Infof("Order cancelled by payment rejection: tenant_id=%s, order_id=%s", tenantID, orderID)
	customer, err := uc.customers.GetCustomer(ctx, tenantID, order.CustomerID)
	if err != nil || customer == nil {
		uc.log.Warnf("Skip rejection notification, customer unavailable: tenant_id=%s, order_id=%s, error=%v", tenantID, orderID, err)
		return order, nil
	}
	uc.notifier.Dispatch(ctx, &Notification{
		TenantID:  tenantID,
		OrderID:   orderID,
		Recipient: customer.Phone,
		Kind:      constants.NotificationKindRejected,
		Body:      FormatRejectionMessage(customer.Name, order.Number()),
	})
	return order, nil
}

// CancelOrder 运营手动取消待处理订单，不修改支付状态
func (uc *OrderUseCase) CancelOrder(ctx context.Context, tenantID, orderID string) (*Order, error) {
	var (
		order   *Order
		changed bool
	)
	err := uc.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		o, err := uc.orders.GetOrderForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
		}
		if o == nil {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotFound)
		}
		order = o
		switch o.Status {
		case constants.OrderStatusCancelled:
			return nil
		case constants.OrderStatusCompleted:
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotPending)
		}
		n, err := uc.orders.TransitionStatus(ctx, tenantID, orderID, constants.OrderStatusPending, constants.OrderStatusCancelled, "")
		if err != nil {
			return rechargeErrors.Ensure(err)
		}
		if n == 0 {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotPending)
		}
		o.Status = constants.OrderStatusCancelled
		changed = true
		return nil
	})
	if err != nil {
		return nil, rechargeErrors.Ensure(err)
	}
	if changed {
		if uc.metrics != nil {
			uc.metrics.OrderCancelTotal.WithLabelValues("operator").Inc()
		}
		uc.log.Infof("Order cancelled by operator: tenant_id=%s, order_id=%s", tenantID, orderID)
	}
	return order, nil
}

// MarkPaymentApproved 记录支付成功（幂等），在分配充值码之前调用，
// 使得已付款但库存不足的订单可见。只改写 pending 的支付状态，已取消订单不变
func (uc *OrderUseCase) MarkPaymentApproved(ctx context.Context, tenantID, orderID string) error {
	err := uc.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		o, err := uc.orders.GetOrderForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
		}
		if o == nil {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotFound)
		}
		if o.Status == constants.OrderStatusCancelled || o.PaymentStatus != constants.PaymentStatusPending {
			return nil
		}
		return rechargeErrors.Ensure(uc.orders.SetPaymentStatus(ctx, tenantID, orderID, constants.PaymentStatusApproved))
	})
	return rechargeErrors.Ensure(err)
}

// DeleteOrder 删除未完成的订单，已完成订单的分配记录永久保留
func (uc *OrderUseCase) DeleteOrder(ctx context.Context, tenantID, orderID string) error {
	var paymentID string
	err := uc.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		o, err := uc.orders.GetOrderForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
		}
		if o == nil {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotFound)
		}
		if o.Status == constants.OrderStatusCompleted {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotPending)
		}
		paymentID = o.PaymentID
		n, err := uc.orders.DeleteOrder(ctx, tenantID, orderID)
		if err != nil {
			return rechargeErrors.Ensure(err)
		}
		if n == 0 {
			return rechargeErrors.New(rechargeErrors.ErrCodeOrderNotPending)
		}
		return nil
	})
	if err != nil {
		return rechargeErrors.Ensure(err)
	}
	uc.index.Forget(ctx, paymentID)
	uc.log.Infof("Order deleted: tenant_id=%s, order_id=%s, payment_id=%s", tenantID, orderID, paymentID)
	return nil
}

// GetOrder 获取订单
func (uc *OrderUseCase) GetOrder(ctx context.Context, tenantID, orderID string) (*Order, error) {
	o, err := uc.orders.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	if o == nil {
		return nil, rechargeErrors.New(rechargeErrors.ErrCodeOrderNotFound)
	}
	return o, nil
}

// ListOrders 列出租户订单
func (uc *OrderUseCase) ListOrders(ctx context.Context, tenantID string) ([]*Order, error) {
	list, err := uc.orders.ListOrders(ctx, tenantID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	return list, nil
}

// AllocatedCodes 订单已分配的充值码详情
func (uc *OrderUseCase) AllocatedCodes(ctx context.Context, order *Order) ([]*RechargeCode, error) {
	if len(order.AllocatedCodes) == 0 {
		return nil, nil
	}
	codes, err := uc.codes.GetCodesByIDs(ctx, order.TenantID, order.AllocatedCodes)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	return codes, nil
}
