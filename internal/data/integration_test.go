package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"recharge-service/internal/biz"
	"recharge-service/internal/conf"
	"recharge-service/internal/constants"
	rechargeErrors "recharge-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stack 基于 sqlite 与 httptest 的完整业务栈
type stack struct {
	tenants   *biz.TenantUseCase
	customers *biz.CustomerUseCase
	catalog   *biz.CatalogUseCase
	inventory *biz.InventoryUseCase
	orders    *biz.OrderUseCase
	webhooks  *biz.WebhookUseCase
	notifier  *biz.NotificationUseCase

	mu       sync.Mutex
	sent     []string
	statuses map[string]string
}

func newStack(t *testing.T) *stack {
	s := &stack{statuses: make(map[string]string)}
	var seq int64

	psp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			id := atomic.AddInt64(&seq, 1)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"id": %d, "status": "pending", "point_of_interaction": {"transaction_data": {"qr_code": "PIX-%d"}}}`, id, id)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/v1/payments/")
		s.mu.Lock()
		status := s.statuses[id]
		s.mu.Unlock()
		if status == "" {
			status = "pending"
		}
		fmt.Fprintf(w, `{"id": %s, "status": %q}`, id, status)
	}))
	t.Cleanup(psp.Close)

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.sent = append(s.sent, string(body))
		s.mu.Unlock()
	}))
	t.Cleanup(gateway.Close)

	c := testBootstrap()
	c.Recharge = &conf.Recharge{
		Psp:       &conf.Recharge_PSP{BaseUrl: psp.URL},
		Messaging: &conf.Recharge_Messaging{BaseUrl: gateway.URL},
	}
	logger := log.NewStdLogger(io.Discard)
	db, err := NewDB(c)
	require.NoError(t, err)
	d, cleanup, err := NewData(c, logger, db, nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	rc := biz.NewRechargeConfig(c)
	tenantRepo := NewTenantRepo(d, logger)
	customerRepo := NewCustomerRepo(d, logger)
	appRepo := NewAppRepo(d, logger)
	codeRepo := NewCodeRepo(d, logger)
	orderRepo := NewOrderRepo(d, logger)
	index := NewPaymentIndex(d, logger)
	payments := NewPaymentIntentClient(c, logger)
	tx := NewTenantTx(d)

	s.tenants = biz.NewTenantUseCase(tenantRepo, logger)
	s.customers = biz.NewCustomerUseCase(customerRepo, tenantRepo, logger)
	s.catalog = biz.NewCatalogUseCase(appRepo, tenantRepo, logger)
	s.inventory = biz.NewInventoryUseCase(codeRepo, appRepo, tx, logger)
	s.notifier = biz.NewNotificationUseCase(tenantRepo, NewMessageGateway(c, logger), NewNotificationQueue(d, logger), rc, logger)
	s.orders = biz.NewOrderUseCase(orderRepo, customerRepo, tenantRepo, appRepo, codeRepo, s.inventory, payments, index, tx, s.notifier, logger)
	s.webhooks = biz.NewWebhookUseCase(index, s.orders, orderRepo, tenantRepo, payments, NewWebhookEventRepo(d, logger), rc, logger)
	t.Cleanup(s.notifier.Wait)
	return s
}

func (s *stack) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func (s *stack) seed(t *testing.T) (*biz.Tenant, *biz.Customer) {
	ctx := context.Background()
	tenant, err := s.tenants.RegisterTenant(ctx, "Loja")
	require.NoError(t, err)
	_, err = s.tenants.ConfigurePayment(ctx, tenant.ID, "TEST-token", "")
	require.NoError(t, err)
	_, err = s.tenants.ConfigureMessaging(ctx, tenant.ID, "loja", "key")
	require.NoError(t, err)
	customer, err := s.customers.AddCustomer(ctx, tenant.ID, "Maria", "+55 11 99999-0000", "maria@example.com")
	require.NoError(t, err)
	return tenant, customer
}

func TestOrderLifecycle(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	tenant, customer := s.seed(t)
	app, err := s.catalog.AddProduct(ctx, tenant.ID, "Netflix")
	require.NoError(t, err)
	_, err = s.inventory.AddRechargeCodes(ctx, tenant.ID, app.ID, []string{"N1", "N2", "N3"})
	require.NoError(t, err)

	order, err := s.orders.CreateOrder(ctx, tenant.ID, customer.ID, []*biz.OrderItem{
		{AppID: app.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("25.00")},
	})
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, "PIX-1", order.PixCode)
	s.notifier.Wait()

	res, err := s.webhooks.HandlePaymentEvent(ctx, &biz.PaymentEvent{PaymentID: order.PaymentID, Status: "approved", Source: "webhook"})
	require.NoError(t, err)
	assert.Equal(t, constants.WebhookOutcomeCompleted, res.Outcome)

	res, err = s.webhooks.HandlePaymentEvent(ctx, &biz.PaymentEvent{PaymentID: order.PaymentID, Status: "approved", Source: "webhook"})
	require.NoError(t, err)
	assert.Equal(t, constants.WebhookOutcomeDuplicate, res.Outcome)

	stored, err := s.orders.GetOrder(ctx, tenant.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusCompleted, stored.Status)
	codes, err := s.orders.AllocatedCodes(ctx, stored)
	require.NoError(t, err)
	require.Len(t, codes, 2)

	stock, err := s.inventory.Stock(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stock[0].Unused)

	s.notifier.Wait()
	msgs := s.messages()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0], "PIX-1")
	assert.Contains(t, msgs[0], "5511999990000")
	assert.Contains(t, msgs[2], codes[0].Code)
}

func TestConcurrentCompletionNeverOverAllocates(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	tenant, customer := s.seed(t)
	app, err := s.catalog.AddProduct(ctx, tenant.ID, "Netflix")
	require.NoError(t, err)
	_, err = s.inventory.AddRechargeCodes(ctx, tenant.ID, app.ID, []string{"C1", "C2", "C3"})
	require.NoError(t, err)

	var orders []*biz.Order
	for i := 0; i < 5; i++ {
		o, err := s.orders.CreateOrder(ctx, tenant.ID, customer.ID, []*biz.OrderItem{{AppID: app.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}})
		require.NoError(t, err)
		orders = append(orders, o)
	}

	var (
		wg        sync.WaitGroup
		completed int64
	)
	for _, o := range orders {
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(paymentID string) {
				defer wg.Done()
				if _, err := s.webhooks.HandlePaymentEvent(ctx, &biz.PaymentEvent{PaymentID: paymentID, Status: "approved"}); err == nil {
					atomic.AddInt64(&completed, 1)
				}
			}(o.PaymentID)
		}
	}
	wg.Wait()
	assert.Equal(t, int64(6), completed)

	used := map[string]bool{}
	done := 0
	for _, o := range orders {
		stored, err := s.orders.GetOrder(ctx, tenant.ID, o.ID)
		require.NoError(t, err)
		if stored.Status == constants.OrderStatusCompleted {
			done++
			for _, id := range stored.AllocatedCodes {
				assert.False(t, used[id], "code allocated twice")
				used[id] = true
			}
		}
	}
	assert.Equal(t, 3, done)
	assert.Len(t, used, 3)
}

func TestReconcileAfterMissedWebhook(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	tenant, customer := s.seed(t)
	app, err := s.catalog.AddProduct(ctx, tenant.ID, "Netflix")
	require.NoError(t, err)
	_, err = s.inventory.AddRechargeCodes(ctx, tenant.ID, app.ID, []string{"R1"})
	require.NoError(t, err)

	order, err := s.orders.CreateOrder(ctx, tenant.ID, customer.ID, []*biz.OrderItem{{AppID: app.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}})
	require.NoError(t, err)
	s.mu.Lock()
	s.statuses[order.PaymentID] = "approved"
	s.mu.Unlock()

	// 订单太新，不处理
	handled, err := s.webhooks.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, handled)

	// 不带状态的 webhook 会回查支付状态
	res, err := s.webhooks.HandlePaymentEvent(ctx, &biz.PaymentEvent{PaymentID: order.PaymentID, Raw: []byte(`{"type":"payment"}`)})
	require.NoError(t, err)
	assert.Equal(t, constants.WebhookOutcomeCompleted, res.Outcome)
}

func TestCreateOrderPaymentFailureLeavesNothing(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	tenant, customer := s.seed(t)
	app, err := s.catalog.AddProduct(ctx, tenant.ID, "Netflix")
	require.NoError(t, err)

	_, err = s.tenants.ConfigurePayment(ctx, tenant.ID, "", "")
	require.NoError(t, err)
	_, err = s.orders.CreateOrder(ctx, tenant.ID, customer.ID, []*biz.OrderItem{{AppID: app.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}})
	assert.True(t, rechargeErrors.IsReason(err, rechargeErrors.ReasonMisconfigured))

	orders, err := s.orders.ListOrders(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	s.notifier.Wait()
	assert.Empty(t, s.messages())
}
