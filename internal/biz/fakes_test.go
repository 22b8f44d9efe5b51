package biz

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"recharge-service/internal/constants"
	rechargeErrors "recharge-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// memStore 内存版存储，实现 biz 层全部 repo 接口
type memStore struct {
	mu        sync.Mutex
	tenants   map[string]*Tenant
	customers map[string]*Customer
	apps      map[string]*App
	codes     map[string]*RechargeCode
	orders    map[string]*Order
	allocated map[string]string // code id -> order id
	events    []*WebhookEvent
	seq       int

	// refs 模拟 redis 中的支付索引缓存；keepRefs 时 Forget 不生效，模拟清除失败的残留缓存
	refs     map[string]*PaymentRef
	keepRefs bool
}

func newMemStore() *memStore {
	return &memStore{
		tenants:   map[string]*Tenant{},
		customers: map[string]*Customer{},
		apps:      map[string]*App{},
		codes:     map[string]*RechargeCode{},
		orders:    map[string]*Order{},
		allocated: map[string]string{},
		refs:      map[string]*PaymentRef{},
	}
}

func (s *memStore) CreateTenant(_ context.Context, t *Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tenants[t.ID] = &cp
	return nil
}

func (s *memStore) GetTenant(_ context.Context, id string) (*Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) UpdatePaymentCredential(_ context.Context, id string, cred PaymentCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[id].Payment = cred
	return nil
}

func (s *memStore) UpdateMessagingCredential(_ context.Context, id string, cred MessagingCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[id].Messaging = cred
	return nil
}

func (s *memStore) CreateCustomer(_ context.Context, c *Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.customers[c.ID] = &cp
	return nil
}

func (s *memStore) GetCustomer(_ context.Context, tenantID, id string) (*Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) ListCustomers(_ context.Context, tenantID string) ([]*Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Customer
	for _, c := range s.customers {
		if c.TenantID == tenantID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) CreateApp(_ context.Context, a *App) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.apps[a.ID] = &cp
	return nil
}

func (s *memStore) GetApp(_ context.Context, tenantID, id string) (*App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.apps[id]
	if !ok || a.TenantID != tenantID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) GetAppsByIDs(_ context.Context, tenantID string, ids []string) (map[string]*App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]*App{}
	for _, id := range ids {
		if a, ok := s.apps[id]; ok && a.TenantID == tenantID {
			cp := *a
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *memStore) ListApps(_ context.Context, tenantID string) ([]*App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*App
	for _, a := range s.apps {
		if a.TenantID == tenantID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) RenameApp(_ context.Context, _ string, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[id].Name = name
	return nil
}

func (s *memStore) FindCodes(_ context.Context, tenantID string, codes []string) ([]*RechargeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, c := range codes {
		want[c] = true
	}
	var out []*RechargeCode
	for _, c := range s.codes {
		if c.TenantID == tenantID && want[c.Code] {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) CreateCodes(_ context.Context, codes []*RechargeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range codes {
		for _, e := range s.codes {
			if e.TenantID == c.TenantID && e.Code == c.Code {
				return rechargeErrors.New(rechargeErrors.ErrCodeDuplicateCode)
			}
		}
		s.seq++
		cp := *c
		cp.CreatedAt = time.Unix(int64(s.seq), 0)
		s.codes[c.ID] = &cp
	}
	return nil
}

func (s *memStore) sortedCodes(filter func(*RechargeCode) bool) []*RechargeCode {
	var out []*RechargeCode
	for _, c := range s.codes {
		if filter(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *memStore) ListUnusedCodes(_ context.Context, tenantID string, appIDs []string) ([]*RechargeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range appIDs {
		want[id] = true
	}
	return s.sortedCodes(func(c *RechargeCode) bool {
		return c.TenantID == tenantID && !c.Used && want[c.AppID]
	}), nil
}

func (s *memStore) MarkCodesUsed(_ context.Context, tenantID, orderID string, ids []string, usedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		c, ok := s.codes[id]
		if !ok || c.TenantID != tenantID || c.Used {
			continue
		}
		c.Used = true
		c.OrderID = orderID
		t := usedAt
		c.UsedAt = &t
		n++
	}
	return n, nil
}

func (s *memStore) ListCodes(_ context.Context, tenantID, appID string) ([]*RechargeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedCodes(func(c *RechargeCode) bool {
		return c.TenantID == tenantID && (appID == "" || c.AppID == appID)
	}), nil
}

func (s *memStore) GetCodesByIDs(_ context.Context, tenantID string, ids []string) ([]*RechargeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*RechargeCode
	for _, id := range ids {
		if c, ok := s.codes[id]; ok && c.TenantID == tenantID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) GetCode(_ context.Context, tenantID, id string) (*RechargeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[id]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) DeleteUnusedCode(_ context.Context, tenantID, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[id]
	if !ok || c.TenantID != tenantID || c.Used {
		return 0, nil
	}
	delete(s.codes, id)
	return 1, nil
}

func (s *memStore) CountUnused(_ context.Context, tenantID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for _, c := range s.codes {
		if c.TenantID == tenantID && !c.Used {
			out[c.AppID]++
		}
	}
	return out, nil
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = make([]*OrderItem, len(o.Items))
	for i, item := range o.Items {
		it := *item
		cp.Items[i] = &it
	}
	cp.AllocatedCodes = append([]string(nil), o.AllocatedCodes...)
	return &cp
}

func (s *memStore) CreateOrder(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.orders {
		if e.PaymentID == o.PaymentID {
			return fmt.Errorf("duplicate payment id %s", o.PaymentID)
		}
	}
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *memStore) GetOrder(_ context.Context, tenantID, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (s *memStore) GetOrderForUpdate(ctx context.Context, tenantID, id string) (*Order, error) {
	return s.GetOrder(ctx, tenantID, id)
}

func (s *memStore) ListOrders(_ context.Context, tenantID string) ([]*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Order
	for _, o := range s.orders {
		if o.TenantID == tenantID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (s *memStore) ListStalePending(_ context.Context, before time.Time, limit int) ([]*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Order
	for _, o := range s.orders {
		if o.Status == constants.OrderStatusPending && o.PaymentStatus != constants.PaymentStatusRejected && o.CreatedAt.Before(before) {
			out = append(out, cloneOrder(o))
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) MarkCompleted(_ context.Context, tenantID, id string, codeIDs []string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.TenantID != tenantID || o.Status != constants.OrderStatusPending {
		return 0, nil
	}
	for _, c := range codeIDs {
		if owner, taken := s.allocated[c]; taken {
			return 0, fmt.Errorf("code %s already allocated to %s", c, owner)
		}
	}
	for _, c := range codeIDs {
		s.allocated[c] = id
	}
	o.Status = constants.OrderStatusCompleted
	o.AllocatedCodes = append([]string(nil), codeIDs...)
	t := at
	o.CompletedAt = &t
	return 1, nil
}

func (s *memStore) TransitionStatus(_ context.Context, tenantID, id, from, to, paymentStatus string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.TenantID != tenantID || o.Status != from {
		return 0, nil
	}
	o.Status = to
	if paymentStatus != "" {
		o.PaymentStatus = paymentStatus
	}
	return 1, nil
}

func (s *memStore) SetPaymentStatus(_ context.Context, tenantID, id, paymentStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok && o.TenantID == tenantID {
		o.PaymentStatus = paymentStatus
	}
	return nil
}

func (s *memStore) DeleteOrder(_ context.Context, tenantID, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.TenantID != tenantID || o.Status == constants.OrderStatusCompleted {
		return 0, nil
	}
	delete(s.orders, id)
	return 1, nil
}

func (s *memStore) Resolve(_ context.Context, paymentID string) (*PaymentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.refs[paymentID]; ok {
		cp := *ref
		return &cp, nil
	}
	for _, o := range s.orders {
		if o.PaymentID == paymentID {
			return &PaymentRef{PaymentID: paymentID, TenantID: o.TenantID, OrderID: o.ID}, nil
		}
	}
	return nil, nil
}

func (s *memStore) Remember(_ context.Context, ref *PaymentRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ref
	s.refs[ref.PaymentID] = &cp
}

func (s *memStore) Forget(_ context.Context, paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.keepRefs {
		delete(s.refs, paymentID)
	}
}

func (s *memStore) SaveEvent(_ context.Context, e *WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// memTx 用一把锁串行化所有租户事务
type memTx struct {
	mu sync.Mutex
}

func (t *memTx) InTenantTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type fakePSP struct {
	mu       sync.Mutex
	requests []*CreateIntentRequest
	nextID   int
	err      error
	statuses map[string]string
}

func (p *fakePSP) CreateIntent(_ context.Context, _ PaymentCredential, req *CreateIntentRequest) (*PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	p.nextID++
	return &PaymentIntent{
		ProviderPaymentID: fmt.Sprintf("pay-%d", p.nextID),
		DisplayToken:      fmt.Sprintf("00020126pix-%d", p.nextID),
	}, nil
}

func (p *fakePSP) GetPaymentStatus(_ context.Context, _ PaymentCredential, paymentID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.statuses[paymentID]; ok {
		return s, nil
	}
	return "pending", nil
}

type sentMessage struct {
	Recipient string
	Text      string
}

type fakeGateway struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (g *fakeGateway) SendText(_ context.Context, _ MessagingCredential, recipient, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, sentMessage{Recipient: recipient, Text: text})
	return nil
}

func (g *fakeGateway) messages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.sent...)
}

type fakeQueue struct {
	enabled bool
	err     error
	mu      sync.Mutex
	pub     []*Notification
}

func (q *fakeQueue) Enabled() bool { return q.enabled }

func (q *fakeQueue) Publish(_ context.Context, n *Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.pub = append(q.pub, n)
	return nil
}

type testEnv struct {
	store     *memStore
	psp       *fakePSP
	gateway   *fakeGateway
	queue     *fakeQueue
	tenants   *TenantUseCase
	customers *CustomerUseCase
	catalog   *CatalogUseCase
	inventory *InventoryUseCase
	notifier  *NotificationUseCase
	orders    *OrderUseCase
	webhooks  *WebhookUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := log.NewStdLogger(io.Discard)
	conf := &RechargeConfig{
		PixExpiration:      15 * time.Minute,
		NotifyTimeout:      time.Second,
		ReconcileMinAge:    time.Minute,
		ReconcileBatchSize: 10,
	}
	store := newMemStore()
	tx := &memTx{}
	psp := &fakePSP{statuses: map[string]string{}}
	gateway := &fakeGateway{}
	queue := &fakeQueue{}

	env := &testEnv{store: store, psp: psp, gateway: gateway, queue: queue}
	env.tenants = NewTenantUseCase(store, logger)
	env.customers = NewCustomerUseCase(store, store, logger)
	env.catalog = NewCatalogUseCase(store, store, logger)
	env.inventory = NewInventoryUseCase(store, store, tx, logger)
	env.notifier = NewNotificationUseCase(store, gateway, queue, conf, logger)
	env.orders = NewOrderUseCase(store, store, store, store, store, env.inventory, psp, store, tx, env.notifier, logger)
	env.webhooks = NewWebhookUseCase(store, env.orders, store, store, psp, store, conf, logger)
	return env
}

// seed 创建一个已配置支付与消息凭证的租户、一个客户
func (e *testEnv) seed(t *testing.T) (*Tenant, *Customer) {
	t.Helper()
	ctx := context.Background()
	tenant, err := e.tenants.RegisterTenant(ctx, "Loja")
	require.NoError(t, err)
	_, err = e.tenants.ConfigurePayment(ctx, tenant.ID, "APP_USR-token", "https://example.com/webhook")
	require.NoError(t, err)
	tenant, err = e.tenants.ConfigureMessaging(ctx, tenant.ID, "loja", "key")
	require.NoError(t, err)
	customer, err := e.customers.AddCustomer(ctx, tenant.ID, "Maria", "+55 (11) 99999-0000", "maria@example.com")
	require.NoError(t, err)
	return tenant, customer
}

func (e *testEnv) addApp(t *testing.T, tenantID, name string, codes ...string) *App {
	t.Helper()
	ctx := context.Background()
	app, err := e.catalog.AddProduct(ctx, tenantID, name)
	require.NoError(t, err)
	if len(codes) > 0 {
		res, err := e.inventory.AddRechargeCodes(ctx, tenantID, app.ID, codes)
		require.NoError(t, err)
		require.Len(t, res.Added, len(codes))
	}
	return app
}

func item(appID string, qty int, price string) *OrderItem {
	return &OrderItem{AppID: appID, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}
