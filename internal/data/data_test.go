package data

import (
	"context"
	"io"
	"testing"

	"recharge-service/internal/biz"
	"recharge-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testBootstrap() *conf.Bootstrap {
	return &conf.Bootstrap{
		Data: &conf.Data{
			Database: &conf.Data_Database{
				Driver:      "sqlite",
				Source:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
				AutoMigrate: true,
			},
		},
	}
}

func newTestData(t *testing.T) *Data {
	t.Helper()
	c := testBootstrap()
	logger := log.NewStdLogger(io.Discard)
	db, err := NewDB(c)
	require.NoError(t, err)
	d, cleanup, err := NewData(c, logger, db, nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return d
}

type repos struct {
	data      *Data
	tenants   biz.TenantRepo
	customers biz.CustomerRepo
	apps      biz.AppRepo
	codes     biz.CodeRepo
	orders    biz.OrderRepo
	events    biz.WebhookEventRepo
	index     biz.PaymentIndex
}

func newRepos(t *testing.T) *repos {
	d := newTestData(t)
	logger := log.NewStdLogger(io.Discard)
	return &repos{
		data:      d,
		tenants:   NewTenantRepo(d, logger),
		customers: NewCustomerRepo(d, logger),
		apps:      NewAppRepo(d, logger),
		codes:     NewCodeRepo(d, logger),
		orders:    NewOrderRepo(d, logger),
		events:    NewWebhookEventRepo(d, logger),
		index:     NewPaymentIndex(d, logger),
	}
}

func (r *repos) seedTenant(t *testing.T) *biz.Tenant {
	t.Helper()
	tenant := &biz.Tenant{
		ID:        uuid.NewString(),
		Name:      "Loja",
		Payment:   biz.PaymentCredential{AccessToken: "TEST-token"},
		Messaging: biz.MessagingCredential{Instance: "loja", APIKey: "key"},
	}
	require.NoError(t, r.tenants.CreateTenant(context.Background(), tenant))
	return tenant
}

func (r *repos) seedApp(t *testing.T, tenantID, name string) *biz.App {
	t.Helper()
	app := &biz.App{ID: uuid.NewString(), TenantID: tenantID, Name: name}
	require.NoError(t, r.apps.CreateApp(context.Background(), app))
	return app
}
