package biz

import (
	"context"
	"strings"
	"time"

	rechargeErrors "recharge-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// App 商品（可售卖充值码的应用），ID 一经引用不再变化，名称可修改
type App struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}

// AppRepo 商品数据层接口
type AppRepo interface {
	CreateApp(ctx context.Context, app *App) error
	// GetApp 不存在时返回 nil, nil
	GetApp(ctx context.Context, tenantID, appID string) (*App, error)
	// GetAppsByIDs 返回 id -> App，不存在的 id 不出现在结果中
	GetAppsByIDs(ctx context.Context, tenantID string, appIDs []string) (map[string]*App, error)
	ListApps(ctx context.Context, tenantID string) ([]*App, error)
	RenameApp(ctx context.Context, tenantID, appID, name string) error
}

// CatalogUseCase 商品目录业务逻辑
type CatalogUseCase struct {
	repo    AppRepo
	tenants TenantRepo
	log     *log.Helper
}

// NewCatalogUseCase 创建商品目录 UseCase
func NewCatalogUseCase(repo AppRepo, tenants TenantRepo, logger log.Logger) *CatalogUseCase {
	return &CatalogUseCase{
		repo:    repo,
		tenants: tenants,
		log:     log.NewHelper(logger),
	}
}

// AddProduct 新增商品
func (uc *CatalogUseCase) AddProduct(ctx context.Context, tenantID, name string) (*App, error) {
	if _, err := mustGetTenant(ctx, uc.tenants, tenantID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, rechargeErrors.Newf(rechargeErrors.ErrCodeInvalidArgument, "nome do aplicativo é obrigatório")
	}
	app := &App{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Name:     name,
	}
	if err := uc.repo.CreateApp(ctx, app); err != nil {
		uc.log.Errorf("CreateApp failed: tenant_id=%s, error=%v", tenantID, err)
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	return app, nil
}

// UpdateProduct 修改商品名称
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, tenantID, appID, name string) (*App, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, rechargeErrors.Newf(rechargeErrors.ErrCodeInvalidArgument, "nome do aplicativo é obrigatório")
	}
	app, err := mustGetApp(ctx, uc.repo, tenantID, appID)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.RenameApp(ctx, tenantID, appID, name); err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	app.Name = name
	return app, nil
}

// ListProducts 列出商品
func (uc *CatalogUseCase) ListProducts(ctx context.Context, tenantID string) ([]*App, error) {
	apps, err := uc.repo.ListApps(ctx, tenantID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	return apps, nil
}

func mustGetApp(ctx context.Context, repo AppRepo, tenantID, appID string) (*App, error) {
	app, err := repo.GetApp(ctx, tenantID, appID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	if app == nil {
		return nil, rechargeErrors.New(rechargeErrors.ErrCodeAppNotFound)
	}
	return app, nil
}
