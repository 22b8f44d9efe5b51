package data

import (
	"context"
	"errors"

	"recharge-service/internal/biz"
	"recharge-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

type appRepo struct {
	data *Data
	log  *log.Helper
}

// NewAppRepo 创建商品 repo
func NewAppRepo(data *Data, logger log.Logger) biz.AppRepo {
	return &appRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *appRepo) CreateApp(ctx context.Context, app *biz.App) error {
	m := &model.App{
		AppID:    app.ID,
		TenantID: app.TenantID,
		Name:     app.Name,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return err
	}
	app.CreatedAt = m.CreatedAt
	return nil
}

func (r *appRepo) GetApp(ctx context.Context, tenantID, appID string) (*biz.App, error) {
	var m model.App
	err := r.data.DB(ctx).Where("tenant_id = ? AND app_id = ?", tenantID, appID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizApp(&m), nil
}

func (r *appRepo) GetAppsByIDs(ctx context.Context, tenantID string, appIDs []string) (map[string]*biz.App, error) {
	out := make(map[string]*biz.App, len(appIDs))
	if len(appIDs) == 0 {
		return out, nil
	}
	var list []model.App
	if err := r.data.DB(ctx).Where("tenant_id = ? AND app_id IN ?", tenantID, appIDs).Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].AppID] = toBizApp(&list[i])
	}
	return out, nil
}

func (r *appRepo) ListApps(ctx context.Context, tenantID string) ([]*biz.App, error) {
	var list []model.App
	if err := r.data.DB(ctx).Where("tenant_id = ?", tenantID).Order("created_at, app_id").Find(&list).Error; err != nil {
		return nil, err
	}
	out := make([]*biz.App, 0, len(list))
	for i := range list {
		out = append(out, toBizApp(&list[i]))
	}
	return out, nil
}

func (r *appRepo) RenameApp(ctx context.Context, tenantID, appID, name string) error {
	return r.data.DB(ctx).Model(&model.App{}).
		Where("tenant_id = ? AND app_id = ?", tenantID, appID).
		Update("name", name).Error
}

func toBizApp(m *model.App) *biz.App {
	return &biz.App{
		ID:        m.AppID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}
