package data

import (
	"context"
	"errors"
	"time"

	"recharge-service/internal/biz"
	"recharge-service/internal/data/model"
	rechargeErrors "recharge-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const codeBatchSize = 200

type codeRepo struct {
	data *Data
	log  *log.Helper
}

// NewCodeRepo 创建充值码 repo
func NewCodeRepo(data *Data, logger log.Logger) biz.CodeRepo {
	return &codeRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *codeRepo) FindCodes(ctx context.Context, tenantID string, codes []string) ([]*biz.RechargeCode, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var list []model.RechargeCode
	if err := r.data.DB(ctx).Where("tenant_id = ? AND code IN ?", tenantID, codes).Find(&list).Error; err != nil {
		return nil, err
	}
	return toBizCodes(list), nil
}

func (r *codeRepo) CreateCodes(ctx context.Context, codes []*biz.RechargeCode) error {
	if len(codes) == 0 {
		return nil
	}
	ms := make([]*model.RechargeCode, 0, len(codes))
	for _, c := range codes {
		ms = append(ms, &model.RechargeCode{
			CodeID:    c.ID,
			TenantID:  c.TenantID,
			AppID:     c.AppID,
			Code:      c.Code,
			CreatedAt: c.CreatedAt,
		})
	}
	err := r.data.DB(ctx).CreateInBatches(ms, codeBatchSize).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDuplicateCode)
	}
	return err
}

func (r *codeRepo) ListUnusedCodes(ctx context.Context, tenantID string, appIDs []string) ([]*biz.RechargeCode, error) {
	if len(appIDs) == 0 {
		return nil, nil
	}
	var list []model.RechargeCode
	err := r.data.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND app_id IN ? AND used = ?", tenantID, appIDs, false).
		Order("created_at, code_id").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return toBizCodes(list), nil
}

func (r *codeRepo) MarkCodesUsed(ctx context.Context, tenantID, orderID string, codeIDs []string, usedAt time.Time) (int64, error) {
	if len(codeIDs) == 0 {
		return 0, nil
	}
	result := r.data.DB(ctx).Model(&model.RechargeCode{}).
		Where("tenant_id = ? AND code_id IN ? AND used = ?", tenantID, codeIDs, false).
		Updates(map[string]interface{}{
			"used":     true,
			"order_id": orderID,
			"used_at":  usedAt,
		})
	return result.RowsAffected, result.Error
}

func (r *codeRepo) ListCodes(ctx context.Context, tenantID, appID string) ([]*biz.RechargeCode, error) {
	query := r.data.DB(ctx).Where("tenant_id = ?", tenantID)
	if appID != "" {
		query = query.Where("app_id = ?", appID)
	}
	var list []model.RechargeCode
	if err := query.Order("created_at, code_id").Find(&list).Error; err != nil {
		return nil, err
	}
	return toBizCodes(list), nil
}

// GetCodesByIDs 按 codeIDs 的顺序返回，不存在的 id 被跳过
func (r *codeRepo) GetCodesByIDs(ctx context.Context, tenantID string, codeIDs []string) ([]*biz.RechargeCode, error) {
	if len(codeIDs) == 0 {
		return nil, nil
	}
	var list []model.RechargeCode
	if err := r.data.DB(ctx).Where("tenant_id = ? AND code_id IN ?", tenantID, codeIDs).Find(&list).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*biz.RechargeCode, len(list))
	for _, c := range toBizCodes(list) {
		byID[c.ID] = c
	}
	out := make([]*biz.RechargeCode, 0, len(codeIDs))
	for _, id := range codeIDs {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *codeRepo) GetCode(ctx context.Context, tenantID, codeID string) (*biz.RechargeCode, error) {
	var m model.RechargeCode
	err := r.data.DB(ctx).Where("tenant_id = ? AND code_id = ?", tenantID, codeID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizCode(&m), nil
}

func (r *codeRepo) DeleteUnusedCode(ctx context.Context, tenantID, codeID string) (int64, error) {
	result := r.data.DB(ctx).
		Where("tenant_id = ? AND code_id = ? AND used = ?", tenantID, codeID, false).
		Delete(&model.RechargeCode{})
	return result.RowsAffected, result.Error
}

func (r *codeRepo) CountUnused(ctx context.Context, tenantID string) (map[string]int, error) {
	var rows []struct {
		AppID string
		Cnt   int
	}
	err := r.data.DB(ctx).Model(&model.RechargeCode{}).
		Select("app_id, COUNT(*) AS cnt").
		Where("tenant_id = ? AND used = ?", tenantID, false).
		Group("app_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.AppID] = row.Cnt
	}
	return out, nil
}

func toBizCode(m *model.RechargeCode) *biz.RechargeCode {
	c := &biz.RechargeCode{
		ID:        m.CodeID,
		TenantID:  m.TenantID,
		AppID:     m.AppID,
		Code:      m.Code,
		Used:      m.Used,
		UsedAt:    m.UsedAt,
		CreatedAt: m.CreatedAt,
	}
	if m.OrderID != nil {
		c.OrderID = *m.OrderID
	}
	return c
}

func toBizCodes(list []model.RechargeCode) []*biz.RechargeCode {
	out := make([]*biz.RechargeCode, 0, len(list))
	for i := range list {
		out = append(out, toBizCode(&list[i]))
	}
	return out
}
