package biz

import (
	"context"
	"sort"
	"strings"
	"time"

	"recharge-service/internal/constants"
	rechargeErrors "recharge-service/internal/errors"
	"recharge-service/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// RechargeCode 一次性充值码
// Used 只能由分配流程从 false 置为 true，且同时写入 OrderID
type RechargeCode struct {
	ID        string
	TenantID  string
	AppID     string
	Code      string
	Used      bool
	OrderID   string
	UsedAt    *time.Time
	CreatedAt time.Time
}

// DuplicateCode 导入时被拒绝的重复充值码，AppName 为其已归属的商品名
type DuplicateCode struct {
	Code    string
	AppName string
}

// ImportResult 批量导入结果
type ImportResult struct {
	Added      []string
	Duplicates []DuplicateCode
}

// StockLevel 商品库存
type StockLevel struct {
	AppID   string
	AppName string
	Unused  int
}

// CodeRepo 充值码数据层接口
type CodeRepo interface {
	// FindCodes 按充值码字符串查找租户内已存在的记录（任意商品）
	FindCodes(ctx context.Context, tenantID string, codes []string) ([]*RechargeCode, error)
	CreateCodes(ctx context.Context, codes []*RechargeCode) error
	// ListUnusedCodes 按 created_at, id 稳定排序返回未使用的充值码，事务内加行锁
	ListUnusedCodes(ctx context.Context, tenantID string, appIDs []string) ([]*RechargeCode, error)
	// MarkCodesUsed 仅更新 used = false 的记录，返回受影响行数
	MarkCodesUsed(ctx context.Context, tenantID, orderID string, codeIDs []string, usedAt time.Time) (int64, error)
	ListCodes(ctx context.Context, tenantID, appID string) ([]*RechargeCode, error)
	GetCodesByIDs(ctx context.Context, tenantID string, codeIDs []string) ([]*RechargeCode, error)
	// GetCode 不存在时返回 nil, nil
	GetCode(ctx context.Context, tenantID, codeID string) (*RechargeCode, error)
	// DeleteUnusedCode 仅删除 used = false 的记录，返回受影响行数
	DeleteUnusedCode(ctx context.Context, tenantID, codeID string) (int64, error)
	CountUnused(ctx context.Context, tenantID string) (map[string]int, error)
}

// InventoryUseCase 充值码库存业务逻辑
type InventoryUseCase struct {
	codes   CodeRepo
	apps    AppRepo
	tx      TenantTx
	log     *log.Helper
	metrics *metrics.RechargeMetrics
}

// NewInventoryUseCase 创建库存 UseCase
func NewInventoryUseCase(codes CodeRepo, apps AppRepo, tx TenantTx, logger log.Logger) *InventoryUseCase {
	return &InventoryUseCase{
		codes:   codes,
		apps:    apps,
		tx:      tx,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

// AddRechargeCodes 批量导入充值码
// 租户内已存在的充值码（无论属于哪个商品）被拒绝并标注其所属商品名，只插入新的充值码。
// 同一批次内重复出现的充值码按目标商品报告为重复。
func (uc *InventoryUseCase) AddRechargeCodes(ctx context.Context, tenantID, appID string, raw []string) (*ImportResult, error) {
	app, err := mustGetApp(ctx, uc.apps, tenantID, appID)
	if err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(raw))
	for _, c := range raw {
		if c = strings.TrimSpace(c); c != "" {
			candidates = append(candidates, c)
		}
	}
	result := &ImportResult{Added: []string{}, Duplicates: []DuplicateCode{}}
	if len(candidates) == 0 {
		return result, nil
	}

	err = uc.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		existing, err := uc.codes.FindCodes(ctx, tenantID, uniqueStrings(candidates))
		if err != nil {
			return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
		}
		owner := make(map[string]string, len(existing))
		ownerIDs := make([]string, 0, len(existing))
		for _, e := range existing {
			owner[e.Code] = e.AppID
			ownerIDs = append(ownerIDs, e.AppID)
		}
		owners, err := uc.apps.GetAppsByIDs(ctx, tenantID, uniqueStrings(ownerIDs))
		if err != nil {
			return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
		}

		now := time.Now()
		seen := make(map[string]bool, len(candidates))
		var toCreate []*RechargeCode
		for _, c := range candidates {
			if ownerID, ok := owner[c]; ok {
				name := constants.UnknownAppName
				if a, ok := owners[ownerID]; ok {
					name = a.Name
				}
				result.Duplicates = append(result.Duplicates, DuplicateCode{Code: c, AppName: name})
				continue
			}
			if seen[c] {
				result.Duplicates = append(result.Duplicates, DuplicateCode{Code: c, AppName: app.Name})
				continue
			}
			seen[c] = true
			toCreate = append(toCreate, &RechargeCode{
				ID:        uuid.NewString(),
				TenantID:  tenantID,
				AppID:     appID,
				Code:      c,
				CreatedAt: now,
			})
			result.Added = append(result.Added, c)
		}
		if len(toCreate) == 0 {
			return nil
		}
		return rechargeErrors.Ensure(uc.codes.CreateCodes(ctx, toCreate))
	})
	if err != nil {
		uc.log.Errorf("AddRechargeCodes failed: tenant_id=%s, app_id=%s, error=%v", tenantID, appID, err)
		return nil, rechargeErrors.Ensure(err)
	}

	if uc.metrics != nil {
		uc.metrics.CodesImportedTotal.WithLabelValues("added").Add(float64(len(result.Added)))
		uc.metrics.CodesImportedTotal.WithLabelValues("duplicate").Add(float64(len(result.Duplicates)))
	}
	uc.log.Infof("Recharge codes imported: tenant_id=%s, app_id=%s, added=%d, duplicates=%d",
		tenantID, appID, len(result.Added), len(result.Duplicates))
	return result, nil
}

// DeleteRechargeCode 删除未使用的充值码，已使用的充值码永久保留
func (uc *InventoryUseCase) DeleteRechargeCode(ctx context.Context, tenantID, codeID string) error {
	return uc.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		code, err := uc.codes.GetCode(ctx, tenantID, codeID)
		if err != nil {
			return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
		}
		if code == nil {
			return rechargeErrors.New(rechargeErrors.ErrCodeCodeNotFound)
		}
		if code.Used {
			return rechargeErrors.New(rechargeErrors.ErrCodeCodeInUse)
		}
		n, err := uc.codes.DeleteUnusedCode(ctx, tenantID, codeID)
		if err != nil {
			return rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
		}
		if n == 0 {
			return rechargeErrors.New(rechargeErrors.ErrCodeCodeInUse)
		}
		return nil
	})
}

// ListCodes 列出充值码，appID 为空时列出全部
func (uc *InventoryUseCase) ListCodes(ctx context.Context, tenantID, appID string) ([]*RechargeCode, error) {
	codes, err := uc.codes.ListCodes(ctx, tenantID, appID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	return codes, nil
}

// Stock 每个商品的未使用充值码数量
func (uc *InventoryUseCase) Stock(ctx context.Context, tenantID string) ([]*StockLevel, error) {
	apps, err := uc.apps.ListApps(ctx, tenantID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	counts, err := uc.codes.CountUnused(ctx, tenantID)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	levels := make([]*StockLevel, 0, len(apps))
	for _, a := range apps {
		levels = append(levels, &StockLevel{AppID: a.ID, AppName: a.Name, Unused: counts[a.ID]})
	}
	return levels, nil
}

// allocate 选择并标记充值码，必须在 InTenantTx 内调用
func (uc *InventoryUseCase) allocate(ctx context.Context, tenantID, orderID string, needed map[string]int, now time.Time) ([]*RechargeCode, error) {
	unused, err := uc.codes.ListUnusedCodes(ctx, tenantID, sortedKeys(needed))
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	selected, err := SelectCodes(needed, unused)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(selected))
	for i, c := range selected {
		ids[i] = c.ID
	}
	n, err := uc.codes.MarkCodesUsed(ctx, tenantID, orderID, ids, now)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeDatabaseError)
	}
	if n != int64(len(ids)) {
		uc.log.Warnf("Allocation conflict: tenant_id=%s, order_id=%s, expected=%d, marked=%d", tenantID, orderID, len(ids), n)
		return nil, rechargeErrors.New(rechargeErrors.ErrCodeAllocationConflict)
	}
	for _, c := range selected {
		c.Used = true
		c.OrderID = orderID
		usedAt := now
		c.UsedAt = &usedAt
	}
	return selected, nil
}

// NeededCounts 按商品汇总订单项数量
func NeededCounts(items []*OrderItem) map[string]int {
	needed := make(map[string]int)
	for _, item := range items {
		needed[item.AppID] += item.Quantity
	}
	return needed
}

// SelectCodes 为每个商品选取所需数量的未使用充值码
// unused 需按稳定顺序排列，每个商品取其中最前面的 count 个；
// 已使用或重复出现的充值码被忽略。任一商品不足时不返回任何选择。
func SelectCodes(needed map[string]int, unused []*RechargeCode) ([]*RechargeCode, error) {
	pools := make(map[string][]*RechargeCode)
	seen := make(map[string]bool, len(unused))
	for _, c := range unused {
		if c == nil || c.Used || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		pools[c.AppID] = append(pools[c.AppID], c)
	}

	var (
		selected []*RechargeCode
		short    []string
	)
	for _, appID := range sortedKeys(needed) {
		count := needed[appID]
		if count <= 0 {
			continue
		}
		pool := pools[appID]
		if len(pool) < count {
			short = append(short, appID)
			continue
		}
		selected = append(selected, pool[:count]...)
	}
	if len(short) > 0 {
		return nil, insufficientInventory(short)
	}
	return selected, nil
}

func insufficientInventory(appIDs []string) error {
	e := rechargeErrors.New(rechargeErrors.ErrCodeInsufficientInventory)
	e.Metadata["products"] = strings.Join(appIDs, ",")
	return e
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
