package biz

import (
	"context"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewRechargeConfig,
	NewTenantUseCase,
	NewCustomerUseCase,
	NewCatalogUseCase,
	NewInventoryUseCase,
	NewNotificationUseCase,
	NewOrderUseCase,
	NewWebhookUseCase,
)

// TenantTx 租户级事务
// InTenantTx 在租户锁内开启一个数据库事务执行 fn，fn 内的 repo 调用通过 ctx 共享同一事务。
// fn 返回错误时整个事务回滚；同一租户的嵌套调用复用外层事务。
type TenantTx interface {
	InTenantTx(ctx context.Context, tenantID string, fn func(ctx context.Context) error) error
}
