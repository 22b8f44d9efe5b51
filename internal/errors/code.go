package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// Recharge Service 错误码定义
// 错误码格式：SSMMEE (6位数字)
//   SS: 服务标识，Recharge 固定为 20
//   MM: 模块标识，按业务划分
//   EE: 模块内错误序号
//
// 模块划分：
//   00: 通用模块
//   01: 租户/客户/应用模块
//   02: 订单模块
//   03: 支付模块
//   04: 库存（充值码）模块
//   05: Webhook 模块

// 错误原因（kratos reason），对应领域错误分类
const (
	ReasonNotFound              = "NOT_FOUND"
	ReasonMisconfigured         = "MISCONFIGURED"
	ReasonPaymentFailed         = "PAYMENT_FAILED"
	ReasonProviderError         = "PROVIDER_ERROR"
	ReasonUnavailable           = "UNAVAILABLE"
	ReasonInsufficientInventory = "INSUFFICIENT_INVENTORY"
	ReasonAlreadyCompleted      = "ALREADY_COMPLETED"
	ReasonOrderCancelled        = "ORDER_CANCELLED"
	ReasonOrderNotPending       = "ORDER_NOT_PENDING"
	ReasonUnmatched             = "UNMATCHED"
	ReasonDuplicateCode         = "DUPLICATE_CODE"
	ReasonCodeInUse             = "CODE_IN_USE"
	ReasonInvalidArgument       = "INVALID_ARGUMENT"
	ReasonInternal              = "INTERNAL"
)

// 通用模块错误码 (200000-200099)
const (
	// ErrCodeInvalidArgument 参数错误
	ErrCodeInvalidArgument = 200001
	// ErrCodeDatabaseError 数据库错误
	ErrCodeDatabaseError = 200002
	// ErrCodeLockFailed 获取租户锁失败
	ErrCodeLockFailed = 200003
)

// 租户/客户/应用模块错误码 (200100-200199)
const (
	// ErrCodeTenantNotFound 租户不存在
	ErrCodeTenantNotFound = 200101
	// ErrCodeCustomerNotFound 客户不存在
	ErrCodeCustomerNotFound = 200102
	// ErrCodeAppNotFound 应用不存在
	ErrCodeAppNotFound = 200103
	// ErrCodePaymentConfigMissing 租户未配置支付凭证
	ErrCodePaymentConfigMissing = 200104
)

// 订单模块错误码 (200200-200299)
const (
	// ErrCodeOrderNotFound 订单不存在
	ErrCodeOrderNotFound = 200201
	// ErrCodeOrderAlreadyCompleted 订单已完成
	ErrCodeOrderAlreadyCompleted = 200202
	// ErrCodeOrderCancelled 订单已取消
	ErrCodeOrderCancelled = 200203
	// ErrCodeOrderNotPending 订单不处于待处理状态
	ErrCodeOrderNotPending = 200204
)

// 支付模块错误码 (200300-200399)
const (
	// ErrCodePaymentFailed 创建支付失败，订单未创建
	ErrCodePaymentFailed = 200301
	// ErrCodeProviderError 支付服务返回错误或响应格式错误
	ErrCodeProviderError = 200302
	// ErrCodeProviderUnavailable 支付服务不可用
	ErrCodeProviderUnavailable = 200303
)

// 库存模块错误码 (200400-200499)
const (
	// ErrCodeInsufficientInventory 充值码不足
	ErrCodeInsufficientInventory = 200401
	// ErrCodeDuplicateCode 充值码重复
	ErrCodeDuplicateCode = 200402
	// ErrCodeCodeNotFound 充值码不存在
	ErrCodeCodeNotFound = 200403
	// ErrCodeCodeInUse 充值码已使用，不能删除
	ErrCodeCodeInUse = 200404
	// ErrCodeAllocationConflict 分配时充值码已被占用
	ErrCodeAllocationConflict = 200405
)

// Webhook 模块错误码 (200500-200599)
const (
	// ErrCodeWebhookUnmatched 找不到支付对应的订单
	ErrCodeWebhookUnmatched = 200501
	// ErrCodeWebhookInvalid Webhook 内容无效
	ErrCodeWebhookInvalid = 200502
)

type definition struct {
	status  int
	reason  string
	message string
}

var definitions = map[int]definition{
	ErrCodeInvalidArgument: {400, ReasonInvalidArgument, "parâmetros inválidos"},
	ErrCodeDatabaseError:   {500, ReasonInternal, "erro ao acessar o banco de dados"},
	ErrCodeLockFailed:      {503, ReasonUnavailable, "serviço ocupado, tente novamente"},

	ErrCodeTenantNotFound:       {404, ReasonNotFound, "usuário não encontrado"},
	ErrCodeCustomerNotFound:     {404, ReasonNotFound, "Cliente não encontrado"},
	ErrCodeAppNotFound:          {404, ReasonNotFound, "aplicativo não encontrado"},
	ErrCodePaymentConfigMissing: {412, ReasonMisconfigured, "Configuração de pagamento não encontrada"},

	ErrCodeOrderNotFound:         {404, ReasonNotFound, "Pedido não encontrado"},
	ErrCodeOrderAlreadyCompleted: {409, ReasonAlreadyCompleted, "Pedido já está concluído"},
	ErrCodeOrderCancelled:        {409, ReasonOrderCancelled, "Pedido cancelado"},
	ErrCodeOrderNotPending:       {409, ReasonOrderNotPending, "Pedido não está pendente"},

	ErrCodePaymentFailed:       {502, ReasonPaymentFailed, "Erro ao gerar pagamento"},
	ErrCodeProviderError:       {502, ReasonProviderError, "Erro ao gerar pagamento PIX"},
	ErrCodeProviderUnavailable: {503, ReasonUnavailable, "Erro ao processar pagamento"},

	ErrCodeInsufficientInventory: {409, ReasonInsufficientInventory, "Códigos insuficientes para um dos aplicativos do pedido"},
	ErrCodeDuplicateCode:         {409, ReasonDuplicateCode, "código de recarga já cadastrado"},
	ErrCodeCodeNotFound:          {404, ReasonNotFound, "código de recarga não encontrado"},
	ErrCodeCodeInUse:             {409, ReasonCodeInUse, "código de recarga já utilizado"},
	ErrCodeAllocationConflict:    {409, ReasonInsufficientInventory, "códigos de recarga alterados durante a alocação"},

	ErrCodeWebhookUnmatched: {404, ReasonUnmatched, "Pedido não encontrado para o pagamento"},
	ErrCodeWebhookInvalid:   {400, ReasonInvalidArgument, "webhook inválido"},
}

// New 根据错误码创建 kratos 错误，错误码放在 metadata 的 biz_code 中
func New(code int) *kerrors.Error {
	def, ok := definitions[code]
	if !ok {
		def = definition{500, ReasonInternal, "erro interno"}
	}
	return kerrors.New(def.status, def.reason, def.message).
		WithMetadata(map[string]string{"biz_code": strconv.Itoa(code)})
}

// Newf 创建错误并覆盖提示信息
func Newf(code int, format string, args ...interface{}) *kerrors.Error {
	e := New(code)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// Wrap 创建错误并附带原因
func Wrap(err error, code int) *kerrors.Error {
	return New(code).WithCause(err)
}

// IsCode 判断错误链中是否存在指定错误码
func IsCode(err error, code int) bool {
	if err == nil {
		return false
	}
	for e := err; e != nil; {
		if ke, ok := e.(*kerrors.Error); ok && ke.Metadata["biz_code"] == strconv.Itoa(code) {
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}

// IsReason 判断错误链中是否存在指定 reason
func IsReason(err error, reason string) bool {
	for e := err; e != nil; {
		if ke, ok := e.(*kerrors.Error); ok && ke.Reason == reason {
			return true
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		e = u.Unwrap()
	}
	return false
}

// Ensure 已是 kratos 错误的原样返回，其它错误包装为数据库错误
func Ensure(err error) error {
	if err == nil {
		return nil
	}
	var ke *kerrors.Error
	if stderrors.As(err, &ke) {
		return err
	}
	return Wrap(err, ErrCodeDatabaseError)
}
