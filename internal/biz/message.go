package biz

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SummaryLine 订单摘要中的一行
type SummaryLine struct {
	AppName   string
	Quantity  int
	UnitPrice decimal.Decimal
}

// DeliveredCode 发给客户的充值码
type DeliveredCode struct {
	AppName string
	Code    string
}

func formatMoney(v decimal.Decimal) string {
	return "R$ " + v.StringFixed(2)
}

// FormatPixMessage PIX 支付码消息
func FormatPixMessage(amount decimal.Decimal, description, pixCode string) string {
	return fmt.Sprintf("*Pagamento PIX Gerado*\n\nValor: %s\nDescrição: %s\n\n*Código PIX (Copia e Cola):*\n```\n%s\n```\n\nO pagamento será confirmado automaticamente após a transferência.",
		formatMoney(amount), description, pixCode)
}

// FormatOrderSummary 订单摘要消息
func FormatOrderSummary(customerName, orderNumber string, lines []SummaryLine, total decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s!\n\nRecebemos seu pedido #%s.\n\n*Itens do pedido:*\n", customerName, orderNumber)
	for _, l := range lines {
		fmt.Fprintf(&b, "- %dx %s: %s\n", l.Quantity, l.AppName, formatMoney(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))))
	}
	fmt.Fprintf(&b, "\n*Total: %s*\n\nAssim que o pagamento for confirmado você receberá seus códigos de recarga.", formatMoney(total))
	return b.String()
}

// FormatCodesMessage 充值码交付消息
func FormatCodesMessage(customerName, orderNumber string, codes []DeliveredCode) string {
	lines := make([]string, len(codes))
	for i, c := range codes {
		lines[i] = fmt.Sprintf("- %s: %s", c.AppName, c.Code)
	}
	return fmt.Sprintf("Olá %s!\n\nSeu pedido #%s foi concluído!\n\n*Seus códigos de recarga:*\n%s\n\nAgradecemos pela preferência!",
		customerName, orderNumber, strings.Join(lines, "\n"))
}

// FormatRejectionMessage 支付被拒绝消息
func FormatRejectionMessage(customerName, orderNumber string) string {
	return fmt.Sprintf("Olá %s!\n\nInfelizmente o pagamento do seu pedido #%s foi rejeitado.\n\nPor favor, tente realizar um novo pedido.",
		customerName, orderNumber)
}
