package service

import (
	"context"
	"io"

	"github.com/go-kratos/kratos/v2/transport/http"
)

const maxWebhookBody = 1 << 20

const (
	OperationRegisterTenant     = "/recharge.v1.RechargeService/RegisterTenant"
	OperationGetTenant          = "/recharge.v1.RechargeService/GetTenant"
	OperationConfigurePayment   = "/recharge.v1.RechargeService/ConfigurePayment"
	OperationConfigureMessaging = "/recharge.v1.RechargeService/ConfigureMessaging"
	OperationAddProduct         = "/recharge.v1.RechargeService/AddProduct"
	OperationListProducts       = "/recharge.v1.RechargeService/ListProducts"
	OperationUpdateProduct      = "/recharge.v1.RechargeService/UpdateProduct"
	OperationImportCodes        = "/recharge.v1.RechargeService/ImportCodes"
	OperationListCodes          = "/recharge.v1.RechargeService/ListCodes"
	OperationDeleteCode         = "/recharge.v1.RechargeService/DeleteCode"
	OperationStock              = "/recharge.v1.RechargeService/Stock"
	OperationAddCustomer        = "/recharge.v1.RechargeService/AddCustomer"
	OperationListCustomers      = "/recharge.v1.RechargeService/ListCustomers"
	OperationCreateOrder        = "/recharge.v1.RechargeService/CreateOrder"
	OperationListOrders         = "/recharge.v1.RechargeService/ListOrders"
	OperationGetOrder           = "/recharge.v1.RechargeService/GetOrder"
	OperationDeleteOrder        = "/recharge.v1.RechargeService/DeleteOrder"
	OperationCompleteOrder      = "/recharge.v1.RechargeService/CompleteOrder"
	OperationCancelOrder        = "/recharge.v1.RechargeService/CancelOrder"
	OperationMercadoPagoWebhook = "/recharge.v1.WebhookService/MercadoPagoWebhook"
)

// RegisterRechargeHTTPServer 注册 HTTP 路由
func RegisterRechargeHTTPServer(s *http.Server, rs *RechargeService, ws *WebhookService) {
	r := s.Route("/v1")
	r.POST("/tenants", handler(OperationRegisterTenant, true, rs.RegisterTenant))
	r.GET("/tenants/{tenant_id}", handler(OperationGetTenant, false, rs.GetTenant))
	r.PUT("/tenants/{tenant_id}/payment-config", handler(OperationConfigurePayment, true, rs.ConfigurePayment))
	r.PUT("/tenants/{tenant_id}/messaging-config", handler(OperationConfigureMessaging, true, rs.ConfigureMessaging))

	r.POST("/tenants/{tenant_id}/apps", handler(OperationAddProduct, true, rs.AddProduct))
	r.GET("/tenants/{tenant_id}/apps", handler(OperationListProducts, false, rs.ListProducts))
	r.PUT("/tenants/{tenant_id}/apps/{app_id}", handler(OperationUpdateProduct, true, rs.UpdateProduct))
	r.POST("/tenants/{tenant_id}/apps/{app_id}/codes", handler(OperationImportCodes, true, rs.ImportCodes))

	r.GET("/tenants/{tenant_id}/codes", handler(OperationListCodes, false, rs.ListCodes))
	r.DELETE("/tenants/{tenant_id}/codes/{code_id}", handler(OperationDeleteCode, false, rs.DeleteCode))
	r.GET("/tenants/{tenant_id}/stock", handler(OperationStock, false, rs.Stock))

	r.POST("/tenants/{tenant_id}/customers", handler(OperationAddCustomer, true, rs.AddCustomer))
	r.GET("/tenants/{tenant_id}/customers", handler(OperationListCustomers, false, rs.ListCustomers))

	r.POST("/tenants/{tenant_id}/orders", handler(OperationCreateOrder, true, rs.CreateOrder))
	r.GET("/tenants/{tenant_id}/orders", handler(OperationListOrders, false, rs.ListOrders))
	r.GET("/tenants/{tenant_id}/orders/{order_id}", handler(OperationGetOrder, false, rs.GetOrder))
	r.DELETE("/tenants/{tenant_id}/orders/{order_id}", handler(OperationDeleteOrder, false, rs.DeleteOrder))
	r.POST("/tenants/{tenant_id}/orders/{order_id}/complete", handler(OperationCompleteOrder, false, rs.CompleteOrder))
	r.POST("/tenants/{tenant_id}/orders/{order_id}/cancel", handler(OperationCancelOrder, false, rs.CancelOrder))

	r.POST("/webhooks/mercadopago", webhookHandler(ws))
}

// handler 绑定请求体、query 与路径参数后经过中间件调用 fn
func handler[Req any, Reply any](operation string, withBody bool, fn func(context.Context, *Req) (Reply, error)) http.HandlerFunc {
	return func(ctx http.Context) error {
		var in Req
		if withBody {
			if err := ctx.Bind(&in); err != nil {
				return err
			}
		} else if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, operation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(ctx, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

// webhookHandler 需要原始请求体写入审计日志，不走通用绑定
func webhookHandler(ws *WebhookService) http.HandlerFunc {
	return func(ctx http.Context) error {
		body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxWebhookBody))
		if err != nil {
			return err
		}
		query := make(map[string]string)
		for k, v := range ctx.Query() {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}
		http.SetOperation(ctx, OperationMercadoPagoWebhook)
		h := ctx.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return ws.MercadoPagoWebhook(ctx, body, query)
		})
		out, err := h(ctx, body)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
