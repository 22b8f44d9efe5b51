package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recharge-service/internal/biz"
	"recharge-service/internal/conf"
	"recharge-service/internal/constants"
	rechargeErrors "recharge-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

const (
	defaultPSPBaseURL   = "https://api.mercadopago.com"
	defaultPSPTimeout   = 10 * time.Second
	defaultPixExpiry    = 15 * time.Minute
	mercadoPagoTimeFmt  = "2006-01-02T15:04:05.000-07:00"
	maxPSPResponseBytes = 1 << 20
)

// mercadoPagoClient Mercado Pago PIX 客户端，实现 biz.PaymentIntentClient
type mercadoPagoClient struct {
	baseURL    string
	expiration time.Duration
	httpClient *http.Client
	log        *log.Helper
}

// NewPaymentIntentClient 创建支付服务客户端
func NewPaymentIntentClient(c *conf.Bootstrap, logger log.Logger) biz.PaymentIntentClient {
	baseURL := defaultPSPBaseURL
	timeout := defaultPSPTimeout
	expiration := defaultPixExpiry
	if c != nil && c.Recharge != nil && c.Recharge.Psp != nil {
		psp := c.Recharge.Psp
		if psp.BaseUrl != "" {
			baseURL = psp.BaseUrl
		}
		if psp.Timeout.AsDuration() > 0 {
			timeout = psp.Timeout.AsDuration()
		}
		if psp.PixExpiration.AsDuration() > 0 {
			expiration = psp.PixExpiration.AsDuration()
		}
	}
	return &mercadoPagoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		expiration: expiration,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.NewHelper(logger),
	}
}

type mpPayer struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type mpCreatePaymentRequest struct {
	TransactionAmount json.Number `json:"transaction_amount"`
	Description       string      `json:"description"`
	PaymentMethodID   string      `json:"payment_method_id"`
	Payer             mpPayer     `json:"payer"`
	NotificationURL   string      `json:"notification_url,omitempty"`
	DateOfExpiration  string      `json:"date_of_expiration"`
}

type mpPaymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode string `json:"qr_code"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

type mpErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// CreateIntent 创建 PIX 支付，每次调用使用新的幂等键，不做重试
func (c *mercadoPagoClient) CreateIntent(ctx context.Context, cred biz.PaymentCredential, req *biz.CreateIntentRequest) (*biz.PaymentIntent, error) {
	body := &mpCreatePaymentRequest{
		TransactionAmount: json.Number(req.Amount.StringFixed(2)),
		Description:       req.Description,
		PaymentMethodID:   constants.PaymentMethodPix,
		Payer: mpPayer{
			Email:     req.PayerEmail,
			FirstName: req.PayerName,
		},
		NotificationURL:  req.NotificationURL,
		DateOfExpiration: time.Now().Add(c.expiration).Format(mercadoPagoTimeFmt),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeProviderError)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeProviderError)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.do(httpReq, cred)
	if err != nil {
		return nil, err
	}
	if resp.ID.String() == "" {
		return nil, providerError(0, "resposta sem id de pagamento")
	}
	qr := resp.PointOfInteraction.TransactionData.QRCode
	if qr == "" {
		return nil, providerError(0, "resposta sem código PIX")
	}

	c.log.Infof("PIX payment created: payment_id=%s, amount=%s", resp.ID.String(), req.Amount.StringFixed(2))
	return &biz.PaymentIntent{
		ProviderPaymentID: resp.ID.String(),
		DisplayToken:      qr,
	}, nil
}

// GetPaymentStatus 查询支付状态
func (c *mercadoPagoClient) GetPaymentStatus(ctx context.Context, cred biz.PaymentCredential, paymentID string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return "", rechargeErrors.Wrap(err, rechargeErrors.ErrCodeProviderError)
	}
	resp, err := c.do(httpReq, cred)
	if err != nil {
		return "", err
	}
	if resp.Status == "" {
		return "", providerError(0, "resposta sem status")
	}
	return resp.Status, nil
}

func (c *mercadoPagoClient) do(req *http.Request, cred biz.PaymentCredential) (*mpPaymentResponse, error) {
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorf("Mercado Pago request failed: method=%s, path=%s, error=%v", req.Method, req.URL.Path, err)
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeProviderUnavailable)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxPSPResponseBytes))
	if err != nil {
		return nil, rechargeErrors.Wrap(err, rechargeErrors.ErrCodeProviderUnavailable)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var e mpErrorResponse
		_ = json.Unmarshal(raw, &e)
		msg := e.Message
		if msg == "" {
			msg = e.Error
		}
		c.log.Warnf("Mercado Pago returned error: method=%s, path=%s, status=%d, message=%s", req.Method, req.URL.Path, httpResp.StatusCode, msg)
		return nil, providerError(httpResp.StatusCode, msg)
	}

	var resp mpPaymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, providerError(httpResp.StatusCode, "resposta inválida: "+err.Error())
	}
	return &resp, nil
}

func providerError(status int, message string) error {
	e := rechargeErrors.New(rechargeErrors.ErrCodeProviderError)
	if status > 0 {
		e.Metadata["provider_status"] = fmt.Sprintf("%d", status)
	}
	if message != "" {
		e.Metadata["provider_message"] = message
	}
	return e
}
