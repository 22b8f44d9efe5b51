package data

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recharge-service/internal/biz"
	"recharge-service/internal/conf"
	rechargeErrors "recharge-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPSP(baseURL string, timeout time.Duration) biz.PaymentIntentClient {
	return NewPaymentIntentClient(&conf.Bootstrap{
		Recharge: &conf.Recharge{
			Psp: &conf.Recharge_PSP{
				BaseUrl: baseURL,
				Timeout: &conf.Duration{Duration: timeout},
			},
		},
	}, log.NewStdLogger(io.Discard))
}

func TestCreateIntent(t *testing.T) {
	var (
		body    map[string]interface{}
		headers http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments", r.URL.Path)
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123456789, "status": "pending", "point_of_interaction": {"transaction_data": {"qr_code": "00020126PIX"}}}`))
	}))
	defer srv.Close()

	client := newTestPSP(srv.URL, time.Second)
	intent, err := client.CreateIntent(context.Background(), biz.PaymentCredential{AccessToken: "TOKEN"}, &biz.CreateIntentRequest{
		Amount:          decimal.RequireFromString("50"),
		Description:     "Pedido #abcdefgh",
		PayerEmail:      "maria@example.com",
		PayerName:       "Maria",
		NotificationURL: "https://loja/webhook",
	})
	require.NoError(t, err)
	assert.Equal(t, "123456789", intent.ProviderPaymentID)
	assert.Equal(t, "00020126PIX", intent.DisplayToken)

	assert.Equal(t, "Bearer TOKEN", headers.Get("Authorization"))
	assert.NotEmpty(t, headers.Get("X-Idempotency-Key"))
	assert.Equal(t, 50.0, body["transaction_amount"])
	assert.Equal(t, "pix", body["payment_method_id"])
	assert.Equal(t, "Pedido #abcdefgh", body["description"])
	assert.Equal(t, "https://loja/webhook", body["notification_url"])
	assert.Equal(t, map[string]interface{}{"email": "maria@example.com", "first_name": "Maria"}, body["payer"])
	_, err = time.Parse(mercadoPagoTimeFmt, body["date_of_expiration"].(string))
	assert.NoError(t, err)
}

func TestCreateIntentUsesFreshIdempotencyKey(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("X-Idempotency-Key"))
		_, _ = w.Write([]byte(`{"id": 1, "point_of_interaction": {"transaction_data": {"qr_code": "x"}}}`))
	}))
	defer srv.Close()

	client := newTestPSP(srv.URL, time.Second)
	for i := 0; i < 2; i++ {
		_, err := client.CreateIntent(context.Background(), biz.PaymentCredential{AccessToken: "T"}, &biz.CreateIntentRequest{Amount: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
}

func TestCreateIntentErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "non 2xx", status: http.StatusBadRequest, body: `{"message": "invalid transaction_amount"}`, message: "invalid transaction_amount"},
		{name: "malformed body", status: http.StatusOK, body: `not json`},
		{name: "missing qr code", status: http.StatusOK, body: `{"id": 99}`},
		{name: "missing id", status: http.StatusOK, body: `{"point_of_interaction": {"transaction_data": {"qr_code": "x"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestPSP(srv.URL, time.Second).CreateIntent(context.Background(), biz.PaymentCredential{AccessToken: "T"}, &biz.CreateIntentRequest{Amount: decimal.NewFromInt(1)})
			require.Error(t, err)
			assert.True(t, rechargeErrors.IsReason(err, rechargeErrors.ReasonProviderError))
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestCreateIntentUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := newTestPSP(srv.URL, 50*time.Millisecond).CreateIntent(context.Background(), biz.PaymentCredential{AccessToken: "T"}, &biz.CreateIntentRequest{Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.True(t, rechargeErrors.IsReason(err, rechargeErrors.ReasonUnavailable))
}

func TestGetPaymentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/42", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"id": 42, "status": "approved"}`))
	}))
	defer srv.Close()

	status, err := newTestPSP(srv.URL, time.Second).GetPaymentStatus(context.Background(), biz.PaymentCredential{AccessToken: "T"}, "42")
	require.NoError(t, err)
	assert.Equal(t, "approved", status)
}
