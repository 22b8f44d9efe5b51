package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"recharge-service/internal/biz"
	"recharge-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

const defaultMessagingTimeout = 5 * time.Second

var nonDigit = regexp.MustCompile(`[^\d]`)

// messageGateway WhatsApp HTTP 网关客户端
type messageGateway struct {
	baseURL    string
	httpClient *http.Client
	log        *log.Helper
}

// NewMessageGateway 创建 WhatsApp 网关客户端
func NewMessageGateway(c *conf.Bootstrap, logger log.Logger) biz.MessageGateway {
	var baseURL string
	timeout := defaultMessagingTimeout
	if c != nil && c.Recharge != nil && c.Recharge.Messaging != nil {
		baseURL = c.Recharge.Messaging.BaseUrl
		if c.Recharge.Messaging.Timeout.AsDuration() > 0 {
			timeout = c.Recharge.Messaging.Timeout.AsDuration()
		}
	}
	return &messageGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.NewHelper(logger),
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendText 发送文本消息
func (g *messageGateway) SendText(ctx context.Context, cred biz.MessagingCredential, recipient, text string) error {
	if g.baseURL == "" {
		return fmt.Errorf("messaging gateway base url not configured")
	}
	number := sanitizePhone(recipient)
	if number == "" {
		return fmt.Errorf("invalid recipient %q", recipient)
	}

	payload, err := json.Marshal(&sendTextRequest{Number: number, Text: text})
	if err != nil {
		return err
	}
	endpoint := g.baseURL + "/message/sendText/" + url.PathEscape(cred.Instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", cred.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("send text: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func sanitizePhone(phone string) string {
	return nonDigit.ReplaceAllString(phone, "")
}
