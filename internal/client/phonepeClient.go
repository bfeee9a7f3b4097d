package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"order-reconciliation-service/internal/config"
	"strings"
	"sync"
	"time"
)

type phonePeClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	clientID      string
	clientSecret  string
	clientVersion string
	retry         RetryPolicy

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type phonePeTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	TokenType   string `json:"token_type"`
}

type phonePeOrderStatusResponse struct {
	OrderID string `json:"orderId"`
	State   string `json:"state"`
	Amount  int64  `json:"amount"`
}

func NewPhonePeClient(cfg *config.PhonePe, retry RetryPolicy) PaymentGateway {
	return &phonePeClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    strings.TrimRight(cfg.BaseApiURL, "/"),
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		clientVersion: cfg.ClientVersion,
		retry:         retry,
	}
}

func (c *phonePeClientImpl) Name() string { return "PHONEPE" }

func (c *phonePeClientImpl) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_version", c.clientVersion)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/v1/oauth/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var res phonePeTokenResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", &decodeError{err: err}
	}
	if res.AccessToken == "" {
		return "", &decodeError{err: fmt.Errorf("empty access_token")}
	}

	c.accessToken = res.AccessToken
	// refresh a minute early
	c.expiresAt = time.Unix(res.ExpiresAt, 0).Add(-time.Minute)

	return c.accessToken, nil
}

func (c *phonePeClientImpl) OrderStatus(ctx context.Context, merchantOrderID string) (*GatewayOrderStatus, error) {
	var result *GatewayOrderStatus
	err := c.retry.Do(ctx, func() error {
		var err error
		result, err = c.orderStatusOnce(ctx, merchantOrderID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("phonepe order status: %w", err)
	}
	return result, nil
}

func (c *phonePeClientImpl) orderStatusOnce(ctx context.Context, merchantOrderID string) (*GatewayOrderStatus, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get phonepe access token: %w", err)
	}

	statusURL := fmt.Sprintf(
		"%s/checkout/v2/order/%s/status",
		c.baseApiURL,
		url.PathEscape(merchantOrderID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	req.Header.Set("Authorization", "O-Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("phonepe status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.accessToken = ""
		c.mu.Unlock()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var status phonePeOrderStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, &decodeError{err: err}
	}

	return &GatewayOrderStatus{
		State: strings.ToUpper(status.State),
		Raw:   json.RawMessage(body),
	}, nil
}
