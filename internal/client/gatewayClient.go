package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"privacy-checkout/internal/config"
	"privacy-checkout/internal/model"
)

// PaymentGateway is a PIX-capable provider. Variants differ only in endpoint,
// credential headers and the request/response mapping.
type PaymentGateway interface {
	Name() string
	// CreateTransaction returns the provider's transaction object verbatim.
	CreateTransaction(ctx context.Context, req *model.TransactionRequest) (json.RawMessage, error)
	GetTransactionStatus(ctx context.Context, transactionID string) (model.PaymentStatus, error)
}

// GatewayError is a non-2xx answer from a provider. Status and body are
// surfaced to the caller as-is.
type GatewayError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.StatusCode, e.Body)
}

func NewPaymentGateway(cfg *config.Config) (PaymentGateway, error) {
	httpClient := &http.Client{
		Timeout: cfg.Gateway.Timeout,
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = 30 * time.Second
	}

	switch cfg.Gateway.Provider {
	case config.ProviderSunize:
		return NewSunizeClient(&cfg.Sunize, httpClient), nil
	case config.ProviderViperPay:
		return NewViperPayClient(&cfg.ViperPay, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.Gateway.Provider)
	}
}

// mapStatus resolves a provider status through its table. Anything unknown
// stays waiting so a new upstream status is never read as paid.
func mapStatus(table map[string]model.PaymentStatus, status string) model.PaymentStatus {
	if s, ok := table[status]; ok {
		return s
	}
	return model.PaymentStatusWaiting
}

func doJSON(
	ctx context.Context,
	httpClient *http.Client,
	provider, method, url string,
	headers map[string]string,
	payload any,
) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

func decodeStatus(provider string, body []byte) (string, error) {
	var res struct {
		Status string `json:"status"`
		Data   struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode %s transaction: %w", provider, err)
	}
	if res.Status != "" {
		return res.Status, nil
	}
	return res.Data.Status, nil
}
