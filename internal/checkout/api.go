package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"privacy-checkout/internal/dto"
	"privacy-checkout/internal/model"
)

// API is the storefront's view of its own backend.
type API interface {
	// CreatePix returns the gateway transaction object as relayed by the backend.
	CreatePix(ctx context.Context, req *dto.CreatePixRequest) (json.RawMessage, error)
	CheckPaymentStatus(ctx context.Context, transactionID string) (model.PaymentStatus, error)
}

// APIError is a non-2xx answer from the backend. Message is its {"error"}
// text when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type apiClientImpl struct {
	httpClient *http.Client
	baseURL    string
}

func NewAPIClient(baseURL string, httpClient *http.Client) API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &apiClientImpl{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *apiClientImpl) CreatePix(ctx context.Context, req *dto.CreatePixRequest) (json.RawMessage, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal create pix request: %w", err)
	}

	return c.do(ctx, http.MethodPost, c.baseURL+"/api/create-pix", bytes.NewReader(b))
}

func (c *apiClientImpl) CheckPaymentStatus(ctx context.Context, transactionID string) (model.PaymentStatus, error) {
	q := url.Values{}
	q.Set("transactionId", transactionID)

	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/check-payment-status?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	var res dto.PaymentStatusResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode payment status: %w", err)
	}
	return res.Status, nil
}

func (c *apiClientImpl) do(ctx context.Context, method, target string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: e.Error}
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	return respBody, nil
}
