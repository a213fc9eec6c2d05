package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"privacy-checkout/internal/config"
	"privacy-checkout/internal/model"
)

const utmifyProvider = "Utmify"

// AttributionClient delivers order events to the marketing attribution service.
type AttributionClient interface {
	SendOrder(ctx context.Context, event *model.AttributionEvent) error
}

type utmifyClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiToken   string
}

func NewUtmifyClient(cfg *config.Utmify) AttributionClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &utmifyClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL: strings.TrimRight(cfg.BaseApiURL, "/"),
		apiToken:   cfg.APIToken,
	}
}

func (c *utmifyClientImpl) SendOrder(ctx context.Context, event *model.AttributionEvent) error {
	_, err := doJSON(ctx, c.httpClient, utmifyProvider, http.MethodPost,
		c.baseApiURL+"/api-credentials/orders",
		map[string]string{"x-api-token": c.apiToken},
		event,
	)
	return err
}
