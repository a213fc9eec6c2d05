package attribution

import (
	"context"

	"privacy-checkout/internal/client"
	"privacy-checkout/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type logOnlyClient struct {
	logger echo.Logger
}

// NewLogOnlyClient stands in for the attribution service when no token is
// configured: events are written to the log instead of delivered.
func NewLogOnlyClient(logger echo.Logger) client.AttributionClient {
	return &logOnlyClient{logger: logger}
}

func (c *logOnlyClient) SendOrder(_ context.Context, event *model.AttributionEvent) error {
	c.logger.Infoj(log.JSON{
		"attribution": "not delivered, no token",
		"order_id":    event.OrderID,
		"external_id": event.ExternalID,
		"cents":       event.Commission.TotalPriceInCents,
	})
	return nil
}
