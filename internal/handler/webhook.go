package handler

import (
	"io"
	"net/http"

	"privacy-checkout/internal/dto"
	"privacy-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// Receive always acknowledges, whatever happened to the body.
func (h *WebhookHandler) Receive(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		c.Logger().Errorf("[webhook] read body: %v", err)
	}

	h.webhookService.HandleWebhook(ctx, c.Param("gateway"), body)

	return c.JSON(http.StatusOK, dto.WebhookAck{OK: true})
}
