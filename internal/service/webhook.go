package service

import (
	"context"

	"privacy-checkout/internal/model"
	"privacy-checkout/internal/pix"
	"privacy-checkout/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// WebhookService accepts gateway notifications. It has no error path: the
// sender must always see success or it retries forever.
type WebhookService interface {
	HandleWebhook(ctx context.Context, provider string, body []byte) *model.WebhookReceipt
}

type webhookServiceImpl struct {
	receiptRepo repository.WebhookReceiptRepository
	logger      echo.Logger
}

func NewWebhookService(receiptRepo repository.WebhookReceiptRepository, logger echo.Logger) WebhookService {
	return &webhookServiceImpl{
		receiptRepo: receiptRepo,
		logger:      logger,
	}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, provider string, body []byte) *model.WebhookReceipt {
	receipt := &model.WebhookReceipt{
		Provider: provider,
		Payload:  string(body),
	}

	obj, err := pix.Decode(body)
	if err != nil {
		s.logger.Errorf("[webhook] %s: unparsable payload: %v", provider, err)
	} else {
		receipt.Parsed = true
		receipt.EventType = firstField(obj, []string{"event"}, []string{"type"}, []string{"event_type"})
		receipt.ExternalID = pix.TransactionID(obj)
		receipt.Status = firstField(obj, []string{"status"}, []string{"data", "status"})

		s.logger.Infoj(log.JSON{
			"msg":            "[webhook] payload received",
			"provider":       provider,
			"event":          receipt.EventType,
			"transaction_id": receipt.ExternalID,
			"status":         receipt.Status,
		})
	}

	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		s.logger.Errorf("[webhook] %s: store receipt: %v", provider, err)
	}
	return receipt
}

func firstField(obj map[string]any, paths ...[]string) string {
	for _, p := range paths {
		if v := pix.Field(obj, p...); v != "" {
			return v
		}
	}
	return ""
}
