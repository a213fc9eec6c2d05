package repository

import (
	"context"
	"time"

	"privacy-checkout/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebhookReceiptRepository interface {
	Create(ctx context.Context, receipt *model.WebhookReceipt) error
	FindByExternalID(ctx context.Context, provider, externalID string) ([]*model.WebhookReceipt, error)
}

type webhookReceiptRepoImpl struct {
	db *gorm.DB
}

func NewWebhookReceiptRepository(db *gorm.DB) WebhookReceiptRepository {
	return &webhookReceiptRepoImpl{db: db}
}

func (r *webhookReceiptRepoImpl) Create(ctx context.Context, receipt *model.WebhookReceipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *webhookReceiptRepoImpl) FindByExternalID(ctx context.Context, provider, externalID string) ([]*model.WebhookReceipt, error) {
	var receipts []*model.WebhookReceipt
	err := r.db.WithContext(ctx).
		Where("provider = ? AND external_id = ?", provider, externalID).
		Order("created_at").
		Find(&receipts).
		Error

	if err != nil {
		return nil, err
	}

	return receipts, nil
}
