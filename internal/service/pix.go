package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"privacy-checkout/internal/amount"
	"privacy-checkout/internal/attribution"
	"privacy-checkout/internal/client"
	"privacy-checkout/internal/customer"
	"privacy-checkout/internal/dto"
	"privacy-checkout/internal/model"
	"privacy-checkout/internal/pix"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

var ErrMissingParameter = errors.New("missing parameter")

const (
	defaultTitle           = "Assinatura Privacy"
	defaultItemDescription = "Pagamento Privacy"
)

type PixService interface {
	CreatePix(ctx context.Context, req *dto.CreatePixRequest, buyerIP string) (*model.Transaction, error)
	CheckPaymentStatus(ctx context.Context, transactionID string) (model.PaymentStatus, error)
}

type pixServiceImpl struct {
	gateway   client.PaymentGateway
	selector  customer.Selector
	forwarder attribution.Forwarder
	logger    echo.Logger
	platform  string
	isTest    bool
	now       func() time.Time
}

type PixOption func(*pixServiceImpl)

// WithPlatform sets the platform name reported to the attribution service.
// It defaults to the gateway name.
func WithPlatform(platform string) PixOption {
	return func(s *pixServiceImpl) {
		if platform != "" {
			s.platform = platform
		}
	}
}

func WithTestMode(isTest bool) PixOption {
	return func(s *pixServiceImpl) {
		s.isTest = isTest
	}
}

func WithClock(now func() time.Time) PixOption {
	return func(s *pixServiceImpl) {
		s.now = now
	}
}

func NewPixService(
	gateway client.PaymentGateway,
	selector customer.Selector,
	forwarder attribution.Forwarder,
	logger echo.Logger,
	opts ...PixOption,
) PixService {
	s := &pixServiceImpl{
		gateway:   gateway,
		selector:  selector,
		forwarder: forwarder,
		logger:    logger,
		platform:  gateway.Name(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *pixServiceImpl) CreatePix(ctx context.Context, req *dto.CreatePixRequest, buyerIP string) (*model.Transaction, error) {
	reais, err := amount.Normalize(req.Amount)
	if err != nil {
		return nil, err
	}

	buyer := s.selector.Pick()
	utm := req.UTM()
	now := s.now()
	externalID := ExternalReference(now, utm)

	title := req.Description
	if title == "" {
		title = defaultTitle
	}
	itemDescription := req.Description
	if itemDescription == "" {
		itemDescription = defaultItemDescription
	}

	if req.Customer != nil || len(req.Items) > 0 {
		contact := ""
		if req.Customer != nil {
			contact = req.Customer.Email
		}
		s.logger.Infoj(log.JSON{
			"msg":         "[pix] storefront order details",
			"external_id": externalID,
			"contact":     contact,
			"items":       len(req.Items),
		})
	}

	raw, err := s.gateway.CreateTransaction(ctx, &model.TransactionRequest{
		ExternalID:  externalID,
		Amount:      reais,
		Description: title,
		Items: []model.Item{{
			ID:          "item_" + strconv.FormatInt(now.UnixMilli(), 10),
			Title:       title,
			Description: itemDescription,
			Price:       reais,
			Quantity:    1,
		}},
		IP:       buyerIP,
		Customer: buyer,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s transaction: %w", s.gateway.Name(), err)
	}

	obj, err := pix.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pix.ErrPixPayloadMissing, err)
	}
	payload, err := pix.Payload(obj)
	if err != nil {
		s.logger.Errorf("[pix] %s returned no payload for %s: %s", s.gateway.Name(), externalID, raw)
		return nil, err
	}
	transactionID := pix.TransactionID(obj)

	s.logger.Infof("[pix] created transaction %s (external %s, %s reais)", transactionID, externalID, reais.StringFixed(2))

	s.forwarder.Send(attribution.BuildEvent(s.platform, s.isTest, attribution.Order{
		TransactionID: transactionID,
		ExternalID:    externalID,
		Customer:      buyer,
		IP:            buyerIP,
		Amount:        reais,
		ProductName:   req.Description,
		UTM:           utm,
		CreatedAt:     now,
	}))

	return &model.Transaction{
		ID:         transactionID,
		PixPayload: payload,
		Raw:        raw,
	}, nil
}

func (s *pixServiceImpl) CheckPaymentStatus(ctx context.Context, transactionID string) (model.PaymentStatus, error) {
	if strings.TrimSpace(transactionID) == "" {
		return "", fmt.Errorf("%w: transactionId", ErrMissingParameter)
	}

	status, err := s.gateway.GetTransactionStatus(ctx, transactionID)
	if err != nil {
		return "", fmt.Errorf("get %s transaction status: %w", s.gateway.Name(), err)
	}
	return status, nil
}

// ExternalReference builds the opaque id sent to the gateway:
// transaction_<unix ms>?utm_source=..&utm_medium=..&utm_campaign=..&utm_content=..&utm_term=..
// Two charges created in the same millisecond with the same parameters collide.
func ExternalReference(now time.Time, utm model.UTM) string {
	utm = utm.WithDefaults()

	var b strings.Builder
	b.WriteString("transaction_")
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	for i, k := range model.UTMKeys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(utm.Get(k)))
	}
	return b.String()
}
