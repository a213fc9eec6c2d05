package attribution

import (
	"time"

	"privacy-checkout/internal/amount"
	"privacy-checkout/internal/model"

	"github.com/shopspring/decimal"
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	defaultProductID   = "plano1"
	defaultProductName = "Assinatura Privacy"
)

// Order is what the PIX proxy knows about a freshly created charge.
type Order struct {
	TransactionID string // gateway id, may be empty
	ExternalID    string
	Customer      model.Customer
	IP            string
	Amount        decimal.Decimal // reais
	ProductName   string
	UTM           model.UTM
	CreatedAt     time.Time
}

// FormatTimestamp renders t in UTC as YYYY-MM-DD HH:MM:SS. A nil time yields nil,
// which the attribution service reads as "not happened".
func FormatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(timestampLayout)
	return &s
}

func BuildEvent(platform string, isTest bool, o Order) *model.AttributionEvent {
	utm := o.UTM.WithDefaults()
	cents := amount.Cents(o.Amount)

	orderID := o.TransactionID
	if orderID == "" {
		orderID = o.ExternalID
	}

	productName := o.ProductName
	if productName == "" {
		productName = defaultProductName
	}

	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &model.AttributionEvent{
		OrderID:       orderID,
		Platform:      platform,
		PaymentMethod: "pix",
		Status:        "waiting_payment",
		CreatedAt:     FormatTimestamp(&createdAt),
		ApprovedDate:  FormatTimestamp(nil),
		RefundedAt:    FormatTimestamp(nil),
		Customer: model.AttributionCustomer{
			Name:     o.Customer.Name,
			Email:    o.Customer.Email,
			Phone:    o.Customer.Phone,
			Document: o.Customer.Document,
			Country:  "BR",
			IP:       o.IP,
		},
		Products: []model.AttributionProduct{{
			ID:           defaultProductID,
			Name:         productName,
			Quantity:     1,
			PriceInCents: cents,
		}},
		TrackingParameters: model.TrackingParameters{
			Src:         utm.Source,
			UTMSource:   utm.Source,
			UTMCampaign: utm.Campaign,
			UTMMedium:   utm.Medium,
			UTMContent:  utm.Content,
			UTMTerm:     utm.Term,
		},
		Commission: model.Commission{
			TotalPriceInCents:     cents,
			GatewayFeeInCents:     0,
			UserCommissionInCents: cents,
		},
		IsTest:     isTest,
		ExternalID: o.ExternalID,
	}
}
