package dto

import "privacy-checkout/internal/model"

type Item struct {
	Title       string `json:"title"`
	UnitPrice   int64  `json:"unitPrice"` // cents
	Quantity    int    `json:"quantity"`
	ExternalRef string `json:"externalRef,omitempty"`
}

type Customer struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Document string `json:"document,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// CreatePixRequest is the storefront's charge request. Amount is deliberately
// untyped: it may be a cents integer, a reais decimal or a formatted string.
type CreatePixRequest struct {
	Amount        any            `json:"amount"`
	Description   string         `json:"description,omitempty"`
	PaymentMethod string         `json:"paymentMethod,omitempty"`
	Customer      *Customer      `json:"customer,omitempty"`
	Items         []Item         `json:"items,omitempty"`
	UTMData       map[string]any `json:"utmData,omitempty"`
}

// UTM keeps the recognised, non-empty string parameters.
func (r *CreatePixRequest) UTM() model.UTM {
	var utm model.UTM
	for _, k := range model.UTMKeys {
		if v, ok := r.UTMData[k].(string); ok && v != "" {
			utm.Set(k, v)
		}
	}
	return utm
}

type PaymentStatusResponse struct {
	Status model.PaymentStatus `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type WebhookAck struct {
	OK bool `json:"ok"`
}
