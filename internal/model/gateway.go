package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusWaiting PaymentStatus = "waiting"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type Item struct {
	ID          string
	Title       string
	Description string
	Price       decimal.Decimal // reais
	Quantity    int
}

// TransactionRequest is the provider-neutral charge handed to a PaymentGateway.
type TransactionRequest struct {
	ExternalID  string
	Amount      decimal.Decimal // reais
	Description string
	Items       []Item
	IP          string
	Customer    Customer
}

// Transaction is the gateway's answer to a creation call. Raw is forwarded to
// the browser untouched.
type Transaction struct {
	ID         string
	PixPayload string
	Raw        json.RawMessage
}
