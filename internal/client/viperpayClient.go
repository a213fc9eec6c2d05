package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"privacy-checkout/internal/amount"
	"privacy-checkout/internal/config"
	"privacy-checkout/internal/model"
)

const viperPayProvider = "ViperPay"

var viperPayStatuses = map[string]model.PaymentStatus{
	"AUTHORIZED": model.PaymentStatusPaid,
	"FAILED":     model.PaymentStatusFailed,
	"CHARGEBACK": model.PaymentStatusFailed,
	"IN_DISPUTE": model.PaymentStatusFailed,
	"PENDING":    model.PaymentStatusWaiting,
}

type viperPayClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiSecret  string
}

type viperPayDocument struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type viperPayCustomer struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Document viperPayDocument `json:"document"`
}

type viperPayItem struct {
	Title     string `json:"title"`
	UnitPrice int64  `json:"unitPrice"` // cents
	Quantity  int    `json:"quantity"`
	Tangible  bool   `json:"tangible"`
}

type viperPayTransactionRequest struct {
	Amount        int64            `json:"amount"` // cents
	PaymentMethod string           `json:"paymentMethod"`
	ExternalRef   string           `json:"externalRef"`
	IP            string           `json:"ip"`
	Customer      viperPayCustomer `json:"customer"`
	Items         []viperPayItem   `json:"items"`
}

func NewViperPayClient(cfg *config.ViperPay, httpClient *http.Client) PaymentGateway {
	return &viperPayClientImpl{
		httpClient: httpClient,
		baseApiURL: strings.TrimRight(cfg.BaseApiURL, "/"),
		apiSecret:  cfg.APISecret,
	}
}

func (c *viperPayClientImpl) Name() string {
	return viperPayProvider
}

func (c *viperPayClientImpl) headers() map[string]string {
	return map[string]string{
		"api-secret": c.apiSecret,
	}
}

func (c *viperPayClientImpl) CreateTransaction(ctx context.Context, req *model.TransactionRequest) (json.RawMessage, error) {
	items := make([]viperPayItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = viperPayItem{
			Title:     item.Title,
			UnitPrice: amount.Cents(item.Price),
			Quantity:  item.Quantity,
		}
	}

	payload := viperPayTransactionRequest{
		Amount:        amount.Cents(req.Amount),
		PaymentMethod: "PIX",
		ExternalRef:   req.ExternalID,
		IP:            req.IP,
		Customer: viperPayCustomer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
			Document: viperPayDocument{
				Type:   "CPF",
				Number: req.Customer.Document,
			},
		},
		Items: items,
	}

	body, err := doJSON(ctx, c.httpClient, viperPayProvider, http.MethodPost,
		c.baseApiURL+"/v1/transactions", c.headers(), payload)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("decode %s response: invalid json", viperPayProvider)
	}
	return body, nil
}

func (c *viperPayClientImpl) GetTransactionStatus(ctx context.Context, transactionID string) (model.PaymentStatus, error) {
	body, err := doJSON(ctx, c.httpClient, viperPayProvider, http.MethodGet,
		c.baseApiURL+"/v1/transactions/"+url.PathEscape(transactionID), c.headers(), nil)
	if err != nil {
		return "", err
	}

	status, err := decodeStatus(viperPayProvider, body)
	if err != nil {
		return "", err
	}
	return mapStatus(viperPayStatuses, status), nil
}
