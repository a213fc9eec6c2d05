package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"privacy-checkout/internal/config"
	"privacy-checkout/internal/model"
)

const sunizeProvider = "Sunize"

var sunizeStatuses = map[string]model.PaymentStatus{
	"paid":      model.PaymentStatusPaid,
	"approved":  model.PaymentStatusPaid,
	"failed":    model.PaymentStatusFailed,
	"cancelled": model.PaymentStatusFailed,
}

type sunizeClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
	apiSecret  string
}

type sunizeItem struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Quantity    int         `json:"quantity"`
	IsPhysical  bool        `json:"is_physical"`
}

type sunizeCustomer struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	DocumentType string `json:"document_type"`
	Document     string `json:"document"`
}

type sunizeTransactionRequest struct {
	ExternalID    string         `json:"external_id"`
	TotalAmount   json.Number    `json:"total_amount"`
	PaymentMethod string         `json:"payment_method"`
	Items         []sunizeItem   `json:"items"`
	IP            string         `json:"ip"`
	Customer      sunizeCustomer `json:"customer"`
}

func NewSunizeClient(cfg *config.Sunize, httpClient *http.Client) PaymentGateway {
	return &sunizeClientImpl{
		httpClient: httpClient,
		baseApiURL: strings.TrimRight(cfg.BaseApiURL, "/"),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
	}
}

func (c *sunizeClientImpl) Name() string {
	return sunizeProvider
}

func (c *sunizeClientImpl) headers() map[string]string {
	return map[string]string{
		"x-api-key":    c.apiKey,
		"x-api-secret": c.apiSecret,
	}
}

func (c *sunizeClientImpl) CreateTransaction(ctx context.Context, req *model.TransactionRequest) (json.RawMessage, error) {
	items := make([]sunizeItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = sunizeItem{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			Price:       json.Number(item.Price.StringFixed(2)),
			Quantity:    item.Quantity,
		}
	}

	payload := sunizeTransactionRequest{
		ExternalID:    req.ExternalID,
		TotalAmount:   json.Number(req.Amount.StringFixed(2)),
		PaymentMethod: "PIX",
		Items:         items,
		IP:            req.IP,
		Customer: sunizeCustomer{
			Name:         req.Customer.Name,
			Email:        req.Customer.Email,
			Phone:        req.Customer.Phone,
			DocumentType: "CPF",
			Document:     req.Customer.Document,
		},
	}

	body, err := doJSON(ctx, c.httpClient, sunizeProvider, http.MethodPost,
		c.baseApiURL+"/v1/transactions", c.headers(), payload)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("decode %s response: invalid json", sunizeProvider)
	}
	return body, nil
}

func (c *sunizeClientImpl) GetTransactionStatus(ctx context.Context, transactionID string) (model.PaymentStatus, error) {
	body, err := doJSON(ctx, c.httpClient, sunizeProvider, http.MethodGet,
		c.baseApiURL+"/v1/transactions/"+url.PathEscape(transactionID), c.headers(), nil)
	if err != nil {
		return "", err
	}

	status, err := decodeStatus(sunizeProvider, body)
	if err != nil {
		return "", err
	}
	return mapStatus(sunizeStatuses, status), nil
}
