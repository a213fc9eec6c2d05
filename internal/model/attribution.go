package model

const DirectTraffic = "direct"

// UTMKeys lists the tracked attribution parameters in the order they are
// serialized into external references.
var UTMKeys = []string{"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term"}

type UTM struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Content  string `json:"utm_content,omitempty"`
	Term     string `json:"utm_term,omitempty"`
}

// Get and Set address a parameter by its UTMKeys name.
func (u UTM) Get(key string) string {
	switch key {
	case "utm_source":
		return u.Source
	case "utm_medium":
		return u.Medium
	case "utm_campaign":
		return u.Campaign
	case "utm_content":
		return u.Content
	case "utm_term":
		return u.Term
	}
	return ""
}

func (u *UTM) Set(key, value string) {
	switch key {
	case "utm_source":
		u.Source = value
	case "utm_medium":
		u.Medium = value
	case "utm_campaign":
		u.Campaign = value
	case "utm_content":
		u.Content = value
	case "utm_term":
		u.Term = value
	}
}

func (u UTM) IsEmpty() bool {
	return u == UTM{}
}

// WithDefaults fills every missing parameter with DirectTraffic.
func (u UTM) WithDefaults() UTM {
	out := u
	for _, k := range UTMKeys {
		if out.Get(k) == "" {
			out.Set(k, DirectTraffic)
		}
	}
	return out
}

// AttributionEvent is the order snapshot sent to the marketing attribution service.
// Money is in cents. Null dates mean "not applicable yet".
type AttributionEvent struct {
	OrderID            string               `json:"orderId"`
	Platform           string               `json:"platform"`
	PaymentMethod      string               `json:"paymentMethod"`
	Status             string               `json:"status"`
	CreatedAt          *string              `json:"createdAt"`
	ApprovedDate       *string              `json:"approvedDate"`
	RefundedAt         *string              `json:"refundedAt"`
	Customer           AttributionCustomer  `json:"customer"`
	Products           []AttributionProduct `json:"products"`
	TrackingParameters TrackingParameters   `json:"trackingParameters"`
	Commission         Commission           `json:"commission"`
	IsTest             bool                 `json:"isTest"`
	ExternalID         string               `json:"externalId"`
}

type AttributionCustomer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
	Country  string `json:"country"`
	IP       string `json:"ip"`
}

type AttributionProduct struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PlanID       *string `json:"planId"`
	PlanName     *string `json:"planName"`
	Quantity     int     `json:"quantity"`
	PriceInCents int64   `json:"priceInCents"`
}

type TrackingParameters struct {
	Src         string  `json:"src"`
	Sck         *string `json:"sck"`
	UTMSource   string  `json:"utm_source"`
	UTMCampaign string  `json:"utm_campaign"`
	UTMMedium   string  `json:"utm_medium"`
	UTMContent  string  `json:"utm_content"`
	UTMTerm     string  `json:"utm_term"`
}

type Commission struct {
	TotalPriceInCents     int64 `json:"totalPriceInCents"`
	GatewayFeeInCents     int64 `json:"gatewayFeeInCents"`
	UserCommissionInCents int64 `json:"userCommissionInCents"`
}
