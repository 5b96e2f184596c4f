package gateway

import "encoding/json"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnitRequest struct {
	ReferenceID string `json:"reference_id"`
	Description string `json:"description,omitempty"`
	Amount      amount `json:"amount"`
}

type applicationContext struct {
	BrandName   string `json:"brand_name,omitempty"`
	LandingPage string `json:"landing_page"`
	UserAction  string `json:"user_action"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
}

type createOrderRequest struct {
	Intent             string                `json:"intent"`
	PurchaseUnits      []purchaseUnitRequest `json:"purchase_units"`
	ApplicationContext applicationContext    `json:"application_context"`
}

type link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount amount `json:"amount"`
}

type purchaseUnit struct {
	ReferenceID string `json:"reference_id"`
	Payments    struct {
		Captures []capture `json:"captures"`
	} `json:"payments"`
}

type payer struct {
	PayerID      string `json:"payer_id"`
	EmailAddress string `json:"email_address"`
}

// orderResponse covers the create, capture and lookup answers, which share one shape.
type orderResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Links         []link         `json:"links"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
	Payer         *payer         `json:"payer"`
}

func (o *orderResponse) approvalURL() string {
	for _, l := range o.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

func (o *orderResponse) firstCapture() *capture {
	for _, unit := range o.PurchaseUnits {
		if len(unit.Payments.Captures) > 0 {
			return &unit.Payments.Captures[0]
		}
	}
	return nil
}

type errorDetail struct {
	Field       string `json:"field"`
	Issue       string `json:"issue"`
	Description string `json:"description"`
}

type errorResponse struct {
	Name             string        `json:"name"`
	Message          string        `json:"message"`
	DebugID          string        `json:"debug_id"`
	Details          []errorDetail `json:"details"`
	Error            string        `json:"error"`
	ErrorDescription string        `json:"error_description"`
}

// code is the most specific identifier the provider gave: the first detail issue,
// then the error name.
func (e *errorResponse) code() string {
	for _, d := range e.Details {
		if d.Issue != "" {
			return d.Issue
		}
	}
	if e.Name != "" {
		return e.Name
	}
	return e.Error
}

func (e *errorResponse) message() string {
	for _, d := range e.Details {
		if d.Description != "" {
			return d.Description
		}
	}
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorDescription
}

type verifySignatureRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifySignatureResponse struct {
	VerificationStatus string `json:"verification_status"`
}
