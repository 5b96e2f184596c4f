package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/config"
)

const (
	verifyModeLocal = "local"
	algoSHA256RSA   = "SHA256withRSA"
)

// PayPalClient talks to the PayPal REST API: checkout orders, captures and webhook verification.
type PayPalClient struct {
	baseURL    string
	brandName  string
	returnURL  string
	cancelURL  string
	webhookID  string
	verifyMode string
	httpClient *http.Client
	tokens     *tokenSource
	certs      *certVerifier
	logger     *slog.Logger
}

type Option func(*PayPalClient)

// WithHTTPClient replaces the default client, e.g. to trust a test server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *PayPalClient) { c.httpClient = hc }
}

func NewPayPalClient(cfg config.GatewayConfig, logger *slog.Logger, opts ...Option) *PayPalClient {
	c := &PayPalClient{
		baseURL:    cfg.BaseURL,
		brandName:  cfg.BrandName,
		returnURL:  cfg.ReturnURL,
		cancelURL:  cfg.CancelURL,
		webhookID:  cfg.WebhookID,
		verifyMode: cfg.VerifyMode,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.tokens = &tokenSource{
		tokenURL:     c.baseURL + "/v1/oauth2/token",
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   c.httpClient,
		now:          time.Now,
	}
	c.certs = newCertVerifier(c.httpClient, cfg.CertHostSuffix, logger)
	return c
}

func (c *PayPalClient) CreateRemoteOrder(ctx context.Context, req application.CreateRemoteOrderRequest) (*application.RemoteOrder, error) {
	body := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnitRequest{{
			ReferenceID: req.ReferenceID,
			Description: req.Description,
			Amount: amount{
				CurrencyCode: req.Amount.Currency,
				Value:        req.Amount.Value(),
			},
		}},
		ApplicationContext: applicationContext{
			BrandName:   c.brandName,
			LandingPage: "LOGIN",
			UserAction:  "PAY_NOW",
			ReturnURL:   c.returnURL,
			CancelURL:   c.cancelURL,
		},
	}

	endpoint := fmt.Sprintf("%s/v2/checkout/orders", c.baseURL)
	resp, _, err := sendRequest[createOrderRequest, orderResponse](c, ctx, "create order", http.MethodPost, endpoint, &body, "create-"+req.ReferenceID)
	if err != nil {
		return nil, err
	}

	c.logger.Info("remote order created", "provider_order_id", resp.ID, "reference_id", req.ReferenceID, "status", resp.Status)
	return toRemoteOrder(resp), nil
}

// CapturePayment captures an approved order. The request id makes repeated captures of
// the same order safe at the provider.
func (c *PayPalClient) CapturePayment(ctx context.Context, remoteOrderID string) (*application.CaptureResult, error) {
	endpoint := fmt.Sprintf("%s/v2/checkout/orders/%s/capture", c.baseURL, url.PathEscape(remoteOrderID))
	empty := struct{}{}
	resp, raw, err := sendRequest[struct{}, orderResponse](c, ctx, "capture", http.MethodPost, endpoint, &empty, "capture-"+remoteOrderID)
	if err != nil {
		gwErr, ok := application.IsGatewayError(err)
		if !ok {
			return nil, err
		}
		switch {
		case gwErr.Code == issueOrderAlreadyCaptured:
			c.logger.Info("order already captured, loading capture", "provider_order_id", remoteOrderID)
			return c.capturedFromLookup(ctx, remoteOrderID)
		case gwErr.Code == issueOrderNotApproved, !isDefinitiveDecline(gwErr):
			return nil, gwErr
		}
		return &application.CaptureResult{
			Success:      false,
			Status:       gwErr.Code,
			ErrorCode:    gwErr.Code,
			ErrorMessage: gwErr.Message,
			RawResponse:  string(raw),
		}, nil
	}

	return captureResult(resp, string(raw)), nil
}

func (c *PayPalClient) capturedFromLookup(ctx context.Context, remoteOrderID string) (*application.CaptureResult, error) {
	resp, raw, err := c.lookup(ctx, remoteOrderID)
	if err != nil {
		return nil, err
	}
	return captureResult(resp, string(raw)), nil
}

func (c *PayPalClient) GetRemoteOrder(ctx context.Context, remoteOrderID string) (*application.RemoteOrder, error) {
	resp, _, err := c.lookup(ctx, remoteOrderID)
	if err != nil {
		return nil, err
	}
	return toRemoteOrder(resp), nil
}

func (c *PayPalClient) lookup(ctx context.Context, remoteOrderID string) (*orderResponse, []byte, error) {
	endpoint := fmt.Sprintf("%s/v2/checkout/orders/%s", c.baseURL, url.PathEscape(remoteOrderID))
	return sendRequest[any, orderResponse](c, ctx, "get order", http.MethodGet, endpoint, nil, "")
}

// VerifyWebhookSignature checks a delivery against the configured webhook id.
func (c *PayPalClient) VerifyWebhookSignature(ctx context.Context, headers http.Header, rawBody []byte) bool {
	sig, ok := parseSignatureHeaders(headers)
	if !ok || c.webhookID == "" {
		return false
	}
	if c.verifyMode == verifyModeLocal {
		return c.certs.Verify(ctx, sig, c.webhookID, rawBody)
	}
	return c.verifyRemote(ctx, sig, rawBody)
}

func (c *PayPalClient) verifyRemote(ctx context.Context, sig signatureHeaders, rawBody []byte) bool {
	if !json.Valid(rawBody) {
		return false
	}
	body := verifySignatureRequest{
		AuthAlgo:         sig.authAlgo,
		CertURL:          sig.certURL,
		TransmissionID:   sig.transmissionID,
		TransmissionSig:  sig.transmissionSig,
		TransmissionTime: sig.transmissionTime,
		WebhookID:        c.webhookID,
		WebhookEvent:     json.RawMessage(rawBody),
	}

	endpoint := fmt.Sprintf("%s/v1/notifications/verify-webhook-signature", c.baseURL)
	resp, _, err := sendRequest[verifySignatureRequest, verifySignatureResponse](c, ctx, "verify webhook", http.MethodPost, endpoint, &body, "")
	if err != nil {
		c.logger.Warn("webhook verification call failed", "transmission_id", sig.transmissionID, "error", err)
		return false
	}
	return resp.VerificationStatus == "SUCCESS"
}

// sendRequest performs one authenticated JSON exchange. It returns the raw body with
// both successes and provider errors so callers can keep it for audit.
func sendRequest[Req any, Resp any](c *PayPalClient, ctx context.Context, operation, method, endpoint string, reqBody *Req, requestID string) (*Resp, []byte, error) {
	var payload []byte
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, nil, fmt.Errorf("error marshalling json: %w", err)
		}
		payload = jsonData
	}

	for attempt := 0; ; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, nil, err
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
		httpReq.Header.Set("Accept", "application/json")
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if requestID != "" {
			httpReq.Header.Set("PayPal-Request-Id", requestID)
			httpReq.Header.Set("Prefer", "return=representation")
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, nil, &application.GatewayError{Operation: operation, Err: err}
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, nil, &application.GatewayError{Operation: operation, Err: err}
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			c.tokens.invalidate()
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			gwErr := newGatewayError(operation, resp.StatusCode, body)
			c.logger.Warn("gateway request failed",
				"operation", operation,
				"status", resp.StatusCode,
				"code", gwErr.Code,
			)
			return nil, body, gwErr
		}

		var out Resp
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, body, &application.GatewayError{
				Operation:  operation,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("error decoding json response: %w", err),
			}
		}
		return &out, body, nil
	}
}

func toRemoteOrder(resp *orderResponse) *application.RemoteOrder {
	out := &application.RemoteOrder{
		ID:          resp.ID,
		Status:      resp.Status,
		ApprovalURL: resp.approvalURL(),
	}
	if first := resp.firstCapture(); first != nil {
		out.CaptureID = first.ID
	}
	if resp.Payer != nil {
		out.PayerID = resp.Payer.PayerID
		out.PayerEmail = resp.Payer.EmailAddress
	}
	return out
}

func captureResult(resp *orderResponse, raw string) *application.CaptureResult {
	remote := toRemoteOrder(resp)
	result := &application.CaptureResult{
		Success:     resp.Status == application.RemoteStatusCompleted,
		Status:      resp.Status,
		RawResponse: raw,
	}
	result.Details.CaptureID = remote.CaptureID
	result.Details.TransactionID = remote.CaptureID
	result.Details.PayerID = remote.PayerID
	result.Details.PayerEmail = remote.PayerEmail

	if !result.Success {
		result.ErrorCode = resp.Status
		result.ErrorMessage = fmt.Sprintf("remote order status is %s", resp.Status)
		if first := resp.firstCapture(); first != nil && first.Status != "" {
			result.ErrorMessage = fmt.Sprintf("capture status is %s", first.Status)
		}
	}
	return result
}
