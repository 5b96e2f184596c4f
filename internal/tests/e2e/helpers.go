package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gonomads/payment-service/internal/api"
	"github.com/stretchr/testify/require"
)

// fakePayPal plays the provider side: OAuth, orders, captures and remote signature checks.
// A capture of an already captured order answers ORDER_ALREADY_CAPTURED like the real API.
type fakePayPal struct {
	server       *httptest.Server
	captureDelay time.Duration

	mu       sync.Mutex
	orders   map[string]string
	captures atomic.Int32
	seq      atomic.Int32
}

func newFakePayPal() *fakePayPal {
	p := &fakePayPal{orders: map[string]string{}, captureDelay: 150 * time.Millisecond}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "e2e-token", "token_type": "Bearer", "expires_in": 32400})
	})
	mux.HandleFunc("POST /v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		id := fmt.Sprintf("PAY-E2E-%d", p.seq.Add(1))
		p.setStatus(id, "CREATED")
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":     id,
			"status": "CREATED",
			"links": []any{map[string]any{
				"href": "https://www.sandbox.paypal.com/checkoutnow?token=" + id,
				"rel":  "approve",
			}},
		})
	})
	mux.HandleFunc("POST /v2/checkout/orders/{id}/capture", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		p.captures.Add(1)
		time.Sleep(p.captureDelay)

		p.mu.Lock()
		status := p.orders[id]
		if status == "APPROVED" {
			p.orders[id] = "COMPLETED"
		}
		p.mu.Unlock()

		switch status {
		case "APPROVED":
			writeJSON(w, http.StatusCreated, completedOrder(id))
		case "COMPLETED":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"name":    "UNPROCESSABLE_ENTITY",
				"details": []any{map[string]any{"issue": "ORDER_ALREADY_CAPTURED", "description": "Order already captured."}},
			})
		default:
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"name":    "UNPROCESSABLE_ENTITY",
				"details": []any{map[string]any{"issue": "ORDER_NOT_APPROVED", "description": "Payer has not approved the order."}},
			})
		}
	})
	mux.HandleFunc("GET /v2/checkout/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		status := p.status(id)
		if status == "COMPLETED" {
			writeJSON(w, http.StatusOK, completedOrder(id))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
	})
	mux.HandleFunc("POST /v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		status := "FAILURE"
		if body["transmission_sig"] == "valid-signature" {
			status = "SUCCESS"
		}
		writeJSON(w, http.StatusOK, map[string]any{"verification_status": status})
	})

	p.server = httptest.NewServer(mux)
	return p
}

func (p *fakePayPal) Close() { p.server.Close() }

// approve simulates the buyer approving the order on the provider's checkout page.
func (p *fakePayPal) approve(id string) { p.setStatus(id, "APPROVED") }

func (p *fakePayPal) setStatus(id, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders[id] = status
}

func (p *fakePayPal) status(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.orders[id]
}

func completedOrder(id string) map[string]any {
	return map[string]any{
		"id":     id,
		"status": "COMPLETED",
		"payer":  map[string]any{"payer_id": "E2E-PAYER", "email_address": "buyer@example.com"},
		"purchase_units": []any{map[string]any{
			"payments": map[string]any{
				"captures": []any{map[string]any{"id": "CAP-" + id, "status": "COMPLETED"}},
			},
		}},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// envelope covers both api.ErrorResponse and the success responses, with the data left raw
// for per-call decoding.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// TestClient wraps HTTP calls to the payments API.
type TestClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *TestClient) do(t *testing.T, method, path, userID string, body any, headers http.Header) (int, envelope) {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		payload = encoded
	}

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func (c *TestClient) CreateUpgrade(t *testing.T, userID string, level, days int) api.CreateOrderData {
	t.Helper()
	status, env := c.do(t, http.MethodPost, "/api/v1/payments/orders", userID, api.CreateOrderRequest{
		OrderType:       api.MembershipUpgrade,
		MembershipLevel: &level,
		DurationDays:    &days,
	}, nil)
	require.Equal(t, http.StatusCreated, status, env.Message)

	var data api.CreateOrderData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotNil(t, data.Order)
	require.NotNil(t, data.ApprovalUrl)
	return data
}

func (c *TestClient) Capture(t *testing.T, userID, orderID, providerOrderID string) (int, envelope) {
	t.Helper()
	return c.do(t, http.MethodPost, "/api/v1/payments/orders/"+orderID+"/capture", userID,
		api.CaptureOrderRequest{ProviderOrderId: providerOrderID}, nil)
}

func (c *TestClient) GetOrder(t *testing.T, userID, orderID string) api.Order {
	t.Helper()
	status, env := c.do(t, http.MethodGet, "/api/v1/payments/orders/"+orderID, userID, nil, nil)
	require.Equal(t, http.StatusOK, status)

	var order api.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	return order
}

func (c *TestClient) Transactions(t *testing.T, userID, orderID string) []api.Transaction {
	t.Helper()
	status, env := c.do(t, http.MethodGet, "/api/v1/payments/orders/"+orderID+"/transactions", userID, nil, nil)
	require.Equal(t, http.StatusOK, status)

	var txns []api.Transaction
	require.NoError(t, json.Unmarshal(env.Data, &txns))
	return txns
}

// DeliverCaptureCompleted posts a signed PAYMENT.CAPTURE.COMPLETED event.
func (c *TestClient) DeliverCaptureCompleted(t *testing.T, eventID, providerOrderID string) (int, envelope) {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"id":%q,"event_type":"PAYMENT.CAPTURE.COMPLETED",`+
		`"resource":{"id":"CAP-%s","status":"COMPLETED","supplementary_data":{"related_ids":{"order_id":%q}}}}`,
		eventID, providerOrderID, providerOrderID))

	headers := http.Header{}
	headers.Set("PAYPAL-TRANSMISSION-ID", "tx-"+eventID)
	headers.Set("PAYPAL-TRANSMISSION-TIME", time.Now().UTC().Format(time.RFC3339))
	headers.Set("PAYPAL-TRANSMISSION-SIG", "valid-signature")
	headers.Set("PAYPAL-CERT-URL", "https://api.sandbox.paypal.com/v1/notifications/certs/CERT-1")
	headers.Set("PAYPAL-AUTH-ALGO", "SHA256withRSA")

	return c.do(t, http.MethodPost, "/payments/webhooks/provider", "", body, headers)
}
