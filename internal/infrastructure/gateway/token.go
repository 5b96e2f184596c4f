package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gonomads/payment-service/internal/application"
)

// tokenRefreshMargin retires a token this long before the provider would.
const tokenRefreshMargin = 60 * time.Second

// tokenSource caches the client-credentials token shared by every call.
type tokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating token request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &application.GatewayError{Operation: "oauth token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &application.GatewayError{Operation: "oauth token", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", newGatewayError("oauth token", resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("error decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", &application.GatewayError{Operation: "oauth token", StatusCode: resp.StatusCode, Message: "empty access token"}
	}

	s.token = tok.AccessToken
	s.expiresAt = s.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenRefreshMargin)
	return s.token, nil
}

// invalidate drops the cached token after the provider rejected it.
func (s *tokenSource) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}
