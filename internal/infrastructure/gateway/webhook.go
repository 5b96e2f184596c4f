package gateway

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const maxCertBytes = 64 << 10

// Signature headers sent with every delivery.
const (
	HeaderTransmissionID   = "PAYPAL-TRANSMISSION-ID"
	HeaderTransmissionTime = "PAYPAL-TRANSMISSION-TIME"
	HeaderTransmissionSig  = "PAYPAL-TRANSMISSION-SIG"
	HeaderCertURL          = "PAYPAL-CERT-URL"
	HeaderAuthAlgo         = "PAYPAL-AUTH-ALGO"
)

type signatureHeaders struct {
	transmissionID   string
	transmissionTime string
	transmissionSig  string
	certURL          string
	authAlgo         string
}

func parseSignatureHeaders(h http.Header) (signatureHeaders, bool) {
	sig := signatureHeaders{
		transmissionID:   h.Get(HeaderTransmissionID),
		transmissionTime: h.Get(HeaderTransmissionTime),
		transmissionSig:  h.Get(HeaderTransmissionSig),
		certURL:          h.Get(HeaderCertURL),
		authAlgo:         h.Get(HeaderAuthAlgo),
	}
	ok := sig.transmissionID != "" && sig.transmissionTime != "" &&
		sig.transmissionSig != "" && sig.certURL != "" && sig.authAlgo != ""
	return sig, ok
}

// signedMessage is what the provider signs: transmission id, time, webhook id and the
// CRC32 of the raw body, joined by pipes.
func signedMessage(sig signatureHeaders, webhookID string, body []byte) string {
	return fmt.Sprintf("%s|%s|%s|%d", sig.transmissionID, sig.transmissionTime, webhookID, crc32.ChecksumIEEE(body))
}

// certVerifier checks signatures offline against the provider's signing certificate,
// fetched once per URL from an allowed host.
type certVerifier struct {
	httpClient *http.Client
	hostSuffix string
	now        func() time.Time
	logger     *slog.Logger

	mu    sync.Mutex
	certs map[string]*x509.Certificate
}

func newCertVerifier(hc *http.Client, hostSuffix string, logger *slog.Logger) *certVerifier {
	return &certVerifier{
		httpClient: hc,
		hostSuffix: hostSuffix,
		now:        time.Now,
		logger:     logger,
		certs:      make(map[string]*x509.Certificate),
	}
}

func (v *certVerifier) Verify(ctx context.Context, sig signatureHeaders, webhookID string, body []byte) bool {
	if sig.authAlgo != algoSHA256RSA {
		v.logger.Warn("unsupported webhook signature algorithm", "auth_algo", sig.authAlgo)
		return false
	}

	cert, err := v.certificate(ctx, sig.certURL)
	if err != nil {
		v.logger.Warn("webhook certificate unavailable", "cert_url", sig.certURL, "error", err)
		return false
	}
	now := v.now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		v.logger.Warn("webhook certificate outside validity window", "cert_url", sig.certURL)
		return false
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return false
	}

	signature, err := base64.StdEncoding.DecodeString(sig.transmissionSig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256([]byte(signedMessage(sig, webhookID, body)))
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], signature) == nil
}

func (v *certVerifier) certificate(ctx context.Context, certURL string) (*x509.Certificate, error) {
	if err := v.allowed(certURL); err != nil {
		return nil, err
	}

	v.mu.Lock()
	cached, ok := v.certs[certURL]
	v.mu.Unlock()
	if ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("certificate fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCertBytes))
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no PEM certificate at %s", certURL)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	v.mu.Lock()
	v.certs[certURL] = cert
	v.mu.Unlock()
	return cert, nil
}

// allowed only accepts https URLs on the configured provider domain.
func (v *certVerifier) allowed(certURL string) error {
	u, err := url.Parse(certURL)
	if err != nil {
		return err
	}
	if u.Scheme != "https" {
		return fmt.Errorf("certificate url must use https")
	}
	if v.hostSuffix == "" || !strings.HasSuffix(u.Hostname(), v.hostSuffix) {
		return fmt.Errorf("certificate host %q not allowed", u.Hostname())
	}
	return nil
}
