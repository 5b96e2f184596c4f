package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/config"
)

// RetryGatewayClient retries the read-only and request-id guarded calls. Captures are
// passed through untouched: their outcome is settled by the capture flow itself.
type RetryGatewayClient struct {
	inner      application.GatewayClient
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryGatewayClient(inner application.GatewayClient, cfg config.RetryConfig) *RetryGatewayClient {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryGatewayClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
	}
}

func (r *RetryGatewayClient) CreateRemoteOrder(ctx context.Context, req application.CreateRemoteOrderRequest) (*application.RemoteOrder, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*application.RemoteOrder, error) {
			return r.inner.CreateRemoteOrder(ctx, req)
		},
	)
}

func (r *RetryGatewayClient) GetRemoteOrder(ctx context.Context, remoteOrderID string) (*application.RemoteOrder, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*application.RemoteOrder, error) {
			return r.inner.GetRemoteOrder(ctx, remoteOrderID)
		},
	)
}

func (r *RetryGatewayClient) CapturePayment(ctx context.Context, remoteOrderID string) (*application.CaptureResult, error) {
	return r.inner.CapturePayment(ctx, remoteOrderID)
}

func (r *RetryGatewayClient) VerifyWebhookSignature(ctx context.Context, headers http.Header, rawBody []byte) bool {
	return r.inner.VerifyWebhookSignature(ctx, headers, rawBody)
}

// Generic retry helper
func retry[T any](r *RetryGatewayClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if gwErr, ok := application.IsGatewayError(err); ok {
		return gwErr.IsRetryable()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Backoff calculation with exponential delay and jitter
func (r *RetryGatewayClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	var jitter time.Duration
	if r.baseDelay > 0 {
		jitter = time.Duration(rand.Int63n(int64(r.baseDelay)))
	}

	return base + jitter
}
