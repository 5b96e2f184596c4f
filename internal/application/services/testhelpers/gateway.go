package testhelpers

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/stretchr/testify/mock"
)

// MockGatewayClient is a testify mock of application.GatewayClient. CaptureDelay holds
// every capture call open long enough for concurrent triggers to overlap.
type MockGatewayClient struct {
	mock.Mock

	CaptureDelay time.Duration
	captures     atomic.Int32
}

func NewMockGatewayClient() *MockGatewayClient {
	return &MockGatewayClient{}
}

func (m *MockGatewayClient) CreateRemoteOrder(ctx context.Context, req application.CreateRemoteOrderRequest) (*application.RemoteOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.RemoteOrder), args.Error(1)
}

func (m *MockGatewayClient) CapturePayment(ctx context.Context, remoteOrderID string) (*application.CaptureResult, error) {
	m.captures.Add(1)
	if m.CaptureDelay > 0 {
		time.Sleep(m.CaptureDelay)
	}
	args := m.Called(ctx, remoteOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.CaptureResult), args.Error(1)
}

func (m *MockGatewayClient) GetRemoteOrder(ctx context.Context, remoteOrderID string) (*application.RemoteOrder, error) {
	args := m.Called(ctx, remoteOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.RemoteOrder), args.Error(1)
}

func (m *MockGatewayClient) VerifyWebhookSignature(ctx context.Context, headers http.Header, rawBody []byte) bool {
	args := m.Called(ctx, headers, rawBody)
	return args.Bool(0)
}

// Captures counts CapturePayment calls, including ones still sleeping.
func (m *MockGatewayClient) Captures() int {
	return int(m.captures.Load())
}

// ExpectCreate makes every CreateRemoteOrder answer with a fresh provider order id.
func (m *MockGatewayClient) ExpectCreate(providerOrderID string) *mock.Call {
	return m.On("CreateRemoteOrder", mock.Anything, mock.Anything).
		Return(&application.RemoteOrder{
			ID:          providerOrderID,
			Status:      application.RemoteStatusCreated,
			ApprovalURL: "https://www.sandbox.paypal.com/checkoutnow?token=" + providerOrderID,
		}, nil)
}

func (m *MockGatewayClient) ExpectCaptureSuccess(providerOrderID string) *mock.Call {
	return m.On("CapturePayment", mock.Anything, providerOrderID).
		Return(CaptureSuccess(providerOrderID), nil)
}
