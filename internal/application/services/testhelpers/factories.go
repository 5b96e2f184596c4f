package testhelpers

import (
	"io"
	"log/slog"
	"time"

	"github.com/gonomads/payment-service/internal/application"
	"github.com/gonomads/payment-service/internal/application/services"
	"github.com/gonomads/payment-service/internal/config"
	"github.com/gonomads/payment-service/internal/domain"
)

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func DefaultOrdersConfig() config.OrdersConfig {
	return config.OrdersConfig{
		TTL:                  30 * time.Minute,
		Currency:             "USD",
		DefaultDeposit:       "50.00",
		ProcessingStaleAfter: 2 * time.Minute,
		CaptureWaitTimeout:   2 * time.Second,
	}
}

func CaptureSuccess(providerOrderID string) *application.CaptureResult {
	return &application.CaptureResult{
		Success: true,
		Status:  application.RemoteStatusCompleted,
		Details: domain.CaptureDetails{
			CaptureID:     "CAP-" + providerOrderID,
			TransactionID: "CAP-" + providerOrderID,
			PayerID:       "PAYER123",
			PayerEmail:    "buyer@example.com",
		},
		RawResponse: `{"status":"COMPLETED"}`,
	}
}

func CaptureDeclined() *application.CaptureResult {
	return &application.CaptureResult{
		Success:      false,
		Status:       "DECLINED",
		ErrorCode:    "INSTRUMENT_DECLINED",
		ErrorMessage: "The instrument presented was declined",
		RawResponse:  `{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"INSTRUMENT_DECLINED"}]}`,
	}
}

func UpgradeCommand(userID string, level, days int) services.CreateOrderCommand {
	return services.CreateOrderCommand{
		UserID:          userID,
		OrderType:       string(domain.OrderTypeMembershipUpgrade),
		MembershipLevel: &level,
		DurationDays:    &days,
	}
}

func DepositCommand(userID string) services.CreateOrderCommand {
	return services.CreateOrderCommand{
		UserID:    userID,
		OrderType: string(domain.OrderTypeModeratorDeposit),
	}
}
