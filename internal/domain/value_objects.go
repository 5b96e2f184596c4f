package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if !amount.IsPositive() {
		return Money{}, NewInvalidAmountError(amount.String())
	}
	if len(currency) != 3 {
		return Money{}, errors.New("currency must be a 3 letter ISO 4217 code")
	}
	return Money{Amount: amount.Round(2), Currency: strings.ToUpper(currency)}, nil
}

// Value renders the amount the way gateways expect it: two decimals, dot separated.
func (m Money) Value() string {
	return m.Amount.StringFixed(2)
}

// CaptureDetails is what a successful remote capture tells us about the payment.
type CaptureDetails struct {
	CaptureID     string
	TransactionID string
	PayerID       string
	PayerEmail    string
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
