package domain

import (
	"fmt"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	orderNumberPrefix = "ORD"
	suffixDigits      = 4
	// go-nanoid draws no random bytes for sizes below 5, so the suffix is cut from a longer id.
	nanoidSize = 8
)

// OrderNumberGenerator produces human readable order numbers: ORD, a UTC timestamp and four random digits.
type OrderNumberGenerator struct {
	digits func() string
}

func NewOrderNumberGenerator() (*OrderNumberGenerator, error) {
	digits, err := nanoid.CustomASCII("0123456789", nanoidSize)
	if err != nil {
		return nil, fmt.Errorf("init order number generator: %w", err)
	}
	return &OrderNumberGenerator{digits: digits}, nil
}

func (g *OrderNumberGenerator) Next(now time.Time) string {
	return orderNumberPrefix + now.UTC().Format("20060102150405") + g.digits()[:suffixDigits]
}
