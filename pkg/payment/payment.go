// Package payment creates hosted checkout sessions with the card processor.
package payment

import (
	"context"
	"errors"
	"math"
	"strings"
)

var ErrDisabled = errors.New("payment: card payments are not configured")

// LineItem is one priced product line. UnitAmount is in minor units.
type LineItem struct {
	Name       string
	Image      string
	UnitAmount int64
	Quantity   int64
}

type CheckoutRequest struct {
	OrderID        string
	UserID         string
	Email          string
	Phone          string
	Currency       string
	Items          []LineItem
	ShippingAmount int64
	ShippingLabel  string
	SuccessURL     string
	CancelURL      string
}

// Session is a created checkout session. URL is where the shopper pays.
type Session struct {
	ID  string
	URL string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (Session, error)
}

// MinorUnits converts a decimal amount to the processor's integer minor units.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Disabled rejects every checkout.
type Disabled struct{}

func (Disabled) CreateCheckoutSession(context.Context, CheckoutRequest) (Session, error) {
	return Session{}, ErrDisabled
}

// AbsoluteURL resolves a site-relative image path against siteURL.
func AbsoluteURL(siteURL, path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(siteURL, "/") + "/" + strings.TrimLeft(path, "/")
}
