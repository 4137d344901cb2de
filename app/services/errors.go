package services

import (
	"errors"
	"fmt"

	"github.com/hayatshop/storefront/app/repositories"
)

var (
	ErrNotFound        = repositories.ErrNotFound
	ErrInvalidArgument = errors.New("invalid argument")

	ErrProductNotFound   = errors.New("product not found")
	ErrSizeNotFound      = errors.New("size not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmptyCart          = errors.New("cart is empty")
)

// StockError is a shipment that cannot be fulfilled. Kind is one of
// ErrProductNotFound, ErrSizeNotFound or ErrInsufficientStock, and the message
// is safe to show to staff.
type StockError struct {
	Kind  error
	Title string
	Size  string
}

func (e *StockError) Error() string {
	switch e.Kind {
	case ErrProductNotFound:
		return fmt.Sprintf("product %q not found", e.Title)
	case ErrSizeNotFound:
		return fmt.Sprintf("size %s does not exist for product %q", e.Size, e.Title)
	}
	if e.Size != "" {
		return fmt.Sprintf("insufficient stock for product %q in size %s", e.Title, e.Size)
	}
	return fmt.Sprintf("insufficient stock for product %q", e.Title)
}

func (e *StockError) Is(target error) bool { return target == e.Kind }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
