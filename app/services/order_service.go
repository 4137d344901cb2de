package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/pkg/events"
	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/metrics"
)

// TransitionResult is the outcome of a successful status change.
type TransitionResult struct {
	// StockUpdated is true when the change shipped the order and took its
	// lines out of inventory.
	StockUpdated bool
}

type OrderService struct {
	store     repositories.Store
	publisher events.Publisher
	onChange  func(context.Context)
	now       func() time.Time
}

func NewOrderService(store repositories.Store, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{store: store, publisher: publisher, now: time.Now}
}

// OnStockChange registers fn to run after a shipment commits.
func (s *OrderService) OnStockChange(fn func(context.Context)) { s.onChange = fn }

// UpdateStatus moves order id to status. Shipping runs the fulfillment
// transaction; any other status is a plain field update that never reads a
// product.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (TransitionResult, error) {
	const op = "OrderService.UpdateStatus"
	log := logger.WithCtx(ctx).With("op", op, "order_id", id, "status", status)

	status = models.OrderStatus(strings.TrimSpace(string(status)))
	if status == "" {
		return TransitionResult{}, invalid("missing status")
	}
	if !status.Valid() {
		return TransitionResult{}, invalid("unknown status %q", status)
	}

	now := s.now().UTC()

	if status != models.StatusShipped {
		patch := models.OrderPatch{Status: &status, UpdatedAt: now}
		if ps, ok := models.PaymentStatusFor(status); ok {
			patch.PaymentStatus = &ps
		}
		if err := s.store.Orders().Update(ctx, id, patch); err != nil {
			return TransitionResult{}, fmt.Errorf("%s: %w", op, err)
		}
		metrics.RecordTransition(string(status))
		log.Info("order status updated")
		s.publish(ctx, events.Event{Type: events.TypeOrderStatusChanged, OrderID: id, Status: string(status), At: now})
		return TransitionResult{}, nil
	}

	var shipped bool
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		shipped, err = fulfill(ctx, tx, id, now)
		return err
	})
	if err != nil {
		metrics.RecordFulfillmentFailure(failureReason(err))
		var se *StockError
		if errors.As(err, &se) {
			log.Warn("shipment rejected", "reason", se.Error())
			return TransitionResult{}, se
		}
		return TransitionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if !shipped {
		log.Info("order already shipped")
		return TransitionResult{}, nil
	}

	metrics.RecordTransition(string(status))
	log.Info("order shipped, stock updated")
	if s.onChange != nil {
		s.onChange(ctx)
	}
	s.publish(ctx, events.Event{
		Type:         events.TypeOrderStatusChanged,
		OrderID:      id,
		Status:       string(status),
		StockUpdated: true,
		At:           now,
	})
	return TransitionResult{StockUpdated: true}, nil
}

func (s *OrderService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		logger.WithCtx(ctx).Warn("publish order event failed", "order_id", e.OrderID, "error", err)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrSizeNotFound):
		return "size_not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, repositories.ErrNotFound):
		return "order_not_found"
	}
	return "error"
}

func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	const op = "OrderService.Get"

	o, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// List returns orders newest first, optionally filtered by status.
func (s *OrderService) List(ctx context.Context, status models.OrderStatus, limit int) ([]models.Order, error) {
	const op = "OrderService.List"

	if status != "" && !status.Valid() {
		return nil, invalid("unknown status %q", status)
	}
	orders, err := s.store.Orders().List(ctx, repositories.OrderQuery{Status: status, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// ListMine returns the orders placed by userID, newest first.
func (s *OrderService) ListMine(ctx context.Context, userID string) ([]models.Order, error) {
	const op = "OrderService.ListMine"

	orders, err := s.store.Orders().List(ctx, repositories.OrderQuery{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	const op = "OrderService.Delete"

	if err := s.store.Orders().Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.WithCtx(ctx).Info("order deleted", "op", op, "order_id", id)
	return nil
}
