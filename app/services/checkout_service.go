package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/pkg/events"
	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/metrics"
	"github.com/hayatshop/storefront/pkg/payment"
)

// CheckoutInput is the delivery form. Email and phone fall back to the
// account email and the address phone.
type CheckoutInput struct {
	Address models.Address `json:"deliveryAddress" validate:"required"`
	Email   string         `json:"email" validate:"omitempty,email"`
	Phone   string         `json:"phone"`
}

func (in CheckoutInput) validate() error {
	a := in.Address
	missing := []string{}
	for name, v := range map[string]string{
		"fullName": a.FullName,
		"phone":    a.Phone,
		"city":     a.City,
		"street":   a.Street,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return invalid("missing address fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CheckoutRejected is returned when the cart no longer matches the catalog.
type CheckoutRejected struct {
	Violations []Violation
}

func (e *CheckoutRejected) Error() string {
	return fmt.Sprintf("cart has %d problem(s), first: %s", len(e.Violations), e.Violations[0].Message)
}

// CardCheckout is where to send the shopper to pay for OrderID.
type CardCheckout struct {
	URL     string `json:"url"`
	OrderID string `json:"orderId"`
}

type CheckoutConfig struct {
	Currency    string
	ShippingFee float64
	SiteURL     string
}

// CheckoutService turns a cart into an order. Stock is not reserved here; it
// is taken when the order ships.
type CheckoutService struct {
	store     repositories.Store
	catalog   *CatalogService
	gateway   payment.Gateway
	publisher events.Publisher
	cfg       CheckoutConfig
	now       func() time.Time
}

func NewCheckoutService(
	store repositories.Store,
	catalog *CatalogService,
	gateway payment.Gateway,
	publisher events.Publisher,
	cfg CheckoutConfig,
) *CheckoutService {
	if gateway == nil {
		gateway = payment.Disabled{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg.Currency == "" {
		cfg.Currency = models.CurrencyILS
	}
	return &CheckoutService{
		store:     store,
		catalog:   catalog,
		gateway:   gateway,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Verify checks userID's cart against the live catalog.
func (s *CheckoutService) Verify(ctx context.Context, userID string) ([]Violation, error) {
	cart, err := s.store.Carts().List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CheckoutService.Verify: %w", err)
	}
	return s.catalog.Verify(ctx, cartLines(cart))
}

// PlaceCOD places a cash-on-delivery order and empties the cart.
func (s *CheckoutService) PlaceCOD(ctx context.Context, userID, accountEmail string, in CheckoutInput) (models.Order, error) {
	const op = "CheckoutService.PlaceCOD"

	order, err := s.build(ctx, userID, accountEmail, in, models.PaymentCOD, models.StatusAwaitingDelivery)
	if err != nil {
		return models.Order{}, err
	}
	if err := s.store.Orders().Create(ctx, order); err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.Carts().Clear(ctx, userID); err != nil {
		logger.WithCtx(ctx).Warn("clear cart failed", "op", op, "user_id", userID, "error", err)
	}
	s.placed(ctx, order)
	return order, nil
}

// PlaceCard places an order awaiting payment and opens a checkout session
// for it. The cart is kept until payment succeeds.
func (s *CheckoutService) PlaceCard(ctx context.Context, userID, accountEmail string, in CheckoutInput) (CardCheckout, error) {
	const op = "CheckoutService.PlaceCard"
	log := logger.WithCtx(ctx).With("op", op, "user_id", userID)

	order, err := s.build(ctx, userID, accountEmail, in, models.PaymentCard, models.StatusAwaitingPayment)
	if err != nil {
		return CardCheckout{}, err
	}
	if err := s.store.Orders().Create(ctx, order); err != nil {
		return CardCheckout{}, fmt.Errorf("%s: %w", op, err)
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, s.sessionRequest(order))
	if err != nil {
		if derr := s.store.Orders().Delete(ctx, order.ID); derr != nil {
			log.Warn("discard unpaid order failed", "order_id", order.ID, "error", derr)
		}
		return CardCheckout{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.Orders().Update(ctx, order.ID, models.OrderPatch{
		PaymentSessionID: &sess.ID,
		UpdatedAt:        s.now().UTC(),
	}); err != nil {
		return CardCheckout{}, fmt.Errorf("%s: %w", op, err)
	}
	order.PaymentSessionID = sess.ID
	s.placed(ctx, order)
	return CardCheckout{URL: sess.URL, OrderID: order.ID}, nil
}

func (s *CheckoutService) build(
	ctx context.Context,
	userID, accountEmail string,
	in CheckoutInput,
	method models.PaymentMethod,
	status models.OrderStatus,
) (models.Order, error) {
	const op = "CheckoutService.build"

	if err := in.validate(); err != nil {
		return models.Order{}, err
	}
	cart, err := s.store.Carts().List(ctx, userID)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(cart) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	lines := cartLines(cart)
	violations, err := s.catalog.Verify(ctx, lines)
	if err != nil {
		return models.Order{}, err
	}
	if len(violations) > 0 {
		return models.Order{}, &CheckoutRejected{Violations: violations}
	}

	items := make([]models.OrderItem, 0, len(cart))
	var subtotal float64
	for _, c := range cart {
		it := models.OrderItem{
			ProductID: c.ProductID,
			Title:     c.Title,
			Quantity:  c.Quantity,
			Price:     c.Price,
			Size:      c.Size,
			Color:     c.Color,
			Image:     c.Image,
		}
		subtotal += it.LineTotal()
		items = append(items, it)
	}

	now := s.now().UTC()
	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = accountEmail
	}
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		phone = in.Address.Phone
	}
	return models.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		DeliveryAddress: in.Address,
		Email:           email,
		Phone:           phone,
		Subtotal:        subtotal,
		Shipping:        s.cfg.ShippingFee,
		Total:           subtotal + s.cfg.ShippingFee,
		Currency:        s.cfg.Currency,
		PaymentMethod:   method,
		Status:          status,
		PaymentStatus:   models.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (s *CheckoutService) sessionRequest(o models.Order) payment.CheckoutRequest {
	site := strings.TrimRight(s.cfg.SiteURL, "/")
	req := payment.CheckoutRequest{
		OrderID:        o.ID,
		UserID:         o.UserID,
		Email:          o.Email,
		Phone:          o.Phone,
		Currency:       o.Currency,
		ShippingAmount: payment.MinorUnits(o.Shipping),
		ShippingLabel:  "Home delivery",
		SuccessURL:     site + "/checkout/success",
		CancelURL:      site + "/checkout/cancel",
	}
	for _, it := range o.Items {
		name := it.Title
		if it.Size != "" {
			name += " (" + it.Size + ")"
		}
		req.Items = append(req.Items, payment.LineItem{
			Name:       name,
			Image:      payment.AbsoluteURL(site, it.Image),
			UnitAmount: payment.MinorUnits(it.Price),
			Quantity:   int64(it.Quantity),
		})
	}
	return req
}

func (s *CheckoutService) placed(ctx context.Context, o models.Order) {
	metrics.RecordCheckout(string(o.PaymentMethod))
	logger.WithCtx(ctx).Info("order placed",
		"order_id", o.ID, "user_id", o.UserID, "method", o.PaymentMethod, "total", o.Total)

	e := events.Event{
		Type:    events.TypeOrderPlaced,
		OrderID: o.ID,
		UserID:  o.UserID,
		Status:  string(o.Status),
		Total:   o.Total,
		At:      o.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logger.WithCtx(ctx).Warn("publish order event failed", "order_id", o.ID, "error", err)
	}
}

func cartLines(cart []models.CartItem) []CheckoutLine {
	lines := make([]CheckoutLine, 0, len(cart))
	for _, c := range cart {
		lines = append(lines, CheckoutLine{
			ProductID: c.ProductID,
			Title:     c.Title,
			Size:      c.Size,
			Color:     c.Color,
			Quantity:  c.Quantity,
			Price:     c.Price,
		})
	}
	return lines
}
