package models

import (
	"slices"
	"time"
)

type OrderStatus string

const (
	StatusAwaitingPayment  OrderStatus = "awaiting_payment"
	StatusAwaitingCourier  OrderStatus = "awaiting_courier"
	StatusAwaitingDelivery OrderStatus = "awaiting_delivery"
	StatusPaid             OrderStatus = "paid"
	StatusShipped          OrderStatus = "shipped"
	StatusCancelled        OrderStatus = "cancelled"
	StatusRefunded         OrderStatus = "refunded"
)

var orderStatuses = []OrderStatus{
	StatusAwaitingPayment,
	StatusAwaitingCourier,
	StatusAwaitingDelivery,
	StatusPaid,
	StatusShipped,
	StatusCancelled,
	StatusRefunded,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	return slices.Contains(orderStatuses, s)
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentStatusFor is the payment status implied by moving an order to s.
// ok is false when s leaves the payment status untouched.
func PaymentStatusFor(s OrderStatus) (PaymentStatus, bool) {
	switch s {
	case StatusPaid:
		return PaymentPaid, true
	case StatusCancelled:
		return PaymentFailed, true
	case StatusRefunded:
		return PaymentRefunded, true
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"
	PaymentCard PaymentMethod = "card"
)

// OrderItem is a snapshot of one purchased line. It never changes after the
// order is placed.
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Title     string  `json:"title" bson:"title"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
	Size      string  `json:"size,omitempty" bson:"size,omitempty"`
	Color     string  `json:"color,omitempty" bson:"color,omitempty"`
	Image     string  `json:"image,omitempty" bson:"image,omitempty"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Address struct {
	FullName    string `json:"fullName" bson:"fullName"`
	Phone       string `json:"phone" bson:"phone"`
	City        string `json:"city" bson:"city"`
	Street      string `json:"street" bson:"street"`
	HouseNumber string `json:"houseNumber" bson:"houseNumber"`
	Notes       string `json:"notes,omitempty" bson:"notes,omitempty"`
}

type Order struct {
	ID               string        `json:"id" bson:"_id"`
	UserID           string        `json:"userId" bson:"userId"`
	Items            []OrderItem   `json:"items" bson:"items"`
	DeliveryAddress  Address       `json:"deliveryAddress" bson:"deliveryAddress"`
	Email            string        `json:"email,omitempty" bson:"email,omitempty"`
	Phone            string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Subtotal         float64       `json:"subtotal" bson:"subtotal"`
	Shipping         float64       `json:"shipping" bson:"shipping"`
	Total            float64       `json:"total" bson:"total"`
	Currency         string        `json:"currency" bson:"currency"`
	PaymentMethod    PaymentMethod `json:"paymentMethod" bson:"paymentMethod"`
	Status           OrderStatus   `json:"status" bson:"status"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	PaymentSessionID string        `json:"paymentSessionId,omitempty" bson:"paymentSessionId,omitempty"`
	CreatedAt        time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt" bson:"updatedAt"`
	ShippedAt        *time.Time    `json:"shippedAt,omitempty" bson:"shippedAt,omitempty"`
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	c := o
	c.Items = slices.Clone(o.Items)
	if o.ShippedAt != nil {
		t := *o.ShippedAt
		c.ShippedAt = &t
	}
	return c
}

// OrderPatch is a partial order update. Nil fields are left untouched.
type OrderPatch struct {
	Status           *OrderStatus
	PaymentStatus    *PaymentStatus
	PaymentSessionID *string
	ShippedAt        *time.Time
	UpdatedAt        time.Time
}

// Apply writes the set fields of p onto o.
func (p OrderPatch) Apply(o *Order) {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		o.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentSessionID != nil {
		o.PaymentSessionID = *p.PaymentSessionID
	}
	if p.ShippedAt != nil {
		t := *p.ShippedAt
		o.ShippedAt = &t
	}
	if !p.UpdatedAt.IsZero() {
		o.UpdatedAt = p.UpdatedAt
	}
}
