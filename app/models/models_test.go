package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestEffectivePrice(t *testing.T) {
	p := Product{Price: 200}
	assert.Equal(t, 200.0, p.EffectivePrice())
	assert.False(t, p.OnSale())

	p.SalePrice = ptr(150.0)
	assert.Equal(t, 150.0, p.EffectivePrice())
	assert.True(t, p.OnSale())
}

func TestInStockAndAvailable(t *testing.T) {
	sized := Product{Sizes: []SizeStock{{"S", 0}, {"M", 2}}}
	assert.True(t, sized.InStock())

	qty, ok := sized.Available("M")
	assert.True(t, ok)
	assert.Equal(t, 2, qty)

	_, ok = sized.Available("XL")
	assert.False(t, ok)

	empty := Product{Sizes: []SizeStock{}}
	assert.True(t, empty.TracksSizes())
	assert.False(t, empty.InStock())

	total := Product{TotalStock: ptr(3)}
	assert.True(t, total.InStock())
	qty, ok = total.Available("anything")
	assert.True(t, ok)
	assert.Equal(t, 3, qty)

	assert.False(t, Product{}.InStock())
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := Product{Sizes: []SizeStock{{"M", 2}}, TotalStock: ptr(5)}
	c := p.Clone()
	c.Sizes[0].Stock = 0
	*c.TotalStock = 1

	assert.Equal(t, 2, p.Sizes[0].Stock)
	assert.Equal(t, 5, *p.TotalStock)
}

func TestOrderStatus(t *testing.T) {
	assert.True(t, StatusShipped.Valid())
	assert.True(t, StatusAwaitingDelivery.Valid())
	assert.False(t, OrderStatus("lost").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestPaymentStatusFor(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   PaymentStatus
		ok     bool
	}{
		{StatusPaid, PaymentPaid, true},
		{StatusCancelled, PaymentFailed, true},
		{StatusRefunded, PaymentRefunded, true},
		{StatusAwaitingCourier, "", false},
		{StatusShipped, "", false},
	}
	for _, tt := range tests {
		got, ok := PaymentStatusFor(tt.status)
		assert.Equal(t, tt.want, got, tt.status)
		assert.Equal(t, tt.ok, ok, tt.status)
	}
}

func TestOrderPatchApply(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := Order{Status: StatusPaid, PaymentStatus: PaymentPaid}

	OrderPatch{Status: ptr(StatusShipped), ShippedAt: &now, UpdatedAt: now}.Apply(&o)

	assert.Equal(t, StatusShipped, o.Status)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, now, *o.ShippedAt)
	assert.Equal(t, now, o.UpdatedAt)
}

func TestCartKey(t *testing.T) {
	assert.Equal(t, "p1__M__red", CartKey("p1", "M", "red"))
	assert.Equal(t, "p1__-__-", CartKey("p1", "", ""))
}

func TestIsCategory(t *testing.T) {
	assert.True(t, IsCategory("abayas"))
	assert.False(t, IsCategory("shoes"))
	assert.Len(t, Categories, 9)
}
