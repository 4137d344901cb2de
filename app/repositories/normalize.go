package repositories

import (
	"math"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/hayatshop/storefront/app/models"
)

// Stored documents predate the typed model and come in several shapes. They
// are folded into the canonical models here, once, when a document is read.

type productDoc struct {
	ID          string         `bson:"_id"`
	Title       string         `bson:"title"`
	Name        string         `bson:"name,omitempty"`
	Description string         `bson:"description,omitempty"`
	Price       float64        `bson:"price"`
	SalePrice   *float64       `bson:"salePrice,omitempty"`
	Currency    string         `bson:"currency,omitempty"`
	Category    string         `bson:"category"`
	Images      []string       `bson:"images,omitempty"`
	ImageURL    string         `bson:"imageUrl,omitempty"`
	Colors      []string       `bson:"colors,omitempty"`
	Sizes       bson.RawValue  `bson:"sizes,omitempty"`
	StockBySize map[string]int `bson:"stockBySize,omitempty"`
	TotalStock  *int           `bson:"totalStock,omitempty"`
	Rating      float64        `bson:"rating,omitempty"`
	Tags        []string       `bson:"tags,omitempty"`
	IsActive    *bool          `bson:"isActive,omitempty"`
	CreatedAt   bson.RawValue  `bson:"createdAt,omitempty"`
	UpdatedAt   bson.RawValue  `bson:"updatedAt,omitempty"`
}

func (d productDoc) model() models.Product {
	p := models.Product{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		SalePrice:   d.SalePrice,
		Currency:    strings.ToUpper(d.Currency),
		Category:    strings.ToLower(d.Category),
		Images:      d.Images,
		Colors:      d.Colors,
		Sizes:       normalizeSizes(d.Sizes, d.StockBySize),
		Rating:      d.Rating,
		Tags:        d.Tags,
		IsActive:    d.IsActive == nil || *d.IsActive,
		CreatedAt:   decodeTime(d.CreatedAt),
		UpdatedAt:   decodeTime(d.UpdatedAt),
	}
	if p.Title == "" {
		p.Title = d.Name
	}
	if p.Currency == "" {
		p.Currency = models.CurrencyILS
	}
	if len(p.Images) == 0 && d.ImageURL != "" {
		p.Images = []string{d.ImageURL}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	if d.TotalStock != nil {
		v := max(*d.TotalStock, 0)
		p.TotalStock = &v
	}
	return p
}

// normalizeSizes accepts a list of {size, stock} documents, a list of plain
// labels, a single label, or a label→stock document, and falls back to the
// legacy stockBySize map. Plain labels carry no stock. Map shapes are sorted
// by label. The result is nil when the product keeps no per-size stock.
func normalizeSizes(raw bson.RawValue, stockBySize map[string]int) []models.SizeStock {
	switch raw.Type {
	case bsontype.Array:
		arr, ok := raw.ArrayOK()
		if !ok {
			return nil
		}
		values, err := arr.Values()
		if err != nil {
			return nil
		}
		out := make([]models.SizeStock, 0, len(values))
		for _, v := range values {
			switch v.Type {
			case bsontype.EmbeddedDocument:
				doc := v.Document()
				label, ok := doc.Lookup("size").StringValueOK()
				if !ok || label == "" {
					continue
				}
				stock, _ := numeric(doc.Lookup("stock"))
				out = append(out, models.SizeStock{Size: label, Stock: stock})
			case bsontype.String:
				if label := v.StringValue(); label != "" {
					out = append(out, models.SizeStock{Size: label})
				}
			}
		}
		return out

	case bsontype.String:
		label := strings.TrimSpace(raw.StringValue())
		if label == "" {
			return []models.SizeStock{}
		}
		return []models.SizeStock{{Size: label}}

	case bsontype.EmbeddedDocument:
		elems, err := raw.Document().Elements()
		if err != nil {
			return nil
		}
		m := make(map[string]int, len(elems))
		for _, e := range elems {
			stock, _ := numeric(e.Value())
			m[e.Key()] = stock
		}
		return sizesFromMap(m)
	}

	if len(stockBySize) > 0 {
		return sizesFromMap(stockBySize)
	}
	return nil
}

func sizesFromMap(m map[string]int) []models.SizeStock {
	out := make([]models.SizeStock, 0, len(m))
	for label, stock := range m {
		out = append(out, models.SizeStock{Size: label, Stock: max(stock, 0)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Size < out[j].Size })
	return out
}

// numeric reads an integer stock from any BSON number, clamped at zero.
func numeric(v bson.RawValue) (int, bool) {
	var n int64
	switch v.Type {
	case bsontype.Int32:
		n = int64(v.Int32())
	case bsontype.Int64:
		n = v.Int64()
	case bsontype.Double:
		n = int64(math.Floor(v.Double()))
	default:
		return 0, false
	}
	if n < 0 {
		n = 0
	}
	return int(n), true
}

// decodeTime accepts BSON datetimes, epoch milliseconds, BSON timestamps and
// exported {seconds, nanoseconds} documents.
func decodeTime(v bson.RawValue) time.Time {
	switch v.Type {
	case bsontype.DateTime:
		return v.Time().UTC()
	case bsontype.Int64, bsontype.Int32, bsontype.Double:
		ms, _ := rawInt64(v)
		return time.UnixMilli(ms).UTC()
	case bsontype.Timestamp:
		sec, _ := v.Timestamp()
		return time.Unix(int64(sec), 0).UTC()
	case bsontype.EmbeddedDocument:
		doc := v.Document()
		sec, ok := rawInt64(doc.Lookup("seconds"))
		if !ok {
			sec, ok = rawInt64(doc.Lookup("_seconds"))
		}
		if !ok {
			return time.Time{}
		}
		nsec, _ := rawInt64(doc.Lookup("nanoseconds"))
		return time.Unix(sec, nsec).UTC()
	}
	return time.Time{}
}

func rawInt64(v bson.RawValue) (int64, bool) {
	switch v.Type {
	case bsontype.Int32:
		return int64(v.Int32()), true
	case bsontype.Int64:
		return v.Int64(), true
	case bsontype.Double:
		return int64(v.Double()), true
	}
	return 0, false
}

type orderItemDoc struct {
	ProductID string   `bson:"productId"`
	Title     string   `bson:"title"`
	Quantity  int      `bson:"quantity,omitempty"`
	Qty       int      `bson:"qty,omitempty"`
	Price     float64  `bson:"price"`
	SalePrice *float64 `bson:"salePrice,omitempty"`
	Size      string   `bson:"size,omitempty"`
	Color     string   `bson:"color,omitempty"`
	Image     string   `bson:"image,omitempty"`
}

func (d orderItemDoc) model() models.OrderItem {
	it := models.OrderItem{
		ProductID: d.ProductID,
		Title:     d.Title,
		Quantity:  d.Quantity,
		Price:     d.Price,
		Size:      d.Size,
		Color:     d.Color,
		Image:     d.Image,
	}
	if it.Quantity <= 0 {
		it.Quantity = d.Qty
	}
	// A line without any quantity ships nothing rather than a guessed unit.
	if it.Quantity < 0 {
		it.Quantity = 0
	}
	if d.SalePrice != nil && *d.SalePrice > 0 {
		it.Price = *d.SalePrice
	}
	return it
}

type orderDoc struct {
	ID               string         `bson:"_id"`
	UserID           string         `bson:"userId"`
	Items            []orderItemDoc `bson:"items"`
	DeliveryAddress  models.Address `bson:"deliveryAddress"`
	Email            string         `bson:"email,omitempty"`
	Phone            string         `bson:"phone,omitempty"`
	Subtotal         float64        `bson:"subtotal,omitempty"`
	Shipping         float64        `bson:"shipping,omitempty"`
	Total            float64        `bson:"total,omitempty"`
	Amount           float64        `bson:"amount,omitempty"`
	Currency         string         `bson:"currency,omitempty"`
	PaymentMethod    string         `bson:"paymentMethod,omitempty"`
	Payment          string         `bson:"payment,omitempty"`
	Status           string         `bson:"status,omitempty"`
	PaymentStatus    string         `bson:"paymentStatus,omitempty"`
	PaymentSessionID string         `bson:"paymentSessionId,omitempty"`
	CreatedAt        bson.RawValue  `bson:"createdAt,omitempty"`
	UpdatedAt        bson.RawValue  `bson:"updatedAt,omitempty"`
	ShippedAt        bson.RawValue  `bson:"shippedAt,omitempty"`
}

func (d orderDoc) model() models.Order {
	o := models.Order{
		ID:               d.ID,
		UserID:           d.UserID,
		Items:            make([]models.OrderItem, 0, len(d.Items)),
		DeliveryAddress:  d.DeliveryAddress,
		Email:            d.Email,
		Phone:            d.Phone,
		Subtotal:         d.Subtotal,
		Shipping:         d.Shipping,
		Total:            d.Total,
		Currency:         strings.ToUpper(d.Currency),
		Status:           models.OrderStatus(d.Status),
		PaymentStatus:    models.PaymentStatus(d.PaymentStatus),
		PaymentSessionID: d.PaymentSessionID,
		CreatedAt:        decodeTime(d.CreatedAt),
		UpdatedAt:        decodeTime(d.UpdatedAt),
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, it.model())
	}
	if o.Subtotal == 0 {
		o.Subtotal = d.Amount
	}
	if o.Total == 0 {
		o.Total = d.Amount
	}
	if o.Currency == "" {
		o.Currency = models.CurrencyILS
	}
	if o.Status == "" {
		o.Status = models.StatusAwaitingPayment
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = models.PaymentPending
	}
	if o.Phone == "" {
		o.Phone = d.DeliveryAddress.Phone
	}
	o.PaymentMethod = paymentMethod(d.PaymentMethod, d.Payment)
	if t := decodeTime(d.ShippedAt); !t.IsZero() {
		o.ShippedAt = &t
	}
	return o
}

func paymentMethod(values ...string) models.PaymentMethod {
	for _, v := range values {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "card", "stripe", "credit":
			return models.PaymentCard
		case "cod", "cash":
			return models.PaymentCOD
		}
	}
	return models.PaymentCOD
}
