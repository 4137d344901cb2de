package models

import (
	"slices"
	"time"
)

// Category slugs of the storefront. The set is fixed.
const (
	CategoryShirts      = "shirts"
	CategoryBasics      = "basics"
	CategoryPants       = "pants"
	CategorySuits       = "suits"
	CategoryAccessories = "accessories"
	CategoryDresses     = "dresses"
	CategorySkirts      = "skirts"
	CategoryAbayas      = "abayas"
	CategoryJackets     = "jackets"
)

// Category is a browsable catalog section.
type Category struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Categories lists every category in display order.
var Categories = []Category{
	{Slug: CategoryShirts, Title: "Shirts"},
	{Slug: CategoryBasics, Title: "Basics"},
	{Slug: CategoryPants, Title: "Pants"},
	{Slug: CategorySuits, Title: "Suits"},
	{Slug: CategoryAccessories, Title: "Accessories"},
	{Slug: CategoryDresses, Title: "Dresses"},
	{Slug: CategorySkirts, Title: "Skirts"},
	{Slug: CategoryAbayas, Title: "Abayas"},
	{Slug: CategoryJackets, Title: "Jackets"},
}

// IsCategory reports whether slug names a known category.
func IsCategory(slug string) bool {
	return slices.ContainsFunc(Categories, func(c Category) bool { return c.Slug == slug })
}

const (
	CurrencyILS = "ILS"
	CurrencyUSD = "USD"
)

// SizeStock is the stock held for one size label.
type SizeStock struct {
	Size  string `json:"size" bson:"size"`
	Stock int    `json:"stock" bson:"stock"`
}

type Product struct {
	ID          string      `json:"id" bson:"_id"`
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64     `json:"price" bson:"price"`
	SalePrice   *float64    `json:"salePrice,omitempty" bson:"salePrice,omitempty"`
	Currency    string      `json:"currency" bson:"currency"`
	Category    string      `json:"category" bson:"category"`
	Images      []string    `json:"images" bson:"images"`
	Colors      []string    `json:"colors" bson:"colors"`
	Sizes       []SizeStock `json:"sizes" bson:"sizes"`
	TotalStock  *int        `json:"totalStock,omitempty" bson:"totalStock,omitempty"`
	Rating      float64     `json:"rating,omitempty" bson:"rating,omitempty"`
	Tags        []string    `json:"tags,omitempty" bson:"tags,omitempty"`
	IsActive    bool        `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// EffectivePrice is the sale price when one is set, else the list price.
func (p Product) EffectivePrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// OnSale reports whether a sale price below the list price is set.
func (p Product) OnSale() bool {
	return p.SalePrice != nil && *p.SalePrice < p.Price
}

// TracksSizes reports whether stock is kept per size. A nil Sizes means the
// product tracks only TotalStock.
func (p Product) TracksSizes() bool {
	return p.Sizes != nil
}

// InStock reports whether anything can be sold.
func (p Product) InStock() bool {
	if p.TracksSizes() {
		for _, s := range p.Sizes {
			if s.Stock > 0 {
				return true
			}
		}
		return false
	}
	return p.TotalStockOrZero() > 0
}

// TotalStockOrZero treats an unset total as empty.
func (p Product) TotalStockOrZero() int {
	if p.TotalStock == nil {
		return 0
	}
	return *p.TotalStock
}

// Size returns the entry for label.
func (p Product) Size(label string) (SizeStock, bool) {
	for _, s := range p.Sizes {
		if s.Size == label {
			return s, true
		}
	}
	return SizeStock{}, false
}

// Available is the sellable quantity for label, or for the whole product
// when sizes are not tracked. ok is false for an unknown size.
func (p Product) Available(label string) (qty int, ok bool) {
	if !p.TracksSizes() {
		return p.TotalStockOrZero(), true
	}
	s, ok := p.Size(label)
	return s.Stock, ok
}

// Clone returns a deep copy so staged edits never alias stored state.
func (p Product) Clone() Product {
	c := p
	c.Images = slices.Clone(p.Images)
	c.Colors = slices.Clone(p.Colors)
	c.Sizes = slices.Clone(p.Sizes)
	c.Tags = slices.Clone(p.Tags)
	if p.SalePrice != nil {
		v := *p.SalePrice
		c.SalePrice = &v
	}
	if p.TotalStock != nil {
		v := *p.TotalStock
		c.TotalStock = &v
	}
	return c
}
