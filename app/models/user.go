package models

import "time"

// User is a registered shopper. Email is stored lower-cased and is unique.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty"`
	PasswordHash string    `json:"-" bson:"passwordHash"` // never serialised
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// CartItem is one line in a shopper's cart.
type CartItem struct {
	ID        string    `json:"id" bson:"key"`
	ProductID string    `json:"productId" bson:"productId"`
	Title     string    `json:"title" bson:"title"`
	Price     float64   `json:"price" bson:"price"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	Category  string    `json:"category,omitempty" bson:"category,omitempty"`
	Size      string    `json:"size,omitempty" bson:"size,omitempty"`
	Color     string    `json:"color,omitempty" bson:"color,omitempty"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CartKey identifies a cart line by product, size and color. Empty parts
// become "-" so the key is always three segments.
func CartKey(productID, size, color string) string {
	part := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	return part(productID) + "__" + part(size) + "__" + part(color)
}

// Favorite is a product a shopper saved, keyed by product id.
type Favorite struct {
	ProductID string    `json:"productId" bson:"productId"`
	Title     string    `json:"title" bson:"title"`
	Price     float64   `json:"price" bson:"price"`
	SalePrice *float64  `json:"salePrice,omitempty" bson:"salePrice,omitempty"`
	Image     string    `json:"image,omitempty" bson:"image,omitempty"`
	Category  string    `json:"category,omitempty" bson:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
