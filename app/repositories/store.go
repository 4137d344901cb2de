// Package repositories is the document store behind the storefront: typed
// repositories per collection plus the transaction primitive used by every
// stock mutation.
package repositories

import (
	"context"
	"errors"

	"github.com/hayatshop/storefront/app/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// ProductStock is the stock part of a product. When Sizes is non-nil it
// replaces the per-size list, otherwise TotalStock replaces the total.
type ProductStock struct {
	Sizes      []models.SizeStock
	TotalStock *int
}

// Tx is the view of the store inside RunInTransaction. Reads observe the
// committed state plus this transaction's own writes.
type Tx interface {
	FindOrder(ctx context.Context, id string) (models.Order, error)
	FindProduct(ctx context.Context, id string) (models.Product, error)
	SetProductStock(ctx context.Context, id string, stock ProductStock) error
	// UpdateProduct writes the descriptive fields of p. Stock is untouched.
	UpdateProduct(ctx context.Context, p models.Product) error
	UpdateOrder(ctx context.Context, id string, patch models.OrderPatch) error
}

// TxFunc is the body of a transaction. Returning an error discards every
// write made through tx.
type TxFunc func(ctx context.Context, tx Tx) error

type Store interface {
	// RunInTransaction runs fn atomically. The error returned by fn is
	// returned unchanged. fn may be invoked more than once when the backend
	// retries a write conflict, so it must not have outside side effects.
	RunInTransaction(ctx context.Context, fn TxFunc) error

	Products() ProductRepository
	Orders() OrderRepository
	Carts() CartRepository
	Favorites() FavoriteRepository
	Users() UserRepository

	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ProductQuery filters product listings. Results are newest first.
type ProductQuery struct {
	Category   string
	Search     string // case-insensitive title substring
	IDs        []string
	ActiveOnly bool
	Limit      int // 0 means no limit
}

// ProductRepository covers catalog reads and descriptive edits. Stock is
// changed only through Tx.SetProductStock.
type ProductRepository interface {
	Create(ctx context.Context, p models.Product) error
	FindByID(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context, q ProductQuery) ([]models.Product, error)
	// Update replaces the descriptive fields of p.ID, leaving stock and
	// CreatedAt untouched.
	Update(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id string) error
}

// OrderQuery filters order listings. Results are newest first.
type OrderQuery struct {
	UserID string
	Status models.OrderStatus
	Limit  int
}

type OrderRepository interface {
	Create(ctx context.Context, o models.Order) error
	FindByID(ctx context.Context, id string) (models.Order, error)
	List(ctx context.Context, q OrderQuery) ([]models.Order, error)
	Update(ctx context.Context, id string, patch models.OrderPatch) error
	Delete(ctx context.Context, id string) error
}

type CartRepository interface {
	List(ctx context.Context, userID string) ([]models.CartItem, error)
	Find(ctx context.Context, userID, key string) (models.CartItem, error)
	Put(ctx context.Context, userID string, item models.CartItem) error
	Delete(ctx context.Context, userID, key string) error
	Clear(ctx context.Context, userID string) error
}

type FavoriteRepository interface {
	List(ctx context.Context, userID string) ([]models.Favorite, error)
	Put(ctx context.Context, userID string, fav models.Favorite) error
	Delete(ctx context.Context, userID, productID string) error
}

type UserRepository interface {
	Create(ctx context.Context, u models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, limit int) ([]models.User, error)
}
