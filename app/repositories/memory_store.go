package repositories

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hayatshop/storefront/app/models"
)

// MemoryStore is an in-process Store. Transactions are serialised: the write
// lock is held for the whole transaction and staged writes are applied only
// when the body returns nil. The body must not call back into the store's
// repositories, only into the Tx it was given.
type MemoryStore struct {
	mu        sync.RWMutex
	products  map[string]models.Product
	orders    map[string]models.Order
	users     map[string]models.User
	carts     map[string]map[string]models.CartItem
	favorites map[string]map[string]models.Favorite
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  make(map[string]models.Product),
		orders:    make(map[string]models.Order),
		users:     make(map[string]models.User),
		carts:     make(map[string]map[string]models.CartItem),
		favorites: make(map[string]map[string]models.Favorite),
		now:       time.Now,
	}
}

func (s *MemoryStore) RunInTransaction(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:        s,
		products: make(map[string]models.Product),
		orders:   make(map[string]models.Order),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for id, p := range tx.products {
		s.products[id] = p
	}
	for id, o := range tx.orders {
		s.orders[id] = o
	}
	return nil
}

func (s *MemoryStore) Products() ProductRepository   { return memProducts{s} }
func (s *MemoryStore) Orders() OrderRepository       { return memOrders{s} }
func (s *MemoryStore) Carts() CartRepository         { return memCarts{s} }
func (s *MemoryStore) Favorites() FavoriteRepository { return memFavorites{s} }
func (s *MemoryStore) Users() UserRepository         { return memUsers{s} }

func (s *MemoryStore) EnsureIndexes(context.Context) error { return nil }
func (s *MemoryStore) Ping(context.Context) error          { return nil }
func (s *MemoryStore) Close(context.Context) error         { return nil }

// ─────────────────────────────────────────────
// Transaction
// ─────────────────────────────────────────────

type memTx struct {
	s        *MemoryStore
	products map[string]models.Product
	orders   map[string]models.Order
}

func (t *memTx) FindOrder(_ context.Context, id string) (models.Order, error) {
	if o, ok := t.orders[id]; ok {
		return o.Clone(), nil
	}
	o, ok := t.s.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o.Clone(), nil
}

func (t *memTx) FindProduct(_ context.Context, id string) (models.Product, error) {
	if p, ok := t.products[id]; ok {
		return p.Clone(), nil
	}
	p, ok := t.s.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

func (t *memTx) SetProductStock(ctx context.Context, id string, stock ProductStock) error {
	p, err := t.FindProduct(ctx, id)
	if err != nil {
		return err
	}
	applyStock(&p, stock)
	p.UpdatedAt = t.s.now()
	t.products[id] = p
	return nil
}

func (t *memTx) UpdateProduct(ctx context.Context, p models.Product) error {
	cur, err := t.FindProduct(ctx, p.ID)
	if err != nil {
		return err
	}
	t.products[p.ID] = withStockOf(p, cur)
	return nil
}

func (t *memTx) UpdateOrder(ctx context.Context, id string, patch models.OrderPatch) error {
	o, err := t.FindOrder(ctx, id)
	if err != nil {
		return err
	}
	patch.Apply(&o)
	t.orders[id] = o
	return nil
}

// applyStock switches p to exactly the stock form given: a size list drops
// the total and a total drops the size list.
func applyStock(p *models.Product, stock ProductStock) {
	if stock.Sizes != nil {
		p.Sizes = slices.Clone(stock.Sizes)
		p.TotalStock = nil
		return
	}
	if stock.TotalStock != nil {
		v := *stock.TotalStock
		p.TotalStock = &v
		p.Sizes = nil
	}
}

// withStockOf returns p carrying cur's stock and creation time.
func withStockOf(p, cur models.Product) models.Product {
	next := p.Clone()
	next.Sizes = cur.Sizes
	next.TotalStock = cur.TotalStock
	next.CreatedAt = cur.CreatedAt
	return next
}

// ─────────────────────────────────────────────
// Products
// ─────────────────────────────────────────────

type memProducts struct{ s *MemoryStore }

func (r memProducts) Create(_ context.Context, p models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[p.ID]; ok {
		return fmt.Errorf("product %s: %w", p.ID, ErrDuplicate)
	}
	r.s.products[p.ID] = p.Clone()
	return nil
}

func (r memProducts) FindByID(_ context.Context, id string) (models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

func (r memProducts) List(_ context.Context, q ProductQuery) ([]models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]models.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.ActiveOnly && !p.IsActive {
			continue
		}
		if len(q.IDs) > 0 && !slices.Contains(q.IDs, p.ID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		out = append(out, p.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r memProducts) Update(_ context.Context, p models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.products[p.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	r.s.products[p.ID] = withStockOf(p, cur)
	return nil
}

func (r memProducts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(r.s.products, id)
	return nil
}

// ─────────────────────────────────────────────
// Orders
// ─────────────────────────────────────────────

type memOrders struct{ s *MemoryStore }

func (r memOrders) Create(_ context.Context, o models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[o.ID]; ok {
		return fmt.Errorf("order %s: %w", o.ID, ErrDuplicate)
	}
	r.s.orders[o.ID] = o.Clone()
	return nil
}

func (r memOrders) FindByID(_ context.Context, id string) (models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o.Clone(), nil
}

func (r memOrders) List(_ context.Context, q OrderQuery) ([]models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		if q.UserID != "" && o.UserID != q.UserID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		out = append(out, o.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r memOrders) Update(_ context.Context, id string, patch models.OrderPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	o = o.Clone()
	patch.Apply(&o)
	r.s.orders[id] = o
	return nil
}

func (r memOrders) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[id]; !ok {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	delete(r.s.orders, id)
	return nil
}

// ─────────────────────────────────────────────
// Carts
// ─────────────────────────────────────────────

type memCarts struct{ s *MemoryStore }

func (r memCarts) List(_ context.Context, userID string) ([]models.CartItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.CartItem, 0, len(r.s.carts[userID]))
	for _, it := range r.s.carts[userID] {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memCarts) Find(_ context.Context, userID, key string) (models.CartItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	it, ok := r.s.carts[userID][key]
	if !ok {
		return models.CartItem{}, fmt.Errorf("cart item %s: %w", key, ErrNotFound)
	}
	return it, nil
}

func (r memCarts) Put(_ context.Context, userID string, item models.CartItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cart, ok := r.s.carts[userID]
	if !ok {
		cart = make(map[string]models.CartItem)
		r.s.carts[userID] = cart
	}
	cart[item.ID] = item
	return nil
}

func (r memCarts) Delete(_ context.Context, userID, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.carts[userID], key)
	return nil
}

func (r memCarts) Clear(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.carts, userID)
	return nil
}

// ─────────────────────────────────────────────
// Favorites
// ─────────────────────────────────────────────

type memFavorites struct{ s *MemoryStore }

func (r memFavorites) List(_ context.Context, userID string) ([]models.Favorite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Favorite, 0, len(r.s.favorites[userID]))
	for _, f := range r.s.favorites[userID] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func (r memFavorites) Put(_ context.Context, userID string, fav models.Favorite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	favs, ok := r.s.favorites[userID]
	if !ok {
		favs = make(map[string]models.Favorite)
		r.s.favorites[userID] = favs
	}
	favs[fav.ProductID] = fav
	return nil
}

func (r memFavorites) Delete(_ context.Context, userID, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.favorites[userID], productID)
	return nil
}

// ─────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(_ context.Context, u models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, ErrDuplicate)
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
		}
	}
	r.s.users[u.ID] = u
	return nil
}

func (r memUsers) FindByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
}

func (r memUsers) List(_ context.Context, limit int) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
