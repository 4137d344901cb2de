package services

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/pkg/cache"
	"github.com/hayatshop/storefront/pkg/logger"
)

const (
	SortNewest     = "newest"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating_desc"

	defaultPageSize = 12
	maxPageSize     = 100
	maxSearch       = 50
)

// CatalogFilter narrows one category listing. Zero values disable a filter.
type CatalogFilter struct {
	Min         *float64
	Max         *float64
	SaleOnly    bool
	InStockOnly bool
	Sizes       []string
	Colors      []string
	Sort        string
	Page        int
	PageSize    int
}

// CatalogPage is one page of a category. Sizes and Colors list every value
// present in the category before filtering.
type CatalogPage struct {
	Category models.Category  `json:"category"`
	Items    []models.Product `json:"items"`
	Sizes    []string         `json:"sizes"`
	Colors   []string         `json:"colors"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Total    int              `json:"total"`
	Pages    int              `json:"pages"`
}

// CatalogService serves shopper-facing product reads. Category listings go
// through the cache, single product reads and checkout verification do not.
type CatalogService struct {
	store repositories.Store
	cache cache.Store
	ttl   time.Duration
	limit int
}

func NewCatalogService(store repositories.Store, c cache.Store, ttl time.Duration, limit int) *CatalogService {
	if c == nil {
		c = cache.Nop{}
	}
	if limit <= 0 {
		limit = 200
	}
	return &CatalogService{store: store, cache: c, ttl: ttl, limit: limit}
}

func (s *CatalogService) Categories() []models.Category {
	return slices.Clone(models.Categories)
}

func categoryKey(slug string) string { return "catalog:category:" + slug }

// Invalidate drops every cached category listing.
func (s *CatalogService) Invalidate(ctx context.Context) {
	keys := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		keys = append(keys, categoryKey(c.Slug))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn("catalog cache invalidation failed", "error", err)
	}
}

func (s *CatalogService) category(ctx context.Context, slug string) ([]models.Product, error) {
	const op = "CatalogService.category"

	var products []models.Product
	if s.cache.Get(ctx, categoryKey(slug), &products) {
		return products, nil
	}

	products, err := s.store.Products().List(ctx, repositories.ProductQuery{
		Category:   slug,
		ActiveOnly: true,
		Limit:      s.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, categoryKey(slug), products, s.ttl); err != nil {
		logger.WithCtx(ctx).Warn("catalog cache write failed", "op", op, "error", err)
	}
	return products, nil
}

// ListCategory returns one filtered, sorted page of category slug.
func (s *CatalogService) ListCategory(ctx context.Context, slug string, f CatalogFilter) (CatalogPage, error) {
	const op = "CatalogService.ListCategory"

	slug = strings.ToLower(strings.TrimSpace(slug))
	idx := slices.IndexFunc(models.Categories, func(c models.Category) bool { return c.Slug == slug })
	if idx < 0 {
		return CatalogPage{}, fmt.Errorf("%s: category %q: %w", op, slug, ErrNotFound)
	}
	switch f.Sort {
	case "", SortNewest, SortPriceAsc, SortPriceDesc, SortRatingDesc:
	default:
		return CatalogPage{}, invalid("unknown sort %q", f.Sort)
	}

	all, err := s.category(ctx, slug)
	if err != nil {
		return CatalogPage{}, err
	}

	page := CatalogPage{
		Category: models.Categories[idx],
		Sizes:    sizeFacet(all),
		Colors:   colorFacet(all),
	}

	matched := make([]models.Product, 0, len(all))
	for _, p := range all {
		if f.matches(p) {
			matched = append(matched, p)
		}
	}
	sortProducts(matched, f.Sort)

	page.PageSize = f.PageSize
	if page.PageSize <= 0 {
		page.PageSize = defaultPageSize
	}
	page.PageSize = min(page.PageSize, maxPageSize)
	page.Total = len(matched)
	page.Pages = max(1, int(math.Ceil(float64(page.Total)/float64(page.PageSize))))
	page.Page = min(max(f.Page, 1), page.Pages)

	start := (page.Page - 1) * page.PageSize
	end := min(start+page.PageSize, page.Total)
	page.Items = matched[start:end]
	return page, nil
}

func (f CatalogFilter) matches(p models.Product) bool {
	price := p.EffectivePrice()
	if f.Min != nil && price < *f.Min {
		return false
	}
	if f.Max != nil && price > *f.Max {
		return false
	}
	if f.SaleOnly && !p.OnSale() {
		return false
	}
	if f.InStockOnly && !p.InStock() {
		return false
	}
	if len(f.Sizes) > 0 && !slices.ContainsFunc(p.Sizes, func(s models.SizeStock) bool {
		return slices.Contains(f.Sizes, s.Size)
	}) {
		return false
	}
	if len(f.Colors) > 0 && !slices.ContainsFunc(p.Colors, func(c string) bool {
		return slices.Contains(f.Colors, strings.ToLower(c))
	}) {
		return false
	}
	return true
}

func sortProducts(ps []models.Product, by string) {
	switch by {
	case SortPriceAsc:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].EffectivePrice() < ps[j].EffectivePrice() })
	case SortPriceDesc:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].EffectivePrice() > ps[j].EffectivePrice() })
	case SortRatingDesc:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Rating > ps[j].Rating })
	default:
		slices.SortStableFunc(ps, func(a, b models.Product) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
}

func sizeFacet(ps []models.Product) []string {
	seen := map[string]struct{}{}
	for _, p := range ps {
		for _, s := range p.Sizes {
			seen[s.Size] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func colorFacet(ps []models.Product) []string {
	seen := map[string]struct{}{}
	for _, p := range ps {
		for _, c := range p.Colors {
			if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
				seen[c] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.SortFunc(out, cmp.Compare[string])
	return out
}

// Product returns an active product. Inactive products read as missing.
func (s *CatalogService) Product(ctx context.Context, id string) (models.Product, error) {
	const op = "CatalogService.Product"

	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if !p.IsActive {
		return models.Product{}, fmt.Errorf("%s: product %s: %w", op, id, ErrNotFound)
	}
	return p, nil
}

// Search matches q against active product titles, case-insensitively.
func (s *CatalogService) Search(ctx context.Context, q string, limit int) ([]models.Product, error) {
	const op = "CatalogService.Search"

	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Product{}, nil
	}
	if limit <= 0 || limit > maxSearch {
		limit = maxSearch
	}
	ps, err := s.store.Products().List(ctx, repositories.ProductQuery{Search: q, ActiveOnly: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// ─────────────────────────────────────────────
// Verification
// ─────────────────────────────────────────────

const (
	ViolationProductMissing    = "product_missing"
	ViolationPriceChanged      = "price_changed"
	ViolationOutOfStock        = "out_of_stock"
	ViolationInsufficientStock = "insufficient_stock"
)

// CheckoutLine is a cart line as the shopper saw it.
type CheckoutLine struct {
	ProductID string  `json:"productId" validate:"required"`
	Title     string  `json:"title"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// Violation is one reason a line cannot be bought as shown.
type Violation struct {
	Index     int     `json:"index"`
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Size      string  `json:"size,omitempty"`
	Code      string  `json:"code"`
	Message   string  `json:"message"`
	Price     float64 `json:"price,omitempty"`
	Available int     `json:"available,omitempty"`
}

// Verify checks every line against the live catalog and returns all
// violations. Lines for the same product and size draw on the same stock.
func (s *CatalogService) Verify(ctx context.Context, lines []CheckoutLine) ([]Violation, error) {
	const op = "CatalogService.Verify"

	products, err := s.liveProducts(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	violations := []Violation{}
	wanted := map[string]int{}
	for i, line := range lines {
		p, ok := products[line.ProductID]
		title := line.Title
		if ok && title == "" {
			title = p.Title
		}
		v := Violation{Index: i, ProductID: line.ProductID, Title: title, Size: line.Size}

		if !ok || !p.IsActive {
			v.Code = ViolationProductMissing
			v.Message = fmt.Sprintf("product %q is no longer available", title)
			violations = append(violations, v)
			continue
		}
		if price := p.EffectivePrice(); line.Price > 0 && !samePrice(price, line.Price) {
			v.Code = ViolationPriceChanged
			v.Message = fmt.Sprintf("the price of %q has changed, please refresh", title)
			v.Price = price
			violations = append(violations, v)
		}

		sizeKey := line.Size
		if !p.TracksSizes() {
			sizeKey = ""
		}
		key := line.ProductID + "__" + sizeKey
		wanted[key] += line.Quantity

		available, _ := p.Available(line.Size)
		switch {
		case available <= 0:
			v.Code = ViolationOutOfStock
			v.Message = fmt.Sprintf("%q is out of stock", title)
			v.Price = 0
			violations = append(violations, v)
		case wanted[key] > available:
			v.Code = ViolationInsufficientStock
			v.Message = fmt.Sprintf("not enough stock for %q", title)
			v.Price = 0
			v.Available = available
			violations = append(violations, v)
		}
	}
	return violations, nil
}

func (s *CatalogService) liveProducts(ctx context.Context, lines []CheckoutLine) (map[string]models.Product, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if !slices.Contains(ids, l.ProductID) {
			ids = append(ids, l.ProductID)
		}
	}
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ps, err := s.store.Products().List(ctx, repositories.ProductQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

func samePrice(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}
