package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/storage"
)

// ProductInput is the admin form for a product. Stock fields are optional on
// update; when present they replace the product's stock.
type ProductInput struct {
	Title       string             `json:"title" validate:"required"`
	Description string             `json:"description"`
	Price       float64            `json:"price" validate:"required,gt=0"`
	SalePrice   *float64           `json:"salePrice" validate:"omitempty,gte=0"`
	Currency    string             `json:"currency" validate:"omitempty,oneof=ILS USD"`
	Category    string             `json:"category" validate:"required"`
	Images      []string           `json:"images"`
	Colors      []string           `json:"colors"`
	Tags        []string           `json:"tags"`
	Rating      float64            `json:"rating" validate:"gte=0,lte=5"`
	IsActive    *bool              `json:"isActive"`
	Sizes       []models.SizeStock `json:"sizes"`
	TotalStock  *int               `json:"totalStock"`
}

func (in ProductInput) apply(p *models.Product) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.Price = in.Price
	p.SalePrice = in.SalePrice
	p.Currency = strings.ToUpper(in.Currency)
	if p.Currency == "" {
		p.Currency = models.CurrencyILS
	}
	p.Category = strings.ToLower(strings.TrimSpace(in.Category))
	p.Images = nonNil(in.Images)
	p.Colors = nonNil(in.Colors)
	p.Tags = in.Tags
	p.Rating = in.Rating
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func nonNil(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Upload is one image file from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ProductService struct {
	store     repositories.Store
	disk      storage.Disk
	maxUpload int64
	onChange  func(context.Context)
	now       func() time.Time
}

func NewProductService(store repositories.Store, disk storage.Disk, maxUpload int64) *ProductService {
	return &ProductService{
		store:     store,
		disk:      disk,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// OnChange registers fn to run after any catalog write.
func (s *ProductService) OnChange(fn func(context.Context)) { s.onChange = fn }

func (s *ProductService) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

func (s *ProductService) Get(ctx context.Context, id string) (models.Product, error) {
	const op = "ProductService.Get"

	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// List returns every product, active or not, newest first.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	const op = "ProductService.List"

	ps, err := s.store.Products().List(ctx, repositories.ProductQuery{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	const op = "ProductService.Create"

	if err := validateProduct(in); err != nil {
		return models.Product{}, err
	}
	if in.Sizes != nil || in.TotalStock != nil {
		if err := (StockEdit{Sizes: in.Sizes, TotalStock: in.TotalStock}).validate(); err != nil {
			return models.Product{}, err
		}
	}

	now := s.now().UTC()
	p := models.Product{ID: uuid.NewString(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	in.apply(&p)
	stock := StockEdit{Sizes: in.Sizes, TotalStock: in.TotalStock}.stock()
	p.Sizes = stock.Sizes
	if stock.TotalStock != nil {
		v := *stock.TotalStock
		p.TotalStock = &v
	}

	if err := s.store.Products().Create(ctx, p); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	logger.WithCtx(ctx).Info("product created", "op", op, "product_id", p.ID, "category", p.Category)
	s.changed(ctx)
	return p, nil
}

// Update replaces the descriptive fields of product id and, when in carries
// stock fields, its stock. Both commit together or not at all.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (models.Product, error) {
	const op = "ProductService.Update"

	if err := validateProduct(in); err != nil {
		return models.Product{}, err
	}
	edit := StockEdit{Sizes: in.Sizes, TotalStock: in.TotalStock}
	hasStock := in.Sizes != nil || in.TotalStock != nil
	if hasStock {
		if err := edit.validate(); err != nil {
			return models.Product{}, err
		}
	}

	var updated models.Product
	err := s.store.RunInTransaction(ctx, func(ctx context.Context, tx repositories.Tx) error {
		p, err := tx.FindProduct(ctx, id)
		if err != nil {
			return err
		}
		in.apply(&p)
		p.UpdatedAt = s.now().UTC()
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		if hasStock {
			if err := tx.SetProductStock(ctx, id, edit.stock()); err != nil {
				return err
			}
		}
		updated, err = tx.FindProduct(ctx, id)
		return err
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	logger.WithCtx(ctx).Info("product updated", "op", op, "product_id", id, "stock", hasStock)
	s.changed(ctx)
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	const op = "ProductService.Delete"

	if err := s.store.Products().Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.WithCtx(ctx).Info("product deleted", "op", op, "product_id", id)
	s.changed(ctx)
	return nil
}

// AddImages stores each upload under products/ and appends the public URLs to
// the product's images. Nothing is stored unless every upload is acceptable.
func (s *ProductService) AddImages(ctx context.Context, id string, uploads []Upload) ([]string, error) {
	const op = "ProductService.AddImages"

	if len(uploads) == 0 {
		return nil, invalid("no files")
	}
	sniffed := make([]sniffedImage, 0, len(uploads))
	for _, u := range uploads {
		if s.maxUpload > 0 && u.Size > s.maxUpload {
			return nil, invalid("%s is larger than %d MB", u.Filename, s.maxUpload>>20)
		}
		img, err := sniffImage(u)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sniffed = append(sniffed, img)
	}

	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	urls := make([]string, 0, len(uploads))
	for _, img := range sniffed {
		key := "products/" + uuid.NewString() + "." + img.ext
		if err := s.disk.Put(ctx, key, img.body, img.contentType); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		urls = append(urls, s.disk.URL(key))
	}

	p.Images = append(p.Images, urls...)
	p.UpdatedAt = s.now().UTC()
	if err := s.store.Products().Update(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.WithCtx(ctx).Info("product images added", "op", op, "product_id", id, "count", len(urls))
	s.changed(ctx)
	return urls, nil
}

// imageExts maps the sniffed content types accepted for product images to
// the extension they are stored under.
var imageExts = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type sniffedImage struct {
	contentType string
	ext         string
	body        io.Reader
}

// sniffImage types u from its leading bytes. The client's filename and
// Content-Type are ignored.
func sniffImage(u Upload) (sniffedImage, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(u.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return sniffedImage{}, fmt.Errorf("read %s: %w", u.Filename, err)
	}
	head = head[:n]

	ct := http.DetectContentType(head)
	ext, ok := imageExts[ct]
	if !ok {
		return sniffedImage{}, invalid("%s is not an image", u.Filename)
	}
	return sniffedImage{
		contentType: ct,
		ext:         ext,
		body:        io.MultiReader(bytes.NewReader(head), u.Body),
	}, nil
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title is required")
	}
	if in.Price <= 0 {
		return invalid("price must be positive")
	}
	if !models.IsCategory(strings.ToLower(strings.TrimSpace(in.Category))) {
		return invalid("unknown category %q", in.Category)
	}
	return nil
}
