package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/pkg/storage"
)

const (
	pngBody  = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	jpegBody = "\xff\xd8\xff\xe0\x00\x10JFIF\x00"
	webpBody = "RIFF\x24\x00\x00\x00WEBPVP8 "
)

func newProducts(t *testing.T) (*ProductService, *repositories.MemoryStore, string) {
	t.Helper()
	root := t.TempDir()
	disk, err := storage.NewLocal(root, "https://cdn.test/storage")
	require.NoError(t, err)

	store := repositories.NewMemoryStore()
	svc := NewProductService(store, disk, 5<<20)
	return svc, store, root
}

func TestProductCreateUpdateDelete(t *testing.T) {
	svc, store, _ := newProducts(t)
	var changes int
	svc.OnChange(func(context.Context) { changes++ })
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{
		Title:    " Red Dress ",
		Price:    200,
		Category: "Dresses",
		Colors:   []string{"red", " "},
		Sizes:    []models.SizeStock{{Size: "M", Stock: 2}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Red Dress", p.Title)
	assert.Equal(t, models.CategoryDresses, p.Category)
	assert.Equal(t, models.CurrencyILS, p.Currency)
	assert.Equal(t, []string{"red"}, p.Colors)
	assert.True(t, p.IsActive)

	updated, err := svc.Update(ctx, p.ID, ProductInput{Title: "Red Dress", Price: 180, Category: "dresses", IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 180.0, updated.Price)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []models.SizeStock{{Size: "M", Stock: 2}}, updated.Sizes, "stock untouched without stock fields")

	updated, err = svc.Update(ctx, p.ID, ProductInput{Title: "Red Dress", Price: 180, Category: "dresses", Sizes: []models.SizeStock{{Size: "M", Stock: 7}}})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Sizes[0].Stock)

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = store.Products().FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Equal(t, 4, changes)
}

func TestProductValidation(t *testing.T) {
	svc, _, _ := newProducts(t)
	ctx := context.Background()

	for name, in := range map[string]ProductInput{
		"title":    {Price: 10, Category: "shirts"},
		"price":    {Title: "T", Category: "shirts"},
		"category": {Title: "T", Price: 10, Category: "shoes"},
		"stock":    {Title: "T", Price: 10, Category: "shirts", TotalStock: ptr(-1)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	_, err := svc.Update(ctx, "missing", ProductInput{Title: "T", Price: 10, Category: "shirts"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddImages(t *testing.T) {
	svc, _, root := newProducts(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{Title: "Scarf", Price: 40, Category: "accessories", Images: []string{"https://cdn.test/old.jpg"}})
	require.NoError(t, err)

	urls, err := svc.AddImages(ctx, p.ID, []Upload{
		{Filename: "front.PNG", ContentType: "image/png", Size: int64(len(pngBody)), Body: strings.NewReader(pngBody)},
		{Filename: "back", ContentType: "application/octet-stream", Size: int64(len(webpBody)), Body: strings.NewReader(webpBody)},
	})
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.True(t, strings.HasPrefix(urls[0], "https://cdn.test/storage/products/"))
	assert.True(t, strings.HasSuffix(urls[0], ".png"))
	assert.True(t, strings.HasSuffix(urls[1], ".webp"))

	key := strings.TrimPrefix(urls[0], "https://cdn.test/storage/")
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, pngBody, string(data), "sniffed bytes are written back in full")

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, append([]string{"https://cdn.test/old.jpg"}, urls...), got.Images)
}

func TestAddImagesRejects(t *testing.T) {
	svc, _, _ := newProducts(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{Title: "Scarf", Price: 40, Category: "accessories"})
	require.NoError(t, err)

	_, err = svc.AddImages(ctx, p.ID, []Upload{{Filename: "notes.txt", ContentType: "text/plain", Size: 1, Body: strings.NewReader("x")}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.AddImages(ctx, p.ID, []Upload{{Filename: "huge.jpg", ContentType: "image/jpeg", Size: 6 << 20, Body: strings.NewReader(jpegBody)}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.AddImages(ctx, p.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Images)
}

func TestAddImagesTypesByContent(t *testing.T) {
	svc, _, root := newProducts(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{Title: "Scarf", Price: 40, Category: "accessories"})
	require.NoError(t, err)

	page := "<html><script>alert(1)</script></html>"
	_, err = svc.AddImages(ctx, p.ID, []Upload{
		{Filename: "front.jpg", ContentType: "image/jpeg", Size: int64(len(jpegBody)), Body: strings.NewReader(jpegBody)},
		{Filename: "x.png", ContentType: "image/png", Size: int64(len(page)), Body: strings.NewReader(page)},
	})
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "x.png is not an image")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing stored when one upload is rejected")

	urls, err := svc.AddImages(ctx, p.ID, []Upload{
		{Filename: "x.html", ContentType: "text/html", Size: int64(len(pngBody)), Body: strings.NewReader(pngBody)},
	})
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.True(t, strings.HasSuffix(urls[0], ".png"), urls[0])
}

// stockFailStore fails every stock write inside a transaction.
type stockFailStore struct {
	*repositories.MemoryStore
}

type stockFailTx struct {
	repositories.Tx
}

var errStockWrite = errors.New("stock write refused")

func (stockFailTx) SetProductStock(context.Context, string, repositories.ProductStock) error {
	return errStockWrite
}

func (s stockFailStore) RunInTransaction(ctx context.Context, fn repositories.TxFunc) error {
	return s.MemoryStore.RunInTransaction(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return fn(ctx, stockFailTx{tx})
	})
}

func TestProductUpdateIsAllOrNothing(t *testing.T) {
	disk, err := storage.NewLocal(t.TempDir(), "https://cdn.test/storage")
	require.NoError(t, err)
	mem := repositories.NewMemoryStore()
	svc := NewProductService(stockFailStore{mem}, disk, 5<<20)
	var changes int
	svc.OnChange(func(context.Context) { changes++ })
	ctx := context.Background()

	require.NoError(t, mem.Products().Create(ctx, models.Product{
		ID: "P1", Title: "Red Dress", Price: 200, Category: models.CategoryDresses, IsActive: true,
		Sizes: []models.SizeStock{{Size: "M", Stock: 2}},
	}))

	_, err = svc.Update(ctx, "P1", ProductInput{Title: "Blue Dress", Price: 150, Category: "dresses", TotalStock: ptr(9)})
	require.ErrorIs(t, err, errStockWrite)

	got, err := mem.Products().FindByID(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, "Red Dress", got.Title)
	assert.Equal(t, 200.0, got.Price)
	assert.Equal(t, []models.SizeStock{{Size: "M", Stock: 2}}, got.Sizes)
	assert.Zero(t, changes)

	updated, err := svc.Update(ctx, "P1", ProductInput{Title: "Blue Dress", Price: 150, Category: "dresses"})
	require.NoError(t, err)
	assert.Equal(t, "Blue Dress", updated.Title)
	assert.Equal(t, []models.SizeStock{{Size: "M", Stock: 2}}, updated.Sizes)
	assert.Equal(t, 1, changes)
}
