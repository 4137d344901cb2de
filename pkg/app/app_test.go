package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
	"github.com/hayatshop/storefront/config"
	"github.com/hayatshop/storefront/pkg/storage"
	"github.com/hayatshop/storefront/pkg/testkit"
)

const adminEmail = "admin@shop.test"

func testConfig() config.Config {
	return config.Config{
		AppEnv:    "testing",
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
		Shop: config.Shop{
			Currency:       "ILS",
			ShippingFee:    20,
			AdminEmails:    []string{adminEmail},
			CatalogTTL:     time.Minute,
			MaxUploadBytes: 1 << 20,
		},
	}
}

func ptr[T any](v T) *T { return &v }

// seed loads the fixture catalog and orders the scenarios refer to.
func seed(t *testing.T, store repositories.Store) {
	t.Helper()
	ctx := context.Background()

	products := []models.Product{
		{ID: "P-DRESS", Title: "Red Dress", Price: 200, Category: models.CategoryDresses, IsActive: true,
			Sizes: []models.SizeStock{{Size: "S", Stock: 1}, {Size: "M", Stock: 3}}},
		{ID: "P-SCARF", Title: "Silk Scarf", Price: 40, Category: models.CategoryAccessories, IsActive: true,
			TotalStock: ptr(10)},
	}
	for _, p := range products {
		require.NoError(t, store.Products().Create(ctx, p))
	}

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	orders := []models.Order{
		{ID: "O-OK", Status: models.StatusAwaitingDelivery, Items: []models.OrderItem{
			{ProductID: "P-DRESS", Title: "Red Dress", Size: "M", Quantity: 2},
			{ProductID: "P-SCARF", Title: "Silk Scarf", Quantity: 1},
		}},
		{ID: "O-SHORT", Status: models.StatusAwaitingDelivery, Items: []models.OrderItem{
			{ProductID: "P-DRESS", Title: "Red Dress", Size: "M", Quantity: 5},
		}},
		{ID: "O-GONE", Status: models.StatusAwaitingDelivery, Items: []models.OrderItem{
			{ProductID: "P-GHOST", Title: "Ghost Tee", Quantity: 1},
		}},
		{ID: "O-XXL", Status: models.StatusAwaitingDelivery, Items: []models.OrderItem{
			{ProductID: "P-DRESS", Title: "Red Dress", Size: "XXL", Quantity: 1},
		}},
		{ID: "O-DONE", Status: models.StatusShipped, ShippedAt: &at, Items: []models.OrderItem{
			{ProductID: "P-SCARF", Title: "Silk Scarf", Quantity: 1},
		}},
	}
	for _, o := range orders {
		o.CreatedAt, o.UpdatedAt = at, at
		require.NoError(t, store.Orders().Create(ctx, o))
	}
}

type harness struct {
	app   *Application
	store *repositories.MemoryStore
	vars  map[string]string
}

func newHarness(t *testing.T, wrap func(*repositories.MemoryStore) repositories.Store) *harness {
	t.Helper()

	mem := repositories.NewMemoryStore()
	seed(t, mem)

	var store repositories.Store = mem
	if wrap != nil {
		store = wrap(mem)
	}

	disk, err := storage.NewLocal(t.TempDir(), "http://cdn.test/storage")
	require.NoError(t, err)
	a := New(testConfig(), Backends{Store: store, Disk: disk})

	adminToken, err := a.Tokens.Generate("u-admin", adminEmail)
	require.NoError(t, err)
	shopperToken, err := a.Tokens.Generate("u-shopper", "noa@example.com")
	require.NoError(t, err)

	return &harness{app: a, store: mem, vars: map[string]string{
		"adminToken":   adminToken,
		"shopperToken": shopperToken,
	}}
}

// TestScenarios runs every file in testdata against a freshly seeded app.
func TestScenarios(t *testing.T) {
	var current http.Handler
	h := newHarness(t, nil)

	runner := testkit.Runner{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current.ServeHTTP(w, r)
		}),
		Vars: h.vars,
		Setup: func(t *testing.T) {
			// Tokens depend only on the secret, so vars stay valid.
			current = newHarness(t, nil).app.Handler()
		},
	}
	runner.RunDir(t, "testdata")
}

func TestShipThroughAPITakesStock(t *testing.T) {
	h := newHarness(t, nil)
	runner := testkit.Runner{Handler: h.app.Handler(), Vars: h.vars}

	runner.Run(t, &testkit.Scenario{
		Name:          "ship",
		RequestMethod: http.MethodPatch,
		RequestURL:    "/api/admin/orders/O-OK",
		Headers:       map[string]string{"Authorization": "Bearer {{adminToken}}"},
		RequestBody:   []byte(`{"status":"shipped"}`),
		ExpectedCode:  http.StatusOK,
		ExpectedBody:  []byte(`{"ok":true,"stockUpdated":true}`),
	})

	ctx := context.Background()
	dress, err := h.store.Products().FindByID(ctx, "P-DRESS")
	require.NoError(t, err)
	assert.Equal(t, []models.SizeStock{{Size: "S", Stock: 1}, {Size: "M", Stock: 1}}, dress.Sizes)

	scarf, err := h.store.Products().FindByID(ctx, "P-SCARF")
	require.NoError(t, err)
	assert.Equal(t, 9, scarf.TotalStockOrZero())

	o, err := h.store.Orders().FindByID(ctx, "O-OK")
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, o.Status)
	assert.NotNil(t, o.ShippedAt)
}

func TestRejectedShipmentLeavesStock(t *testing.T) {
	h := newHarness(t, nil)
	runner := testkit.Runner{Handler: h.app.Handler(), Vars: h.vars}

	runner.Run(t, &testkit.Scenario{
		Name:          "short",
		RequestMethod: http.MethodPatch,
		RequestURL:    "/api/admin/orders/O-SHORT",
		Headers:       map[string]string{"Authorization": "Bearer {{adminToken}}"},
		RequestBody:   []byte(`{"status":"shipped"}`),
		ExpectedCode:  http.StatusInternalServerError,
	})

	dress, err := h.store.Products().FindByID(context.Background(), "P-DRESS")
	require.NoError(t, err)
	assert.Equal(t, 3, dress.Sizes[1].Stock)

	o, err := h.store.Orders().FindByID(context.Background(), "O-SHORT")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingDelivery, o.Status)
}

// brokenTx fails every transaction the way a lost primary would.
type brokenTx struct {
	*repositories.MemoryStore
}

func (brokenTx) RunInTransaction(context.Context, repositories.TxFunc) error {
	return errors.New("transaction aborted: no primary")
}

func TestStoreFailureIsGenericServerError(t *testing.T) {
	h := newHarness(t, func(m *repositories.MemoryStore) repositories.Store { return brokenTx{m} })
	runner := testkit.Runner{Handler: h.app.Handler(), Vars: h.vars}

	rec := runner.Run(t, &testkit.Scenario{
		Name:          "broken store",
		RequestMethod: http.MethodPatch,
		RequestURL:    "/api/admin/orders/O-OK",
		Headers:       map[string]string{"Authorization": "Bearer {{adminToken}}"},
		RequestBody:   []byte(`{"status":"shipped"}`),
		ExpectedCode:  http.StatusInternalServerError,
		ExpectedBody:  []byte(`{"error":"Server error"}`),
	})
	assert.NotContains(t, rec.Body.String(), "primary")
}

func TestRoutesListsOrderStatusEndpoint(t *testing.T) {
	h := newHarness(t, nil)

	var found bool
	for _, r := range h.app.Routes() {
		if r.Method == http.MethodPatch && r.Path == "/api/admin/orders/{id}" {
			found = true
			assert.Equal(t, "admin.orders.status", r.Name)
		}
	}
	assert.True(t, found, "PATCH /api/admin/orders/{id} not registered")
}

func TestStorageServesUploadedFiles(t *testing.T) {
	disk, err := storage.NewLocal(t.TempDir(), "http://cdn.test/storage")
	require.NoError(t, err)
	a := New(testConfig(), Backends{Store: repositories.NewMemoryStore(), Disk: disk})

	require.NoError(t, disk.Put(context.Background(), "products/p1/a.txt", strings.NewReader("hello"), "text/plain"))

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/products/p1/a.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}

func TestBootMemoryStore(t *testing.T) {
	cfg := testConfig()
	cfg.Store = "memory"
	cfg.Storage = config.Storage{Disk: "local", LocalRoot: t.TempDir(), URL: "http://cdn.test/storage"}

	a, err := Boot(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, a.Admins.Len())
}

func TestBootRejectsDefaultSecretInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	cfg.Store = "memory"
	cfg.JWTSecret = config.DefaultJWTSecret

	_, err := Boot(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestBootRejectsUnknownStore(t *testing.T) {
	cfg := testConfig()
	cfg.Store = "postgres"

	_, err := Boot(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store")
}
