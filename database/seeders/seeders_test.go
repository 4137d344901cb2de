package seeders

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/repositories"
)

func TestRunAllIsRepeatable(t *testing.T) {
	store := repositories.NewMemoryStore()
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, RunAll(ctx, store, &out))
	require.NoError(t, RunAll(ctx, store, &out))
	assert.Contains(t, out.String(), "seeding catalog")

	ps, err := store.Products().List(ctx, repositories.ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, ps, len(demoProducts))

	for _, p := range ps {
		assert.True(t, models.IsCategory(p.Category), p.ID)
		assert.True(t, p.IsActive, p.ID)
	}
	assert.Contains(t, Names(), "catalog")
}
