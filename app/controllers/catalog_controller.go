package controllers

import (
	"net/http"

	"github.com/hayatshop/storefront/app/models"
	"github.com/hayatshop/storefront/app/services"
	"github.com/hayatshop/storefront/pkg/ctx"
)

// CatalogController serves the public storefront pages.
type CatalogController struct {
	catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

func (c *CatalogController) Categories(x *ctx.Context) {
	x.Success(map[string]any{"categories": c.catalog.Categories()})
}

// Category lists one category with filters from the query string:
// min, max, sale, inStock, sizes, colors, sort, page and pageSize.
func (c *CatalogController) Category(x *ctx.Context) {
	f := services.CatalogFilter{
		Min:         x.QueryFloat("min"),
		Max:         x.QueryFloat("max"),
		SaleOnly:    x.QueryBool("sale"),
		InStockOnly: x.QueryBool("inStock"),
		Sizes:       x.QueryList("sizes"),
		Colors:      x.QueryList("colors"),
		Sort:        x.Query("sort"),
		Page:        x.QueryInt("page", 1),
		PageSize:    x.QueryInt("pageSize", 0),
	}

	page, err := c.catalog.ListCategory(x.Context(), x.Param("slug"), f)
	if err != nil {
		fail(x, "CatalogController.Category", err, "Category not found")
		return
	}
	x.Success(page)
}

func (c *CatalogController) Product(x *ctx.Context) {
	p, err := c.catalog.Product(x.Context(), x.Param("id"))
	if err != nil {
		fail(x, "CatalogController.Product", err, "Product not found")
		return
	}
	x.Success(p)
}

func (c *CatalogController) Search(x *ctx.Context) {
	items, err := c.catalog.Search(x.Context(), x.Query("q"), x.QueryInt("limit", 0))
	if err != nil {
		fail(x, "CatalogController.Search", err, "Product not found")
		return
	}
	x.Success(map[string]any{"items": items})
}

// LegacyCategory moves old /{slug} links to /category/{slug}.
func (c *CatalogController) LegacyCategory(x *ctx.Context) {
	slug := x.Param("slug")
	if !models.IsCategory(slug) {
		x.NotFound("Not found")
		return
	}
	x.Redirect(http.StatusMovedPermanently, "/category/"+slug)
}
