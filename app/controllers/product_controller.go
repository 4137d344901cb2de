package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/hayatshop/storefront/app/services"
	"github.com/hayatshop/storefront/pkg/ctx"
	"github.com/hayatshop/storefront/pkg/logger"
	"github.com/hayatshop/storefront/pkg/response"
)

// maxImagesPerUpload bounds one multipart request.
const maxImagesPerUpload = 10

// ProductController is the back-office catalog editor.
type ProductController struct {
	products  *services.ProductService
	inventory *services.InventoryService
	maxUpload int64
}

func NewProductController(products *services.ProductService, inventory *services.InventoryService, maxUpload int64) *ProductController {
	return &ProductController{products: products, inventory: inventory, maxUpload: maxUpload}
}

func (c *ProductController) Index(x *ctx.Context) {
	ps, err := c.products.List(x.Context())
	if err != nil {
		fail(x, "ProductController.Index", err, "Product not found")
		return
	}
	x.Success(map[string]any{"items": ps})
}

func (c *ProductController) Store(x *ctx.Context) {
	var in services.ProductInput
	if !x.BindJSON(&in) {
		return
	}
	p, err := c.products.Create(x.Context(), in)
	if err != nil {
		fail(x, "ProductController.Store", err, "Product not found")
		return
	}
	x.Created(response.Fields{"product": p})
}

func (c *ProductController) Update(x *ctx.Context) {
	var in services.ProductInput
	if !x.BindJSON(&in) {
		return
	}
	p, err := c.products.Update(x.Context(), x.Param("id"), in)
	if err != nil {
		fail(x, "ProductController.Update", err, "Product not found")
		return
	}
	x.OK(response.Fields{"product": p})
}

func (c *ProductController) Destroy(x *ctx.Context) {
	if err := c.products.Delete(x.Context(), x.Param("id")); err != nil {
		fail(x, "ProductController.Destroy", err, "Product not found")
		return
	}
	x.OK(nil)
}

// Images accepts multipart field "images" with one or more files.
func (c *ProductController) Images(x *ctx.Context) {
	const op = "ProductController.Images"

	limit := c.maxUpload*maxImagesPerUpload + 1<<20
	x.R.Body = http.MaxBytesReader(x.W, x.R.Body, limit)
	if err := x.R.ParseMultipartForm(c.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			x.Error(http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		x.BadRequest("Expected multipart form with images")
		return
	}
	defer x.R.MultipartForm.RemoveAll() //nolint:errcheck

	headers := x.R.MultipartForm.File["images"]
	if len(headers) > maxImagesPerUpload {
		x.BadRequest("Too many files")
		return
	}

	uploads := make([]services.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			logger.WithCtx(x.Context()).Error("open upload", "op", op, "file", h.Filename, "error", err)
			x.ServerError()
			return
		}
		defer f.Close()
		uploads = append(uploads, upload(h, f))
	}

	urls, err := c.products.AddImages(x.Context(), x.Param("id"), uploads)
	if err != nil {
		fail(x, op, err, "Product not found")
		return
	}
	x.OK(response.Fields{"images": urls})
}

func upload(h *multipart.FileHeader, f multipart.File) services.Upload {
	return services.Upload{
		Filename:    h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Size:        h.Size,
		Body:        f,
	}
}

// Inventory lists stock for every product.
func (c *ProductController) Inventory(x *ctx.Context) {
	levels, err := c.inventory.List(x.Context())
	if err != nil {
		fail(x, "ProductController.Inventory", err, "Product not found")
		return
	}
	x.Success(map[string]any{"items": levels})
}

// SetStock replaces one product's stock.
func (c *ProductController) SetStock(x *ctx.Context) {
	var edit services.StockEdit
	if !x.BindJSON(&edit) {
		return
	}
	p, err := c.inventory.SetStock(x.Context(), x.Param("id"), edit)
	if err != nil {
		fail(x, "ProductController.SetStock", err, "Product not found")
		return
	}
	x.OK(response.Fields{"product": p})
}
