package controllers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/repositories"
	"github.com/vendora/vendora/app/services"
	"github.com/vendora/vendora/pkg/response"
	"github.com/vendora/vendora/pkg/storage"
	"github.com/vendora/vendora/pkg/validate"
)

const maxImageSize = 5 << 20 // 5 MB

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	f := repositories.ProductFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Page:     page,
		Limit:    limit,
	}
	if v := r.URL.Query().Get("minPrice"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p > 0 {
			f.MinPrice = p
		}
	}
	if v := r.URL.Query().Get("maxPrice"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p > 0 {
			f.MaxPrice = p
		}
	}
	if mine := r.URL.Query().Get("shopkeeperId"); mine != "" {
		if id, err := primitive.ObjectIDFromHex(mine); err == nil {
			f.ShopkeeperID = id
		}
	}

	result, err := c.products.List(r.Context(), f)
	if err != nil {
		fail(w, err)
		return
	}
	response.Paginated(w, result.Products, pageMeta(page, limit, result.Total))
}

func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := c.products.Get(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, product)
}

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	shopkeeperID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in services.ProductInput
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.products.Create(r.Context(), shopkeeperID, in)
	if err != nil {
		fail(w, err)
		return
	}
	response.Created(w, product)
}

func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	shopkeeperID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var in services.ProductInput
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.products.Update(r.Context(), id, shopkeeperID, in)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, product)
}

// UpdateStock applies a relative stock adjustment. Product edits never touch
// stock, so restocking has its own endpoint.
func (c *ProductController) UpdateStock(w http.ResponseWriter, r *http.Request) {
	shopkeeperID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var in struct {
		Delta int64 `json:"delta"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Delta == 0 {
		response.ValidationError(w, map[string]string{"delta": "delta must not be zero"})
		return
	}

	product, err := c.products.Restock(r.Context(), id, shopkeeperID, in.Delta)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, product)
}

func (c *ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	shopkeeperID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := c.products.Delete(r.Context(), id, shopkeeperID); err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "product deleted", nil)
}

// UploadImage accepts a multipart "image" file, stores it on the configured
// disk and points the product at the stored file's public URL.
func (c *ProductController) UploadImage(w http.ResponseWriter, r *http.Request) {
	shopkeeperID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		response.Error(w, http.StatusBadRequest, "image too large or malformed form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		response.Error(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	path := fmt.Sprintf("products/%s/%s%s", id.Hex(), uuid.NewString(), ext)
	if err := storage.PutStream(path, io.LimitReader(file, maxImageSize)); err != nil {
		response.Error(w, http.StatusInternalServerError, "could not store image")
		return
	}

	url := storage.URL(path)
	if err := c.products.SetImage(r.Context(), id, shopkeeperID, url); err != nil {
		fail(w, err)
		return
	}
	response.Success(w, map[string]string{"imageUrl": url})
}
