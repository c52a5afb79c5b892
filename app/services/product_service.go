package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/app/repositories"
	"github.com/vendora/vendora/pkg/cache"
	"github.com/vendora/vendora/pkg/logger"
)

const (
	productCachePrefix = "products:"
	productCacheTTL    = 5 * time.Minute
)

// ProductInput carries the create/update form for a catalogue entry.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Description string  `json:"description" validate:"nullable,max=2000"`
	Price       float64 `json:"price" validate:"required,gte=0.01"`
	Stock       int64   `json:"stock" validate:"gte=0"`
	Category    string  `json:"category" validate:"required,min=2,max=100"`
	ImageURL    string  `json:"imageUrl" validate:"nullable,max=1000"`
}

// ProductPage is a cached listing result.
type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// ProductService owns the catalogue. Listings are cached in Redis and the
// cache is invalidated wholesale on any write.
type ProductService struct {
	products ProductStore
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products}
}

// List returns a catalogue page, served from cache when possible. Stock
// counts in a cached page may lag the live value by up to the cache TTL;
// checkout re-checks stock against the store.
func (s *ProductService) List(ctx context.Context, f repositories.ProductFilter) (ProductPage, error) {
	key := fmt.Sprintf("%slist:%s:%s:%g:%g:%s:%d:%d",
		productCachePrefix, f.Category, f.Search, f.MinPrice, f.MaxPrice,
		f.ShopkeeperID.Hex(), f.Page, f.Limit)

	var page ProductPage
	if cache.Get(ctx, key, &page) {
		return page, nil
	}

	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return ProductPage{}, err
	}
	page = ProductPage{Products: products, Total: total}

	if err := cache.Set(ctx, key, page, productCacheTTL); err != nil {
		logger.WithCtx(ctx).Warn("products: cache set", "error", err)
	}
	return page, nil
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	return s.products.FindByID(ctx, id)
}

// Create adds a product owned by the calling shopkeeper.
func (s *ProductService) Create(ctx context.Context, shopkeeperID primitive.ObjectID, in ProductInput) (models.Product, error) {
	p := models.Product{
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		Stock:        in.Stock,
		Category:     in.Category,
		ImageURL:     in.ImageURL,
		ShopkeeperID: shopkeeperID,
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return models.Product{}, err
	}
	s.invalidate(ctx)
	return p, nil
}

// Update edits a product. Only the owning shopkeeper's products match.
// Stock is deliberately excluded: a $set here would race with the $inc
// adjustments checkout applies, so restocking goes through Restock.
func (s *ProductService) Update(ctx context.Context, id, shopkeeperID primitive.ObjectID, in ProductInput) (models.Product, error) {
	set := bson.M{
		"name":        in.Name,
		"description": in.Description,
		"price":       in.Price,
		"category":    in.Category,
	}
	if in.ImageURL != "" {
		set["imageUrl"] = in.ImageURL
	}
	if err := s.products.Update(ctx, id, shopkeeperID, set); err != nil {
		return models.Product{}, err
	}
	s.invalidate(ctx)
	return s.products.FindByID(ctx, id)
}

// Restock adjusts a product's on-hand count by delta. Negative deltas that
// would take stock below zero are rejected by the store.
func (s *ProductService) Restock(ctx context.Context, id, shopkeeperID primitive.ObjectID, delta int64) (models.Product, error) {
	if err := s.products.IncrementStock(ctx, id, shopkeeperID, delta); err != nil {
		return models.Product{}, err
	}
	s.invalidate(ctx)
	return s.products.FindByID(ctx, id)
}

// SetImage updates only the product image, used by the upload endpoint.
func (s *ProductService) SetImage(ctx context.Context, id, shopkeeperID primitive.ObjectID, url string) error {
	if err := s.products.Update(ctx, id, shopkeeperID, bson.M{"imageUrl": url}); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a product owned by the calling shopkeeper.
func (s *ProductService) Delete(ctx context.Context, id, shopkeeperID primitive.ObjectID) error {
	if err := s.products.Delete(ctx, id, shopkeeperID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if err := cache.DelPrefix(ctx, productCachePrefix); err != nil {
		logger.WithCtx(ctx).Warn("products: cache invalidate", "error", err)
	}
}
