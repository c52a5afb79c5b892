package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vendora/vendora/app/models"
)

// ProductFilter narrows catalogue listings. MinPrice/MaxPrice of zero mean
// unbounded.
type ProductFilter struct {
	Category     string
	Search       string
	MinPrice     float64
	MaxPrice     float64
	ShopkeeperID primitive.ObjectID
	Page         int64
	Limit        int64
}

// ProductRepository handles the products collection.
type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection("products")}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var p models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, models.ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

// List returns a page of products plus the total match count.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		rx := bson.M{"$regex": f.Search, "$options": "i"}
		filter["$or"] = bson.A{bson.M{"name": rx}, bson.M{"description": rx}}
	}
	price := bson.M{}
	if f.MinPrice > 0 {
		price["$gte"] = f.MinPrice
	}
	if f.MaxPrice > 0 {
		price["$lte"] = f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if !f.ShopkeeperID.IsZero() {
		filter["shopkeeperId"] = f.ShopkeeperID
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}
	return products, total, nil
}

// Update sets the given fields on a product owned by shopkeeperID.
// Returns models.ErrNotFound when no owned product matches.
func (r *ProductRepository) Update(ctx context.Context, id, shopkeeperID primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "shopkeeperId": shopkeeperID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a product owned by shopkeeperID.
func (r *ProductRepository) Delete(ctx context.Context, id, shopkeeperID primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "shopkeeperId": shopkeeperID})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// IncrementStock adjusts the on-hand count of a product owned by
// shopkeeperID. A negative delta never drives stock below zero.
func (r *ProductRepository) IncrementStock(ctx context.Context, id, shopkeeperID primitive.ObjectID, delta int64) error {
	filter := bson.M{"_id": id, "shopkeeperId": shopkeeperID}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DecrementStock subtracts each ordered quantity from its product's on-hand
// count. Adjustments are applied per item and are best-effort: a missing
// product is skipped rather than failing the whole order.
func (r *ProductRepository) DecrementStock(ctx context.Context, items []models.OrderItem) error {
	return r.adjustStock(ctx, items, -1)
}

// RestoreStock adds each ordered quantity back after a paid order is
// cancelled.
func (r *ProductRepository) RestoreStock(ctx context.Context, items []models.OrderItem) error {
	return r.adjustStock(ctx, items, 1)
}

func (r *ProductRepository) adjustStock(ctx context.Context, items []models.OrderItem, sign int64) error {
	var firstErr error
	for _, it := range items {
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": it.ProductID},
			bson.M{
				"$inc": bson.M{"stock": sign * it.Quantity},
				"$set": bson.M{"updatedAt": time.Now().UTC()},
			},
		)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("adjust stock for %s: %w", it.ProductID.Hex(), err)
		}
	}
	return firstErr
}
