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

// CartRepository handles the carts collection. Each user has at most one
// cart document, upserted on first write.
type CartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection("carts")}
}

// Get returns the user's cart, or an empty cart when none exists yet.
func (r *CartRepository) Get(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	var cart models.Cart
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return models.Cart{}, fmt.Errorf("find cart: %w", err)
	}
	return cart, nil
}

// Save replaces the user's cart items, creating the cart if needed.
func (r *CartRepository) Save(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{
			"items":     items,
			"updatedAt": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Clear empties the user's cart. Clearing an absent cart is a no-op.
func (r *CartRepository) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{
			"items":     []models.CartItem{},
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
