package seeders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/pkg/auth"
)

func init() {
	Register("users", SeedUsers)
	Register("products", SeedProducts)
}

// SeedUsers inserts one demo shopkeeper and one demo consumer when the
// collection is empty.
func SeedUsers(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("users")

	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword("password123")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	users := []interface{}{
		models.User{
			Name:      "Demo Shopkeeper",
			Email:     "shop@vendora.test",
			Password:  hash,
			Role:      models.RoleShopkeeper,
			Profile:   models.Profile{ShopName: "Vendora Demo Store"},
			Verified:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		models.User{
			Name:      "Demo Consumer",
			Email:     "buyer@vendora.test",
			Password:  hash,
			Role:      models.RoleConsumer,
			Profile:   models.Profile{Address: "1 Demo Street"},
			Verified:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	_, err = coll.InsertMany(ctx, users)
	return err
}

// SeedProducts inserts the starter catalogue when it is empty.
func SeedProducts(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("products")

	count, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var shopkeeper models.User
	if err := db.Collection("users").
		FindOne(ctx, bson.M{"role": models.RoleShopkeeper}).
		Decode(&shopkeeper); err != nil {
		shopkeeper.ID = primitive.NewObjectID()
	}

	now := time.Now().UTC()
	products := []interface{}{
		models.Product{
			Name:         "Premium Hoodie",
			Description:  "Heavyweight cotton hoodie for daily wear.",
			ImageURL:     "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab",
			Price:        69,
			Stock:        30,
			Category:     "fashion",
			ShopkeeperID: shopkeeper.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		models.Product{
			Name:         "Wireless Keyboard",
			Description:  "Mechanical feel keyboard with low-latency pairing.",
			ImageURL:     "https://images.unsplash.com/photo-1517336714739-489689fd1ca8",
			Price:        119,
			Stock:        20,
			Category:     "electronics",
			ShopkeeperID: shopkeeper.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		models.Product{
			Name:         "Running Shoes",
			Description:  "Cushioned sole designed for long sessions.",
			ImageURL:     "https://images.unsplash.com/photo-1542291026-7eec264c27ff",
			Price:        89,
			Stock:        45,
			Category:     "sports",
			ShopkeeperID: shopkeeper.ID,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	_, err = coll.InsertMany(ctx, products)
	return err
}
