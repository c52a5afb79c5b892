package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalogue entry owned by a shopkeeper. Stock is the
// authoritative on-hand count; checkout adjusts it atomically when a payment
// is confirmed or reversed.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Price        float64            `bson:"price" json:"price"`
	Stock        int64              `bson:"stock" json:"stock"`
	Category     string             `bson:"category" json:"category"`
	ImageURL     string             `bson:"imageUrl" json:"imageUrl"`
	ShopkeeperID primitive.ObjectID `bson:"shopkeeperId" json:"shopkeeperId"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// InStock reports whether the requested quantity is currently available.
// Advisory only: the count can change between the check and checkout.
func (p Product) InStock(qty int64) bool {
	return p.Stock >= qty
}
