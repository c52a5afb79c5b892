package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one line in a cart. Name, price and image are snapshotted from
// the product at the time the item is added.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int64              `bson:"quantity" json:"quantity"`
	ImageURL  string             `bson:"imageUrl" json:"imageUrl"`
}

// Cart is a consumer's pending selection. One cart per user.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Total sums price times quantity across all items.
func (c Cart) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// IsEmpty reports whether the cart has no items.
func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }
