package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. Every status change is made with a conditional update that
// names the expected current status, so illegal transitions cannot be
// committed even under concurrent writers.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusShipped   = "shipped"
	StatusCancelled = "cancelled"
)

var validNext = map[string]map[string]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusShipped: true, StatusCancelled: true},
	StatusShipped:   {},
	StatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	return validNext[from][to]
}

// OrderItem is one purchased line. Name and Price are snapshotted from the
// product at order creation, and ShopkeeperID records who sold the line so
// cancellation and notification flows work even if the product is later
// deleted.
type OrderItem struct {
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	ShopkeeperID primitive.ObjectID `bson:"shopkeeperId,omitempty" json:"shopkeeperId,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Price        float64            `bson:"price" json:"price"`
	Quantity     int64              `bson:"quantity" json:"quantity"`
	ImageURL     string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

// Order is the durable record of a purchase attempt.
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	Items            []OrderItem        `bson:"items" json:"items"`
	Total            float64            `bson:"total" json:"total"`
	Status           string             `bson:"status" json:"status"`
	PaymentSessionID string             `bson:"paymentSessionId,omitempty" json:"paymentSessionId,omitempty"`
	CustomerName     string             `bson:"customerName" json:"customerName"`
	CustomerMobile   string             `bson:"customerMobile,omitempty" json:"customerMobile,omitempty"`
	AlternateMobile  string             `bson:"alternateMobile,omitempty" json:"alternateMobile,omitempty"`
	ShippingAddress  string             `bson:"shippingAddress" json:"shippingAddress"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TotalQuantity sums quantities across all items.
func (o Order) TotalQuantity() int64 {
	var n int64
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// SellerIDs returns the distinct shopkeepers whose products are in the
// order, in first-seen item order.
func (o Order) SellerIDs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(o.Items))
	var out []primitive.ObjectID
	for _, it := range o.Items {
		if it.ShopkeeperID.IsZero() || seen[it.ShopkeeperID] {
			continue
		}
		seen[it.ShopkeeperID] = true
		out = append(out, it.ShopkeeperID)
	}
	return out
}
