package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds.
const (
	NotifyOrderPlaced    = "order_placed"
	NotifyOrderPaid      = "order_paid"
	NotifyOrderShipped   = "order_shipped"
	NotifyOrderCancelled = "order_cancelled"
)

// Notification is an in-app message addressed to every user of a role.
// OrderID links back to the order that produced it.
type Notification struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type       string             `bson:"type" json:"type"`
	Title      string             `bson:"title" json:"title"`
	Message    string             `bson:"message" json:"message"`
	TargetRole string             `bson:"targetRole" json:"targetRole"`
	OrderID    primitive.ObjectID `bson:"orderId,omitempty" json:"orderId,omitempty"`
	IsRead     bool               `bson:"isRead" json:"isRead"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
