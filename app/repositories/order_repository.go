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

// OrderRepository handles the orders collection. Every status change goes
// through a conditional update whose filter names the expected current
// status, so a transition commits at most once no matter how many writers
// race on it.
type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection("orders")}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = models.StatusPending
	}

	res, err := r.coll.InsertOne(ctx, o)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = oid
	}
	return nil
}

// FindForUser returns an order only when it belongs to userID.
func (r *OrderRepository) FindForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	var o models.Order
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, models.ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("find order: %w", err)
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]models.Order, int64, error) {
	return r.list(ctx, bson.M{"userId": userID}, page, limit)
}

// List returns all orders, newest first. Shopkeepers use this to track
// incoming purchases.
func (r *OrderRepository) List(ctx context.Context, page, limit int64) ([]models.Order, int64, error) {
	return r.list(ctx, bson.M{}, page, limit)
}

func (r *OrderRepository) list(ctx context.Context, filter bson.M, page, limit int64) ([]models.Order, int64, error) {
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	return orders, total, nil
}

// SetPaymentSessionID records the checkout session created for a pending
// order.
func (r *OrderRepository) SetPaymentSessionID(ctx context.Context, id primitive.ObjectID, sessionID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"paymentSessionId": sessionID,
			"updatedAt":        time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("set payment session: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkPaid moves a pending order to paid and returns the updated record.
// Returns models.ErrNotFound when the order is missing or no longer pending,
// which makes redelivered payment confirmations a safe no-op.
func (r *OrderRepository) MarkPaid(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	return r.transition(ctx, bson.M{"_id": id},
		models.StatusPending, models.StatusPaid)
}

// MarkShipped moves a paid order to shipped.
func (r *OrderRepository) MarkShipped(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	return r.transition(ctx, bson.M{"_id": id},
		models.StatusPaid, models.StatusShipped)
}

// CancelPendingForUser cancels the user's own pending order. No stock or
// payment compensation is needed because neither has happened yet.
func (r *OrderRepository) CancelPendingForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	return r.transition(ctx, bson.M{"_id": id, "userId": userID},
		models.StatusPending, models.StatusCancelled)
}

// CancelPaidForUser cancels the user's own paid order and returns the
// updated record so the caller can restore stock and request a refund.
func (r *OrderRepository) CancelPaidForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	return r.transition(ctx, bson.M{"_id": id, "userId": userID},
		models.StatusPaid, models.StatusCancelled)
}

func (r *OrderRepository) transition(ctx context.Context, filter bson.M, from, to string) (models.Order, error) {
	if !models.CanTransition(from, to) {
		return models.Order{}, fmt.Errorf("order status %s cannot move to %s", from, to)
	}
	filter["status"] = from

	set := bson.M{"status": to, "updatedAt": time.Now().UTC()}

	var o models.Order
	err := r.coll.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, models.ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("transition order to %s: %w", to, err)
	}
	return o, nil
}
