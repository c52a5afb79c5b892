package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vendora/vendora/app/models"
)

// TokenRepository backs refresh-token rotation and one-time verify/reset
// links. A refresh token is valid only while its record exists; rotation
// deletes the old record and inserts the replacement.
type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection("tokens")}
}

func (r *TokenRepository) Create(ctx context.Context, t *models.Token) error {
	t.CreatedAt = time.Now().UTC()

	res, err := r.coll.InsertOne(ctx, t)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid
	}
	return nil
}

// Find returns a live token record by token id and kind. Expired records are
// treated as absent.
func (r *TokenRepository) Find(ctx context.Context, tokenID, kind string) (models.Token, error) {
	var t models.Token
	err := r.coll.FindOne(ctx, bson.M{
		"tokenId":   tokenID,
		"kind":      kind,
		"expiresAt": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Token{}, models.ErrNotFound
	}
	if err != nil {
		return models.Token{}, fmt.Errorf("find token: %w", err)
	}
	return t, nil
}

// Consume deletes a token record, returning models.ErrNotFound when it was
// already gone. The zero-or-one delete makes each token single-use.
func (r *TokenRepository) Consume(ctx context.Context, tokenID, kind string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"tokenId": tokenID, "kind": kind})
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RevokeAll removes every token of kind held by a user.
func (r *TokenRepository) RevokeAll(ctx context.Context, userID primitive.ObjectID, kind string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID, "kind": kind})
	if err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}
