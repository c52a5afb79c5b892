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
	"github.com/vendora/vendora/pkg/crypt"
)

// UserRepository handles the users collection. Mobile numbers are encrypted
// before they touch the database and decrypted on every read.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection("users")}
}

// Create inserts a new user. Returns models.ErrDuplicate when the email is
// already registered.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Profile.Mobile != "" {
		enc, err := crypt.Encrypt(user.Profile.Mobile)
		if err != nil {
			return fmt.Errorf("encrypt mobile: %w", err)
		}
		user.Profile.Mobile = enc
	}

	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

// FindByEmail looks up a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID looks up a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	if user.Profile.Mobile != "" {
		plain, err := crypt.Decrypt(user.Profile.Mobile)
		if err != nil {
			return models.User{}, fmt.Errorf("decrypt mobile: %w", err)
		}
		user.Profile.Mobile = plain
	}
	return user, nil
}

// UpdateProfile replaces a user's name and profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, name string, profile models.Profile) error {
	if profile.Mobile != "" {
		enc, err := crypt.Encrypt(profile.Mobile)
		if err != nil {
			return fmt.Errorf("encrypt mobile: %w", err)
		}
		profile.Mobile = enc
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":      name,
			"profile":   profile,
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkVerified flags the account as email-verified.
func (r *UserRepository) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"verified": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
