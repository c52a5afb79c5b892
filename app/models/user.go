package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account roles. A user signs up as exactly one of these and the role never
// changes afterwards.
const (
	RoleConsumer   = "consumer"
	RoleShopkeeper = "shopkeeper"
)

// User is an account holder. The Profile carries role-specific fields;
// consumers fill in mobile and address, shopkeepers fill in the shop name.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"` // hashed, never serialised
	Role      string             `bson:"role" json:"role"`
	Profile   Profile            `bson:"profile" json:"profile"`
	Verified  bool               `bson:"verified" json:"verified"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Profile holds role-specific account details. Mobile is stored encrypted at
// rest; repositories decrypt it on read.
type Profile struct {
	Mobile   string `bson:"mobile,omitempty" json:"mobile,omitempty"`
	Address  string `bson:"address,omitempty" json:"address,omitempty"`
	ShopName string `bson:"shopName,omitempty" json:"shopName,omitempty"`
}

// Token kinds stored in the tokens collection.
const (
	TokenRefresh = "refresh"
	TokenVerify  = "verify"
	TokenReset   = "reset"
)

// Token is a server-side record backing refresh-token rotation, email
// verification and password reset links.
type Token struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	TokenID   string             `bson:"tokenId" json:"-"`
	Kind      string             `bson:"kind" json:"kind"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
