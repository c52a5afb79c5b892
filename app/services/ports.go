package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/app/repositories"
)

// Service-level sentinel errors. Controllers map these onto HTTP statuses.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrNotCancelable      = errors.New("order can no longer be cancelled")
)

// Store interfaces mirror the repository method sets the services actually
// call. Tests substitute in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name string, profile models.Profile) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	List(ctx context.Context, f repositories.ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, id, shopkeeperID primitive.ObjectID, set bson.M) error
	Delete(ctx context.Context, id, shopkeeperID primitive.ObjectID) error
	IncrementStock(ctx context.Context, id, shopkeeperID primitive.ObjectID, delta int64) error
	DecrementStock(ctx context.Context, items []models.OrderItem) error
	RestoreStock(ctx context.Context, items []models.OrderItem) error
}

type CartStore interface {
	Get(ctx context.Context, userID primitive.ObjectID) (models.Cart, error)
	Save(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]models.Order, int64, error)
	List(ctx context.Context, page, limit int64) ([]models.Order, int64, error)
	SetPaymentSessionID(ctx context.Context, id primitive.ObjectID, sessionID string) error
	MarkPaid(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	MarkShipped(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	CancelPendingForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error)
	CancelPaidForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRole(ctx context.Context, role string, page, limit int64) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, role string) (int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, role string) error
}

type TokenStore interface {
	Create(ctx context.Context, t *models.Token) error
	Find(ctx context.Context, tokenID, kind string) (models.Token, error)
	Consume(ctx context.Context, tokenID, kind string) error
	RevokeAll(ctx context.Context, userID primitive.ObjectID, kind string) error
}

// Mailer sends a plain-text email to one or more recipients.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// OrderEventInput describes one order lifecycle event. Each audience leg is
// delivered only when its title is set: the seller leg goes to the distinct
// shopkeepers whose products are in the order, the buyer leg to the order's
// owner.
type OrderEventInput struct {
	Kind  string
	Order models.Order

	SellerTitle   string
	SellerMessage string
	BuyerTitle    string
	BuyerMessage  string
}

// Notifier records an order event and fans it out to its audience.
type Notifier interface {
	OrderEvent(ctx context.Context, in OrderEventInput)
}
