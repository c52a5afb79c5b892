// Package payment defines the boundary to the hosted payment provider.
//
// The checkout and refund orchestrators depend only on the Provider
// interface; the Stripe implementation lives in stripe.go. Tests substitute
// an in-memory fake.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrInvalidSignature means the webhook payload failed verification
	// against the shared signing secret. Always fatal to that request.
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")

	// ErrProvider wraps upstream failures from the payment provider.
	ErrProvider = errors.New("payment: provider error")
)

// LineItem is one priced order line forwarded to the hosted checkout page.
type LineItem struct {
	Name       string
	UnitAmount int64 // minor units (cents)
	Quantity   int64
	ImageURL   string
}

// SessionInput carries everything needed to open a hosted checkout session.
// OrderID and UserID travel as correlation metadata and come back on the
// confirmation webhook.
type SessionInput struct {
	OrderID       string
	UserID        string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Lines         []LineItem
}

// Session is the handle returned to the frontend for redirect.
type Session struct {
	ID  string `json:"sessionId"`
	URL string `json:"sessionUrl"`
}

// SessionStatus reports a session's payment state (frontend success page).
type SessionStatus struct {
	PaymentStatus string `json:"status"`
	OrderID       string `json:"orderId"`
	CustomerEmail string `json:"customerEmail"`
}

// Event is a verified, decoded webhook callback.
type Event struct {
	Type            string
	SessionID       string
	OrderID         string
	UserID          string
	PaymentIntentID string
}

// EventCheckoutCompleted is the only event type the confirmation flow acts on.
const EventCheckoutCompleted = "checkout.session.completed"

// Provider is the outbound payment boundary.
type Provider interface {
	// CreateSession opens a hosted checkout session for the given lines.
	CreateSession(ctx context.Context, in SessionInput) (Session, error)

	// VerifyWebhook authenticates a raw webhook payload against the shared
	// signing secret and decodes it. Returns ErrInvalidSignature when the
	// signature check fails.
	VerifyWebhook(payload []byte, signature string) (Event, error)

	// SessionStatus retrieves the current payment status of a session.
	SessionStatus(ctx context.Context, sessionID string) (SessionStatus, error)

	// Refund refunds the payment behind the given checkout session.
	Refund(ctx context.Context, sessionID string) error
}
