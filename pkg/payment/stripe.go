package payment

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider builds a provider with its own API client (no global
// stripe.Key mutation).
func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeProvider{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, in SessionInput) (Session, error) {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.Lines))
	for _, l := range in.Lines {
		priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String("usd"),
			UnitAmount: stripe.Int64(l.UnitAmount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(l.Name),
			},
		}
		if l.ImageURL != "" {
			priceData.ProductData.Images = stripe.StringSlice([]string{l.ImageURL})
		}

		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: priceData,
			Quantity:  stripe.Int64(l.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lines,
		CustomerEmail:      stripe.String(in.CustomerEmail),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
	}
	params.AddMetadata("orderId", in.OrderID)
	params.AddMetadata("userId", in.UserID)

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("%w: create session: %v", ErrProvider, err)
	}

	return Session{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{Type: string(ev.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
		return Event{}, fmt.Errorf("%w: decode session: %v", ErrProvider, err)
	}

	out.SessionID = sess.ID
	out.OrderID = sess.Metadata["orderId"]
	out.UserID = sess.Metadata["userId"]
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out, nil
}

func (p *StripeProvider) SessionStatus(ctx context.Context, sessionID string) (SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return SessionStatus{}, fmt.Errorf("%w: retrieve session: %v", ErrProvider, err)
	}

	return SessionStatus{
		PaymentStatus: string(sess.PaymentStatus),
		OrderID:       sess.Metadata["orderId"],
		CustomerEmail: sess.CustomerEmail,
	}, nil
}

func (p *StripeProvider) Refund(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return fmt.Errorf("%w: retrieve session: %v", ErrProvider, err)
	}

	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("%w: session %s has no payment intent", ErrProvider, sessionID)
	}

	refundParams := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	if _, err := p.api.Refunds.New(refundParams); err != nil {
		return fmt.Errorf("%w: refund: %v", ErrProvider, err)
	}
	return nil
}
