package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/config"
	"github.com/vendora/vendora/pkg/logger"
	"github.com/vendora/vendora/pkg/metrics"
	"github.com/vendora/vendora/pkg/payment"
)

// CheckoutService drives the payment flow. Phase one creates a pending
// order and a provider checkout session; phase two reacts to the provider's
// webhook and commits the pending-to-paid transition exactly once. All stock
// movement hangs off that transition, so a redelivered webhook can never
// decrement twice.
type CheckoutService struct {
	orderBuilder *OrderService
	orders       OrderStore
	carts        CartStore
	products     ProductStore
	provider     payment.Provider
	notifier     Notifier
}

func NewCheckoutService(
	orderBuilder *OrderService,
	orders OrderStore,
	carts CartStore,
	products ProductStore,
	provider payment.Provider,
	notifier Notifier,
) *CheckoutService {
	return &CheckoutService{
		orderBuilder: orderBuilder,
		orders:       orders,
		carts:        carts,
		products:     products,
		provider:     provider,
		notifier:     notifier,
	}
}

// CreateSession snapshots the cart into a pending order and opens a hosted
// checkout session for it. The cart stays intact until payment is
// confirmed, so an abandoned session loses nothing.
func (s *CheckoutService) CreateSession(ctx context.Context, userID primitive.ObjectID, email string, in ShippingInput) (payment.Session, models.Order, error) {
	order, err := s.orderBuilder.buildPendingOrder(ctx, userID, in)
	if err != nil {
		return payment.Session{}, models.Order{}, err
	}

	lines := make([]payment.LineItem, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, payment.LineItem{
			Name:       it.Name,
			UnitAmount: toCents(it.Price),
			Quantity:   it.Quantity,
			ImageURL:   it.ImageURL,
		})
	}

	origin := config.FrontendOrigin()
	sess, err := s.provider.CreateSession(ctx, payment.SessionInput{
		OrderID:       order.ID.Hex(),
		UserID:        userID.Hex(),
		CustomerEmail: email,
		SuccessURL:    origin + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     origin + "/checkout/cancel",
		Lines:         lines,
	})
	if err != nil {
		return payment.Session{}, models.Order{}, err
	}

	if err := s.orders.SetPaymentSessionID(ctx, order.ID, sess.ID); err != nil {
		logger.WithCtx(ctx).Error("checkout: record session id",
			"orderId", order.ID.Hex(), "error", err)
	}

	metrics.OrdersTotal.WithLabelValues(models.StatusPending).Inc()
	return sess, order, nil
}

// HandleWebhook processes a provider event. The returned error is non-nil
// only for an invalid signature; every authenticated delivery is
// acknowledged, including duplicates and events for unknown orders, because
// the provider redelivers anything it cannot confirm.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.VerifyWebhook(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("invalid_signature").Inc()
		return err
	}

	log := logger.WithCtx(ctx)

	if ev.Type != payment.EventCheckoutCompleted {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		return nil
	}

	orderID, err := primitive.ObjectIDFromHex(ev.OrderID)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		log.Warn("checkout: webhook without usable order id", "sessionId", ev.SessionID)
		return nil
	}

	order, err := s.orders.MarkPaid(ctx, orderID)
	if errors.Is(err, models.ErrNotFound) {
		// Already paid or cancelled. Redelivery is expected; ack it.
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		log.Info("checkout: webhook replay ignored", "orderId", ev.OrderID)
		return nil
	}
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		log.Error("checkout: mark paid", "orderId", ev.OrderID, "error", err)
		return nil
	}

	metrics.WebhookEvents.WithLabelValues("confirmed").Inc()
	metrics.OrdersTotal.WithLabelValues(models.StatusPaid).Inc()
	log.Info("checkout: payment confirmed",
		"orderId", order.ID.Hex(), "total", order.Total)

	if err := s.products.DecrementStock(ctx, order.Items); err != nil {
		log.Error("checkout: decrement stock", "orderId", order.ID.Hex(), "error", err)
	}
	metrics.StockAdjustments.WithLabelValues("decrement").Add(float64(len(order.Items)))

	if err := s.carts.Clear(ctx, order.UserID); err != nil {
		log.Warn("checkout: clear cart", "userId", order.UserID.Hex(), "error", err)
	}

	s.notifier.OrderEvent(ctx, OrderEventInput{
		Kind:          models.NotifyOrderPaid,
		Order:         order,
		SellerTitle:   "Order paid",
		SellerMessage: orderSummary(order),
		BuyerTitle:    "Payment successful",
		BuyerMessage: fmt.Sprintf("Your payment of $%.2f for order %s was received.",
			order.Total, order.ID.Hex()),
	})
	return nil
}

// SessionStatus reports the provider's view of a checkout session, used by
// the success page while the webhook is still in flight.
func (s *CheckoutService) SessionStatus(ctx context.Context, sessionID string) (payment.SessionStatus, error) {
	return s.provider.SessionStatus(ctx, sessionID)
}

// CancelOrder cancels the caller's order. A pending order just flips to
// cancelled. A paid order additionally gets its stock restored and a refund
// requested; the refund is best-effort and a provider failure never undoes
// the local cancellation.
func (s *CheckoutService) CancelOrder(ctx context.Context, userID, orderID primitive.ObjectID) (models.Order, error) {
	order, err := s.orders.CancelPendingForUser(ctx, orderID, userID)
	if err == nil {
		metrics.OrdersTotal.WithLabelValues(models.StatusCancelled).Inc()
		s.notifier.OrderEvent(ctx, OrderEventInput{
			Kind:        models.NotifyOrderCancelled,
			Order:       order,
			SellerTitle: "Order cancelled",
			SellerMessage: fmt.Sprintf("Order %s was cancelled by the customer before payment.",
				order.ID.Hex()),
			BuyerTitle: "Order cancelled",
			BuyerMessage: fmt.Sprintf("Your order %s was cancelled. No payment was taken.",
				order.ID.Hex()),
		})
		return order, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.Order{}, err
	}

	order, err = s.orders.CancelPaidForUser(ctx, orderID, userID)
	if errors.Is(err, models.ErrNotFound) {
		// Either the order is not the caller's, or it is already shipped or
		// cancelled. Look it up to report which.
		if _, lookupErr := s.orders.FindForUser(ctx, orderID, userID); lookupErr != nil {
			return models.Order{}, lookupErr
		}
		return models.Order{}, ErrNotCancelable
	}
	if err != nil {
		return models.Order{}, err
	}

	metrics.OrdersTotal.WithLabelValues(models.StatusCancelled).Inc()

	if err := s.products.RestoreStock(ctx, order.Items); err != nil {
		logger.WithCtx(ctx).Error("checkout: restore stock",
			"orderId", order.ID.Hex(), "error", err)
	}
	metrics.StockAdjustments.WithLabelValues("restore").Add(float64(len(order.Items)))

	s.refund(ctx, order)

	s.notifier.OrderEvent(ctx, OrderEventInput{
		Kind:        models.NotifyOrderCancelled,
		Order:       order,
		SellerTitle: "Order cancelled",
		SellerMessage: fmt.Sprintf("Paid order %s was cancelled. Stock has been restored.",
			order.ID.Hex()),
		BuyerTitle: "Order cancelled, refund initiated",
		BuyerMessage: fmt.Sprintf("Your order %s was cancelled and a refund of $%.2f has been initiated.",
			order.ID.Hex(), order.Total),
	})
	return order, nil
}

func (s *CheckoutService) refund(ctx context.Context, order models.Order) {
	log := logger.WithCtx(ctx)

	if order.PaymentSessionID == "" {
		metrics.RefundFailures.Inc()
		log.Error("checkout: refund skipped, order has no payment session",
			"orderId", order.ID.Hex())
		return
	}
	if err := s.provider.Refund(ctx, order.PaymentSessionID); err != nil {
		metrics.RefundFailures.Inc()
		log.Error("checkout: refund failed, needs manual follow-up",
			"orderId", order.ID.Hex(), "sessionId", order.PaymentSessionID, "error", err)
		return
	}
	log.Info("checkout: refund requested", "orderId", order.ID.Hex())
}

func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
