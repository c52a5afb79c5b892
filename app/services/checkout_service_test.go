package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/pkg/payment"
)

type checkoutHarness struct {
	orders   *fakeOrderStore
	carts    *fakeCartStore
	products *fakeProductStore
	provider *fakeProvider
	notifier *fakeNotifier
	svc      *CheckoutService

	userID primitive.ObjectID
	coffee models.Product
	tea    models.Product
}

// newCheckoutHarness seeds a consumer whose cart holds two coffees at $10
// and one tea at $5, a $25 order total.
func newCheckoutHarness(t *testing.T) *checkoutHarness {
	t.Helper()

	h := &checkoutHarness{
		orders:   newFakeOrderStore(),
		carts:    newFakeCartStore(),
		products: newFakeProductStore(),
		provider: &fakeProvider{},
		notifier: &fakeNotifier{},
		userID:   primitive.NewObjectID(),
	}
	h.coffee = h.products.add("Coffee", 10, 5)
	h.tea = h.products.add("Tea", 5, 3)

	require.NoError(t, h.carts.Save(context.Background(), h.userID, []models.CartItem{
		{ProductID: h.coffee.ID, Name: "Coffee", Price: 10, Quantity: 2},
		{ProductID: h.tea.ID, Name: "Tea", Price: 5, Quantity: 1},
	}))

	orderSvc := NewOrderService(h.orders, h.carts, h.products, h.notifier)
	h.svc = NewCheckoutService(orderSvc, h.orders, h.carts, h.products, h.provider, h.notifier)
	return h
}

func shipping() ShippingInput {
	return ShippingInput{
		RecipientName:   "Asha Rao",
		MobileNumber:    "+15550100123",
		ShippingAddress: "12 Hill Road, Pune",
	}
}

func (h *checkoutHarness) webhookFor(orderID primitive.ObjectID) []byte {
	h.provider.mu.Lock()
	h.provider.event = payment.Event{
		Type:      payment.EventCheckoutCompleted,
		SessionID: "cs_test_" + orderID.Hex(),
		OrderID:   orderID.Hex(),
		UserID:    h.userID.Hex(),
	}
	h.provider.mu.Unlock()
	return []byte(fmt.Sprintf(`{"orderId":%q}`, orderID.Hex()))
}

func TestCreateSessionLeavesStockAndCartUntouched(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	sess, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 25.0, order.Total)
	assert.NotEmpty(t, sess.URL)

	// Nothing moves until the payment is confirmed.
	assert.Equal(t, int64(5), h.products.stockOf(h.coffee.ID))
	assert.Equal(t, int64(3), h.products.stockOf(h.tea.ID))
	cart, _ := h.carts.Get(ctx, h.userID)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 0, h.products.decrements)
}

func TestCreateSessionChargesCurrentPrices(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	// Cart lines were captured at $10; the shop since repriced to $99.
	h.products.setPrice(h.coffee.ID, 99)

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)
	assert.Equal(t, 203.0, order.Total)
}

func TestCreateSessionEmptyCart(t *testing.T) {
	h := newCheckoutHarness(t)
	require.NoError(t, h.carts.Clear(context.Background(), h.userID))

	_, _, err := h.svc.CreateSession(context.Background(), h.userID, "asha@example.com", shipping())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateSessionInsufficientStock(t *testing.T) {
	h := newCheckoutHarness(t)
	require.NoError(t, h.carts.Save(context.Background(), h.userID, []models.CartItem{
		{ProductID: h.tea.ID, Name: "Tea", Price: 5, Quantity: 99},
	}))

	_, _, err := h.svc.CreateSession(context.Background(), h.userID, "asha@example.com", shipping())
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestWebhookConfirmsPaymentExactlyOnce(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)

	payload := h.webhookFor(order.ID)
	require.NoError(t, h.svc.HandleWebhook(ctx, payload, "ok"))

	assert.Equal(t, models.StatusPaid, h.orders.statusOf(order.ID))
	assert.Equal(t, int64(3), h.products.stockOf(h.coffee.ID))
	assert.Equal(t, int64(2), h.products.stockOf(h.tea.ID))

	cart, _ := h.carts.Get(ctx, h.userID)
	assert.True(t, cart.IsEmpty())

	// One notification per audience: consumer plus shopkeeper.
	assert.Equal(t, 2, h.notifier.count())
	buyerEvents := h.notifier.forRole(models.RoleConsumer)
	require.Len(t, buyerEvents, 1)
	assert.Equal(t, "Payment successful", buyerEvents[0].Title)
	assert.Equal(t, order.ID, buyerEvents[0].OrderID)
}

func TestWebhookRedeliveryDoesNotDoubleDecrement(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)

	payload := h.webhookFor(order.ID)
	require.NoError(t, h.svc.HandleWebhook(ctx, payload, "ok"))
	require.NoError(t, h.svc.HandleWebhook(ctx, payload, "ok"))
	require.NoError(t, h.svc.HandleWebhook(ctx, payload, "ok"))

	assert.Equal(t, 1, h.products.decrements)
	assert.Equal(t, int64(3), h.products.stockOf(h.coffee.ID))
	assert.Equal(t, 2, h.notifier.count())
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)

	err = h.svc.HandleWebhook(ctx, h.webhookFor(order.ID), "bad")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
	assert.Equal(t, models.StatusPending, h.orders.statusOf(order.ID))
	assert.Equal(t, 0, h.products.decrements)
}

func TestWebhookIgnoresUnrelatedEventTypes(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)

	h.provider.mu.Lock()
	h.provider.event = payment.Event{Type: "invoice.paid"}
	h.provider.mu.Unlock()

	require.NoError(t, h.svc.HandleWebhook(ctx, []byte(`{}`), "ok"))
	assert.Equal(t, models.StatusPending, h.orders.statusOf(order.ID))
}

func TestWebhookCannotReviveCancelledOrder(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)

	_, err = h.svc.CancelOrder(ctx, h.userID, order.ID)
	require.NoError(t, err)

	require.NoError(t, h.svc.HandleWebhook(ctx, h.webhookFor(order.ID), "ok"))

	assert.Equal(t, models.StatusCancelled, h.orders.statusOf(order.ID))
	assert.Equal(t, 0, h.products.decrements)
}

func TestCancelPendingOrderNeedsNoCompensation(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)

	cancelled, err := h.svc.CancelOrder(ctx, h.userID, order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Empty(t, h.provider.refunds)
	assert.Equal(t, 0, h.products.restores)
	assert.Equal(t, int64(5), h.products.stockOf(h.coffee.ID))

	// Both sides are told; the buyer's message carries no refund promise
	// because no payment was ever taken.
	require.Len(t, h.notifier.forRole(models.RoleShopkeeper), 1)
	buyerEvents := h.notifier.forRole(models.RoleConsumer)
	require.Len(t, buyerEvents, 1)
	assert.Equal(t, "Order cancelled", buyerEvents[0].Title)
}

func TestCancelPaidOrderRestoresStockAndRefunds(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)
	require.NoError(t, h.svc.HandleWebhook(ctx, h.webhookFor(order.ID), "ok"))

	cancelled, err := h.svc.CancelOrder(ctx, h.userID, order.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, int64(5), h.products.stockOf(h.coffee.ID))
	assert.Equal(t, int64(3), h.products.stockOf(h.tea.ID))
	require.Len(t, h.provider.refunds, 1)
	assert.Equal(t, cancelled.PaymentSessionID, h.provider.refunds[0])

	// The buyer is told the refund is underway.
	buyerEvents := h.notifier.forRole(models.RoleConsumer)
	require.NotEmpty(t, buyerEvents)
	last := buyerEvents[len(buyerEvents)-1]
	assert.Equal(t, models.NotifyOrderCancelled, last.Kind)
	assert.Equal(t, "Order cancelled, refund initiated", last.Title)
	assert.Equal(t, order.ID, last.OrderID)
}

func TestCancelPaidOrderSurvivesRefundFailure(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)
	require.NoError(t, h.svc.HandleWebhook(ctx, h.webhookFor(order.ID), "ok"))

	h.provider.refundErr = payment.ErrProvider

	cancelled, err := h.svc.CancelOrder(ctx, h.userID, order.ID)
	require.NoError(t, err)

	// The local cancellation and stock restore commit even though the
	// provider refund failed.
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, models.StatusCancelled, h.orders.statusOf(order.ID))
	assert.Equal(t, int64(5), h.products.stockOf(h.coffee.ID))
	assert.Empty(t, h.provider.refunds)
}

func TestCancelSomeoneElsesOrder(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)

	stranger := primitive.NewObjectID()
	_, err = h.svc.CancelOrder(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, models.StatusPending, h.orders.statusOf(order.ID))
}

func TestCancelShippedOrder(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()

	_, order, err := h.svc.CreateSession(ctx, h.userID, "asha@example.com", shipping())
	require.NoError(t, err)
	require.NoError(t, h.svc.HandleWebhook(ctx, h.webhookFor(order.ID), "ok"))
	_, err = h.orders.MarkShipped(ctx, order.ID)
	require.NoError(t, err)

	_, err = h.svc.CancelOrder(ctx, h.userID, order.ID)
	assert.ErrorIs(t, err, ErrNotCancelable)
	assert.Equal(t, models.StatusShipped, h.orders.statusOf(order.ID))
}
