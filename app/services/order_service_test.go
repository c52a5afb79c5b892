package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
)

func TestCreateFromCart(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()
	svc := NewOrderService(h.orders, h.carts, h.products, h.notifier)

	order, err := svc.CreateFromCart(ctx, h.userID, shipping())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 25.0, order.Total)
	assert.Equal(t, "Asha Rao", order.CustomerName)
	assert.Len(t, order.Items, 2)

	// Direct order creation empties the cart immediately.
	cart, _ := h.carts.Get(ctx, h.userID)
	assert.True(t, cart.IsEmpty())

	// Both sides hear about it; stock does not move before payment.
	require.Equal(t, 2, h.notifier.count())
	sellerEvents := h.notifier.forRole(models.RoleShopkeeper)
	require.Len(t, sellerEvents, 1)
	assert.Equal(t, order.ID, sellerEvents[0].OrderID)
	buyerEvents := h.notifier.forRole(models.RoleConsumer)
	require.Len(t, buyerEvents, 1)
	assert.Equal(t, "Order placed", buyerEvents[0].Title)
	assert.Equal(t, order.ID, buyerEvents[0].OrderID)
	assert.Equal(t, int64(5), h.products.stockOf(h.coffee.ID))
}

func TestCreateFromCartChargesCurrentPrices(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()
	svc := NewOrderService(h.orders, h.carts, h.products, h.notifier)

	// The catalogue price moved after the lines were carted. The order must
	// charge what the catalogue says now, not the carted snapshot.
	h.products.setPrice(h.coffee.ID, 99)

	order, err := svc.CreateFromCart(ctx, h.userID, shipping())
	require.NoError(t, err)

	assert.Equal(t, 203.0, order.Total) // 2 x 99 + 1 x 5
	for _, it := range order.Items {
		if it.ProductID == h.coffee.ID {
			assert.Equal(t, 99.0, it.Price)
		}
	}
}

func TestCreateFromCartSnapshotsSeller(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()
	svc := NewOrderService(h.orders, h.carts, h.products, h.notifier)

	seller := primitive.NewObjectID()
	h.products.setOwner(h.coffee.ID, seller)

	order, err := svc.CreateFromCart(ctx, h.userID, shipping())
	require.NoError(t, err)

	assert.Equal(t, []primitive.ObjectID{seller}, order.SellerIDs())
}

func TestCreateFromCartKeepsAlternateNumber(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()
	svc := NewOrderService(h.orders, h.carts, h.products, h.notifier)

	in := shipping()
	in.AlternateNumber = "+15550100456"

	order, err := svc.CreateFromCart(ctx, h.userID, in)
	require.NoError(t, err)
	assert.Equal(t, "+15550100456", order.AlternateMobile)

	stored, err := h.orders.FindForUser(ctx, order.ID, h.userID)
	require.NoError(t, err)
	assert.Equal(t, "+15550100456", stored.AlternateMobile)
}

func TestCreateFromCartEmptyCart(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()
	svc := NewOrderService(h.orders, h.carts, h.products, h.notifier)

	require.NoError(t, h.carts.Clear(ctx, h.userID))
	_, err := svc.CreateFromCart(ctx, h.userID, shipping())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestListMineIsScopedToUser(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()
	svc := NewOrderService(h.orders, h.carts, h.products, h.notifier)

	_, err := svc.CreateFromCart(ctx, h.userID, shipping())
	require.NoError(t, err)

	mine, total, err := svc.ListMine(ctx, h.userID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, mine, 1)

	others, total, err := svc.ListMine(ctx, primitive.NewObjectID(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, others)
}

func TestMarkShippedRequiresPaidOrder(t *testing.T) {
	h := newCheckoutHarness(t)
	ctx := context.Background()
	svc := NewOrderService(h.orders, h.carts, h.products, h.notifier)

	order, err := svc.CreateFromCart(ctx, h.userID, shipping())
	require.NoError(t, err)

	_, err = svc.MarkShipped(ctx, order.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = h.orders.MarkPaid(ctx, order.ID)
	require.NoError(t, err)

	shipped, err := svc.MarkShipped(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, shipped.Status)

	// The shipped event is for the buyer.
	events := h.notifier.forRole(models.RoleConsumer)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, models.NotifyOrderShipped, last.Kind)
	assert.Equal(t, order.ID, last.OrderID)
}

func TestOrderSummaryFormat(t *testing.T) {
	o := models.Order{
		CustomerName:    "Asha Rao",
		CustomerMobile:  "+15550100123",
		ShippingAddress: "12 Hill Road, Pune",
		Total:           25,
		Items: []models.OrderItem{
			{Name: "Coffee", Quantity: 2},
			{Name: "Tea", Quantity: 1},
		},
	}
	assert.Equal(t,
		"Customer: Asha Rao | Mobile: +15550100123 | Address: 12 Hill Road, Pune | Quantity: 3 | Items: Coffee x2, Tea x1 | Total: $25.00",
		orderSummary(o))
}
