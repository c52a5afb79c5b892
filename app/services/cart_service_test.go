package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
)

func TestCartAddMergeAndRemove(t *testing.T) {
	carts := newFakeCartStore()
	products := newFakeProductStore()
	svc := NewCartService(carts, products)
	ctx := context.Background()

	userID := primitive.NewObjectID()
	coffee := products.add("Coffee", 10, 5)

	cart, err := svc.AddItem(ctx, userID, coffee.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(2), cart.Items[0].Quantity)
	assert.Equal(t, 20.0, cart.Total())

	// Adding the same product merges into the existing line.
	cart, err = svc.AddItem(ctx, userID, coffee.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(3), cart.Items[0].Quantity)

	cart, err = svc.SetQuantity(ctx, userID, coffee.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cart.Items[0].Quantity)

	cart, err = svc.RemoveItem(ctx, userID, coffee.ID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartAddUnknownProduct(t *testing.T) {
	svc := NewCartService(newFakeCartStore(), newFakeProductStore())

	_, err := svc.AddItem(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCartAddRejectsMoreThanStock(t *testing.T) {
	carts := newFakeCartStore()
	products := newFakeProductStore()
	svc := NewCartService(carts, products)
	ctx := context.Background()

	userID := primitive.NewObjectID()
	coffee := products.add("Coffee", 10, 5)

	_, err := svc.AddItem(ctx, userID, coffee.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Merging past the on-hand count is rejected too.
	_, err = svc.AddItem(ctx, userID, coffee.ID, 4)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, coffee.ID, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartSetQuantityUnknownLine(t *testing.T) {
	carts := newFakeCartStore()
	products := newFakeProductStore()
	svc := NewCartService(carts, products)
	ctx := context.Background()

	userID := primitive.NewObjectID()
	coffee := products.add("Coffee", 10, 5)
	_, err := svc.AddItem(ctx, userID, coffee.ID, 1)
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, userID, primitive.NewObjectID(), 2)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCartSnapshotsPriceAtAddTime(t *testing.T) {
	carts := newFakeCartStore()
	products := newFakeProductStore()
	svc := NewCartService(carts, products)
	ctx := context.Background()

	userID := primitive.NewObjectID()
	coffee := products.add("Coffee", 10, 5)

	_, err := svc.AddItem(ctx, userID, coffee.ID, 1)
	require.NoError(t, err)

	// A later price change does not rewrite the cart line.
	products.mu.Lock()
	p := products.products[coffee.ID]
	p.Price = 99
	products.products[coffee.ID] = p
	products.mu.Unlock()

	cart, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, cart.Items[0].Price)
}
