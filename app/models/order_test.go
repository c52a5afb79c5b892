package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusPending, false},
		{StatusShipped, StatusCancelled, false},
		{StatusShipped, StatusPaid, false},
		{StatusCancelled, StatusPaid, false},
		{StatusCancelled, StatusPending, false},
		{"bogus", StatusPaid, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestOrderTotalQuantity(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Quantity: 2},
		{Quantity: 1},
	}}
	assert.Equal(t, int64(3), o.TotalQuantity())
}

func TestCartTotal(t *testing.T) {
	c := Cart{Items: []CartItem{
		{Price: 10, Quantity: 2},
		{Price: 5, Quantity: 1},
	}}
	assert.Equal(t, 25.0, c.Total())
	assert.False(t, c.IsEmpty())
	assert.True(t, Cart{}.IsEmpty())
}
