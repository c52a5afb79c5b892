package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
)

// CartService manages each consumer's cart. Items snapshot the product's
// name, price and image at the moment they are added; later product edits do
// not rewrite carts.
type CartService struct {
	carts    CartStore
	products ProductStore
}

func NewCartService(carts CartStore, products ProductStore) *CartService {
	return &CartService{carts: carts, products: products}
}

// Get returns the user's cart.
func (s *CartService) Get(ctx context.Context, userID primitive.ObjectID) (models.Cart, error) {
	return s.carts.Get(ctx, userID)
}

// AddItem puts quantity units of a product in the cart, merging with an
// existing line for the same product. The stock check here is advisory; the
// authoritative check happens at checkout.
func (s *CartService) AddItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int64) (models.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return models.Cart{}, err
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return models.Cart{}, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			if !product.InStock(cart.Items[i].Quantity + quantity) {
				return models.Cart{}, ErrInsufficientStock
			}
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		if !product.InStock(quantity) {
			return models.Cart{}, ErrInsufficientStock
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
			ImageURL:  product.ImageURL,
		})
	}

	if err := s.carts.Save(ctx, userID, cart.Items); err != nil {
		return models.Cart{}, err
	}
	return s.carts.Get(ctx, userID)
}

// SetQuantity changes a line's quantity. Zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, quantity int64) (models.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return models.Cart{}, err
	}

	items := cart.Items[:0]
	found := false
	for _, it := range cart.Items {
		if it.ProductID == productID {
			found = true
			if quantity > 0 {
				it.Quantity = quantity
				items = append(items, it)
			}
			continue
		}
		items = append(items, it)
	}
	if !found {
		return models.Cart{}, models.ErrNotFound
	}

	if err := s.carts.Save(ctx, userID, items); err != nil {
		return models.Cart{}, err
	}
	return s.carts.Get(ctx, userID)
}

// RemoveItem drops a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (models.Cart, error) {
	return s.SetQuantity(ctx, userID, productID, 0)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID primitive.ObjectID) error {
	return s.carts.Clear(ctx, userID)
}
