package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/pkg/metrics"
)

// ShippingInput carries the delivery details collected at order time.
type ShippingInput struct {
	RecipientName   string `json:"recipientName" validate:"required,min=2,max=100"`
	MobileNumber    string `json:"mobileNumber" validate:"required,phone"`
	AlternateNumber string `json:"alternateNumber" validate:"nullable,phone"`
	ShippingAddress string `json:"shippingAddress" validate:"required,min=5,max=500"`
}

// OrderService builds orders from carts and serves order history. Payment
// confirmation and cancellation of paid orders live in CheckoutService.
type OrderService struct {
	orders   OrderStore
	carts    CartStore
	products ProductStore
	notifier Notifier
}

func NewOrderService(orders OrderStore, carts CartStore, products ProductStore, notifier Notifier) *OrderService {
	return &OrderService{orders: orders, carts: carts, products: products, notifier: notifier}
}

// CreateFromCart turns the user's cart into a pending order, clears the
// cart and notifies the sellers and the buyer. Stock is checked here only
// as a courtesy; nothing is decremented until payment is confirmed.
func (s *OrderService) CreateFromCart(ctx context.Context, userID primitive.ObjectID, in ShippingInput) (models.Order, error) {
	order, err := s.buildPendingOrder(ctx, userID, in)
	if err != nil {
		return models.Order{}, err
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		return models.Order{}, err
	}

	metrics.OrdersTotal.WithLabelValues(models.StatusPending).Inc()
	s.notifier.OrderEvent(ctx, OrderEventInput{
		Kind:          models.NotifyOrderPlaced,
		Order:         order,
		SellerTitle:   "New order placed",
		SellerMessage: orderSummary(order),
		BuyerTitle:    "Order placed",
		BuyerMessage: fmt.Sprintf("Your order %s for $%.2f has been placed.",
			order.ID.Hex(), order.Total),
	})
	return order, nil
}

// buildPendingOrder turns the cart into a new pending order record. Line
// items snapshot the current product name and price, not the values captured
// when the line was carted, so the buyer is charged what the catalogue says
// right now. Shared by direct order creation and checkout session creation.
func (s *OrderService) buildPendingOrder(ctx context.Context, userID primitive.ObjectID, in ShippingInput) (models.Order, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return models.Order{}, err
	}
	if cart.IsEmpty() {
		return models.Order{}, ErrEmptyCart
	}

	var total float64
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		product, err := s.products.FindByID(ctx, it.ProductID)
		if err != nil {
			return models.Order{}, fmt.Errorf("%w: %s", models.ErrNotFound, it.Name)
		}
		if !product.InStock(it.Quantity) {
			return models.Order{}, fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
		}
		items = append(items, models.OrderItem{
			ProductID:    product.ID,
			ShopkeeperID: product.ShopkeeperID,
			Name:         product.Name,
			Price:        product.Price,
			Quantity:     it.Quantity,
			ImageURL:     product.ImageURL,
		})
		total += product.Price * float64(it.Quantity)
	}

	order := models.Order{
		UserID:          userID,
		Items:           items,
		Total:           total,
		Status:          models.StatusPending,
		CustomerName:    in.RecipientName,
		CustomerMobile:  in.MobileNumber,
		AlternateMobile: in.AlternateNumber,
		ShippingAddress: in.ShippingAddress,
	}
	if err := s.orders.Create(ctx, &order); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// ListMine returns the calling user's orders.
func (s *OrderService) ListMine(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]models.Order, int64, error) {
	return s.orders.ListByUser(ctx, userID, page, limit)
}

// ListAll returns every order, for the shopkeeper dashboard.
func (s *OrderService) ListAll(ctx context.Context, page, limit int64) ([]models.Order, int64, error) {
	return s.orders.List(ctx, page, limit)
}

// Get returns one of the calling user's orders.
func (s *OrderService) Get(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	return s.orders.FindForUser(ctx, id, userID)
}

// MarkShipped moves a paid order to shipped and tells consumers.
func (s *OrderService) MarkShipped(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	order, err := s.orders.MarkShipped(ctx, id)
	if err != nil {
		return models.Order{}, err
	}

	metrics.OrdersTotal.WithLabelValues(models.StatusShipped).Inc()
	s.notifier.OrderEvent(ctx, OrderEventInput{
		Kind:       models.NotifyOrderShipped,
		Order:      order,
		BuyerTitle: "Order shipped",
		BuyerMessage: fmt.Sprintf("Order %s is on its way to %s.",
			order.ID.Hex(), order.CustomerName),
	})
	return order, nil
}

// orderSummary renders the one-line message shown in notifications.
func orderSummary(o models.Order) string {
	lines := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
	}
	return fmt.Sprintf("Customer: %s | Mobile: %s | Address: %s | Quantity: %d | Items: %s | Total: $%.2f",
		o.CustomerName, o.CustomerMobile, o.ShippingAddress,
		o.TotalQuantity(), strings.Join(lines, ", "), o.Total)
}
