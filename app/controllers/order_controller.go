package controllers

import (
	"net/http"

	"github.com/vendora/vendora/app/services"
	"github.com/vendora/vendora/pkg/response"
	"github.com/vendora/vendora/pkg/validate"
)

type OrderController struct {
	orders   *services.OrderService
	checkout *services.CheckoutService
}

func NewOrderController(orders *services.OrderService, checkout *services.CheckoutService) *OrderController {
	return &OrderController{orders: orders, checkout: checkout}
}

// Create places an order straight from the cart without a hosted payment
// session (pay on delivery).
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in services.ShippingInput
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.orders.CreateFromCart(r.Context(), userID, in)
	if err != nil {
		fail(w, err)
		return
	}
	response.Created(w, order)
}

func (c *OrderController) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	page, limit := pagination(r)

	orders, total, err := c.orders.ListMine(r.Context(), userID, page, limit)
	if err != nil {
		fail(w, err)
		return
	}
	response.Paginated(w, orders, pageMeta(page, limit, total))
}

// ListAll serves the shopkeeper dashboard.
func (c *OrderController) ListAll(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	orders, total, err := c.orders.ListAll(r.Context(), page, limit)
	if err != nil {
		fail(w, err)
		return
	}
	response.Paginated(w, orders, pageMeta(page, limit, total))
}

func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := c.orders.Get(r.Context(), id, userID)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, order)
}

// Cancel cancels the caller's pending or paid order. Paid orders get their
// stock restored and a refund requested.
func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := c.checkout.CancelOrder(r.Context(), userID, id)
	if err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "order cancelled", order)
}

// MarkShipped is a shopkeeper action on a paid order.
func (c *OrderController) MarkShipped(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := c.orders.MarkShipped(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "order shipped", order)
}
