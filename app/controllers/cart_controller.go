package controllers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/services"
	"github.com/vendora/vendora/pkg/response"
	"github.com/vendora/vendora/pkg/validate"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

func (c *CartController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	cart, err := c.carts.Get(r.Context(), userID)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, cart)
}

func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var in struct {
		ProductID string `json:"productId" validate:"required"`
		Quantity  int64  `json:"quantity" validate:"gte=1,lte=100"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}
	productID, err := primitive.ObjectIDFromHex(in.ProductID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	cart, err := c.carts.AddItem(r.Context(), userID, productID, in.Quantity)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, cart)
}

func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	productID, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var in struct {
		Quantity int64 `json:"quantity" validate:"gte=0,lte=100"`
	}
	if err := decode(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := validate.Struct(in); len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	cart, err := c.carts.SetQuantity(r.Context(), userID, productID, in.Quantity)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, cart)
}

func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	productID, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	cart, err := c.carts.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, cart)
}

func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	if err := c.carts.Clear(r.Context(), userID); err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "cart cleared", nil)
}
