package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/vendora/vendora/app/services"
	"github.com/vendora/vendora/pkg/logger"
	"github.com/vendora/vendora/pkg/payment"
	"github.com/vendora/vendora/pkg/response"
	"github.com/vendora/vendora/pkg/validate"
)

// maxWebhookBody bounds the raw payload read for signature verification.
const maxWebhookBody = 1 << 20

type PaymentController struct {
	auth     *services.AuthService
	checkout *services.CheckoutService
}

func NewPaymentController(auth *services.AuthService, checkout *services.CheckoutService) *PaymentController {
	return &PaymentController{auth: auth, checkout: checkout}
}

// CreateSession opens a hosted checkout session for the caller's cart and
// returns the redirect URL.
func (c *PaymentController) CreateSession(w http.ResponseWriter, r *http.Request) {
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

	user, err := c.auth.Profile(r.Context(), userID)
	if err != nil {
		fail(w, err)
		return
	}

	sess, order, err := c.checkout.CreateSession(r.Context(), userID, user.Email, in)
	if err != nil {
		fail(w, err)
		return
	}
	response.Created(w, map[string]interface{}{
		"session": sess,
		"order":   order,
	})
}

// Webhook receives provider callbacks. The body must be read raw, before
// any JSON decoding, because the signature covers the exact bytes sent.
func (c *PaymentController) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "unreadable payload")
		return
	}
	defer r.Body.Close()

	err = c.checkout.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, payment.ErrInvalidSignature) {
		response.Error(w, http.StatusBadRequest, "invalid signature")
		return
	}
	if err != nil {
		// Authenticated deliveries are always acknowledged; failures are
		// logged and resolved out of band rather than forcing a redelivery
		// loop.
		logger.WithCtx(r.Context()).Error("payments: webhook handling", "error", err)
	}
	response.SuccessMessage(w, "received", nil)
}

// SessionStatus backs the frontend success page while the webhook is still
// in flight.
func (c *PaymentController) SessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		response.Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	status, err := c.checkout.SessionStatus(r.Context(), sessionID)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, status)
}
