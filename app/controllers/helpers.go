package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/app/services"
	"github.com/vendora/vendora/pkg/middleware"
	"github.com/vendora/vendora/pkg/response"
)

// decode parses the JSON request body into v.
func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// currentUserID returns the authenticated user's id from the request
// context. The auth middleware guarantees it is present on protected routes.
func currentUserID(r *http.Request) (primitive.ObjectID, bool) {
	raw, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// idParam parses the {id} route parameter as an ObjectID.
func idParam(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

// pagination reads ?page= and ?limit= with sane bounds.
func pagination(r *http.Request) (int64, int64) {
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func pageMeta(page, limit, total int64) response.Pagination {
	pages := int(total / limit)
	if total%limit != 0 {
		pages++
	}
	return response.Pagination{
		Page:       int(page),
		Limit:      int(limit),
		Total:      total,
		TotalPages: pages,
	}
}

// fail maps service and store errors onto the HTTP error vocabulary.
func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(w, "resource not found")
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrTokenInvalid):
		response.Unauthorized(w)
	case errors.Is(err, services.ErrEmailTaken):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrNotCancelable):
		response.Error(w, http.StatusConflict, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, "something went wrong")
	}
}
