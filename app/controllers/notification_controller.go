package controllers

import (
	"net/http"

	"github.com/vendora/vendora/app/services"
	"github.com/vendora/vendora/pkg/middleware"
	"github.com/vendora/vendora/pkg/response"
	"github.com/vendora/vendora/pkg/ws"
)

type NotificationController struct {
	notifications *services.NotificationService
	hub           *ws.Hub
}

func NewNotificationController(notifications *services.NotificationService, hub *ws.Hub) *NotificationController {
	return &NotificationController{notifications: notifications, hub: hub}
}

// List returns the notifications addressed to the caller's role.
func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	role, ok := middleware.RoleFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	page, limit := pagination(r)

	items, total, err := c.notifications.List(r.Context(), role, page, limit)
	if err != nil {
		fail(w, err)
		return
	}
	response.Paginated(w, items, pageMeta(page, limit, total))
}

func (c *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	role, ok := middleware.RoleFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	count, err := c.notifications.UnreadCount(r.Context(), role)
	if err != nil {
		fail(w, err)
		return
	}
	response.Success(w, map[string]int64{"unread": count})
}

func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := c.notifications.MarkRead(r.Context(), id); err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "notification read", nil)
}

func (c *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	role, ok := middleware.RoleFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	if err := c.notifications.MarkAllRead(r.Context(), role); err != nil {
		fail(w, err)
		return
	}
	response.SuccessMessage(w, "all notifications read", nil)
}

// Feed upgrades to a WebSocket subscription filtered by the caller's role.
func (c *NotificationController) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	role, ok := middleware.RoleFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return
	}
	ws.Upgrade(w, r, c.hub, userID, role)
}
