package routes

import (
	"net/http"
	"time"

	"github.com/vendora/vendora/app/controllers"
	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/pkg/middleware"
	"github.com/vendora/vendora/pkg/rbac"
	"github.com/vendora/vendora/pkg/router"
)

// Controllers bundles everything RegisterAPI mounts.
type Controllers struct {
	Auth          *controllers.AuthController
	Products      *controllers.ProductController
	Cart          *controllers.CartController
	Orders        *controllers.OrderController
	Payments      *controllers.PaymentController
	Notifications *controllers.NotificationController
	Catalog       http.HandlerFunc
}

// RegisterAPI mounts all HTTP routes. Route names feed the `routes` CLI
// command and named-URL lookups.
func RegisterAPI(r *router.Router, c Controllers) {
	api := r.Group("/api")

	// ─── Auth ────────────────────────────────────────────────────────────────

	auth := api.Group("/auth")
	loginLimit := middleware.RateLimit("auth", 10, time.Minute)

	auth.Post("/register", "auth.register", c.Auth.Register, loginLimit)
	auth.Post("/login", "auth.login", c.Auth.Login, loginLimit)
	auth.Post("/refresh", "auth.refresh", c.Auth.Refresh)
	auth.Post("/logout", "auth.logout", c.Auth.Logout)
	auth.Get("/verify-email", "auth.verify", c.Auth.VerifyEmail)
	auth.Post("/resend-verification", "auth.resend", c.Auth.ResendVerification, loginLimit)
	auth.Post("/forgot-password", "auth.forgot", c.Auth.ForgotPassword, loginLimit)
	auth.Post("/reset-password", "auth.reset", c.Auth.ResetPassword, loginLimit)

	me := api.Group("/me", middleware.Auth)
	me.Get("", "me.show", c.Auth.Me)
	me.Put("", "me.update", c.Auth.UpdateProfile)
	me.Put("/password", "me.password", c.Auth.ChangePassword)

	// ─── Catalogue ───────────────────────────────────────────────────────────

	api.Get("/products", "products.index", c.Products.List)
	api.Get("/products/{id}", "products.show", c.Products.Get)
	api.Post("/graphql/catalog", "catalog.graphql", c.Catalog)

	shop := api.Group("/products", middleware.Auth, rbac.HasRole(models.RoleShopkeeper))
	shop.Post("", "products.create", c.Products.Create)
	shop.Put("/{id}", "products.update", c.Products.Update)
	shop.Delete("/{id}", "products.delete", c.Products.Delete)
	shop.Post("/{id}/image", "products.image", c.Products.UploadImage)
	shop.Put("/{id}/stock", "products.stock", c.Products.UpdateStock)

	// ─── Cart ────────────────────────────────────────────────────────────────

	cart := api.Group("/cart", middleware.Auth, rbac.HasRole(models.RoleConsumer))
	cart.Get("", "cart.show", c.Cart.Get)
	cart.Delete("", "cart.clear", c.Cart.Clear)
	cart.Post("/items", "cart.add", c.Cart.AddItem)
	cart.Put("/items/{id}", "cart.update", c.Cart.UpdateItem)
	cart.Delete("/items/{id}", "cart.remove", c.Cart.RemoveItem)

	// ─── Orders ──────────────────────────────────────────────────────────────

	orders := api.Group("/orders", middleware.Auth)

	consumerOrders := orders.Group("", rbac.HasRole(models.RoleConsumer))
	consumerOrders.Post("", "orders.create", c.Orders.Create)
	consumerOrders.Get("", "orders.index", c.Orders.ListMine)
	consumerOrders.Get("/{id}", "orders.show", c.Orders.Get)
	consumerOrders.Post("/{id}/cancel", "orders.cancel", c.Orders.Cancel)

	shopOrders := orders.Group("", rbac.HasRole(models.RoleShopkeeper))
	shopOrders.Get("/all", "orders.all", c.Orders.ListAll)
	shopOrders.Post("/{id}/ship", "orders.ship", c.Orders.MarkShipped)

	// ─── Payments ────────────────────────────────────────────────────────────

	payments := api.Group("/payments")
	payments.Post("/webhook", "payments.webhook", c.Payments.Webhook)

	consumerPay := payments.Group("", middleware.Auth, rbac.HasRole(models.RoleConsumer))
	consumerPay.Post("/checkout-session", "payments.session", c.Payments.CreateSession)
	consumerPay.Get("/session-status", "payments.status", c.Payments.SessionStatus)

	// ─── Notifications ───────────────────────────────────────────────────────

	notif := api.Group("/notifications", middleware.Auth)
	notif.Get("", "notifications.index", c.Notifications.List)
	notif.Get("/unread-count", "notifications.unread", c.Notifications.UnreadCount)
	notif.Get("/feed", "notifications.feed", c.Notifications.Feed)
	notif.Post("/read-all", "notifications.readall", c.Notifications.MarkAllRead)
	notif.Post("/{id}/read", "notifications.read", c.Notifications.MarkRead)
}
