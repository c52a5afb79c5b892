// Package server wires the application together and runs it until a
// shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vendora/vendora/app/controllers"
	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/app/repositories"
	"github.com/vendora/vendora/app/routes"
	"github.com/vendora/vendora/app/services"
	"github.com/vendora/vendora/config"
	"github.com/vendora/vendora/pkg/cache"
	"github.com/vendora/vendora/pkg/database"
	"github.com/vendora/vendora/pkg/event"
	"github.com/vendora/vendora/pkg/grpcsrv"
	"github.com/vendora/vendora/pkg/logger"
	"github.com/vendora/vendora/pkg/mail"
	"github.com/vendora/vendora/pkg/metrics"
	"github.com/vendora/vendora/pkg/middleware"
	"github.com/vendora/vendora/pkg/payment"
	"github.com/vendora/vendora/pkg/reqid"
	"github.com/vendora/vendora/pkg/router"
	"github.com/vendora/vendora/pkg/storage"
	"github.com/vendora/vendora/pkg/ws"
)

const shutdownTimeout = 15 * time.Second

// smtpMailer adapts pkg/mail's fluent API to the services.Mailer port.
type smtpMailer struct{}

func (smtpMailer) Send(to []string, subject, body string) error {
	return mail.To(to...).Subject(subject).Text(body).Send()
}

// Start boots every dependency, mounts the API and serves until SIGINT or
// SIGTERM.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := database.Connect(ctx); err != nil {
		return err
	}
	if err := cache.Connect(ctx); err != nil {
		logger.Warn("server: redis unavailable, caching disabled", "error", err)
	}
	storage.Connect()

	r := buildRouter()

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, _, err := grpcsrv.Start(config.GRPCPort(), func(ctx context.Context) bool {
		return database.DB().Client().Ping(ctx, nil) == nil
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", httpSrv.Addr, "env", config.AppEnv())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		grpcsrv.Stop(grpcServer)
		return err
	case sig := <-stop:
		logger.Info("server: shutting down", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server: http shutdown", "error", err)
	}
	grpcsrv.Stop(grpcServer)
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Error("server: mongo disconnect", "error", err)
	}
	logger.Info("server: stopped")
	return nil
}

// buildRouter constructs the dependency graph and mounts every route.
func buildRouter() *router.Router {
	db := database.DB()

	users := repositories.NewUserRepository(db)
	products := repositories.NewProductRepository(db)
	carts := repositories.NewCartRepository(db)
	orders := repositories.NewOrderRepository(db)
	notifications := repositories.NewNotificationRepository(db)
	tokens := repositories.NewTokenRepository(db)

	mailer := smtpMailer{}
	provider := payment.NewStripeProvider(
		config.StripeSecretKey(), config.StripeWebhookSecret())

	notificationSvc := services.NewNotificationService(notifications, users, mailer)
	authSvc := services.NewAuthService(users, tokens, mailer)
	productSvc := services.NewProductService(products)
	cartSvc := services.NewCartService(carts, products)
	orderSvc := services.NewOrderService(orders, carts, products, notificationSvc)
	checkoutSvc := services.NewCheckoutService(
		orderSvc, orders, carts, products, provider, notificationSvc)

	hub := ws.NewHub()
	go hub.Run()
	bridgeNotifications(hub)

	r := router.New()
	r.Use(
		reqid.Middleware(),
		middleware.Logger,
		middleware.Recovery,
		metrics.Middleware(),
		middleware.CORS(middleware.DefaultCORSOptions(config.FrontendOrigin())),
	)
	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/healthz", "health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	routes.RegisterAPI(r, routes.Controllers{
		Auth:          controllers.NewAuthController(authSvc),
		Products:      controllers.NewProductController(productSvc),
		Cart:          controllers.NewCartController(cartSvc),
		Orders:        controllers.NewOrderController(orderSvc, checkoutSvc),
		Payments:      controllers.NewPaymentController(authSvc, checkoutSvc),
		Notifications: controllers.NewNotificationController(notificationSvc, hub),
		Catalog:       controllers.NewCatalogHandler(productSvc),
	})
	return r
}

// bridgeNotifications forwards stored notifications to the live feed.
func bridgeNotifications(hub *ws.Hub) {
	event.Listen(services.EventNotificationCreated, func(payload interface{}) {
		n, ok := payload.(models.Notification)
		if !ok {
			return
		}
		msg := ws.EventMessage{
			Type:       n.Type,
			Title:      n.Title,
			Message:    n.Message,
			TargetRole: n.TargetRole,
			SentAt:     n.CreatedAt.UTC().Format(time.RFC3339),
		}
		if !n.OrderID.IsZero() {
			msg.OrderID = n.OrderID.Hex()
		}
		hub.Publish(msg)
	})
}
