package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/models"
	"github.com/vendora/vendora/pkg/event"
	"github.com/vendora/vendora/pkg/fanout"
	"github.com/vendora/vendora/pkg/logger"
	"github.com/vendora/vendora/pkg/metrics"
)

// EventNotificationCreated is fired after a notification is stored so the
// live feed can push it to connected clients.
const EventNotificationCreated = "notification.created"

// NotificationService records order events and fans them out to every
// channel: the notifications collection, email, and the WebSocket feed.
// Emails go only to the people the order concerns: each distinct shopkeeper
// whose products are in it, and the buyer. Every delivery is its own task,
// so one dead channel or bad address never blocks the others, and the
// triggering operation never fails because of a notification problem.
type NotificationService struct {
	notifications NotificationStore
	users         UserStore
	mailer        Mailer
}

func NewNotificationService(notifications NotificationStore, users UserStore, mailer Mailer) *NotificationService {
	return &NotificationService{notifications: notifications, users: users, mailer: mailer}
}

// OrderEvent delivers the event's seller and buyer legs across all channels.
func (s *NotificationService) OrderEvent(ctx context.Context, in OrderEventInput) {
	var tasks []fanout.Task

	if in.SellerTitle != "" {
		tasks = append(tasks, s.channelTasks(ctx, "seller", models.Notification{
			Type:       in.Kind,
			Title:      in.SellerTitle,
			Message:    in.SellerMessage,
			TargetRole: models.RoleShopkeeper,
			OrderID:    in.Order.ID,
		})...)
		for _, sellerID := range in.Order.SellerIDs() {
			tasks = append(tasks, s.mailTask(ctx, "email:seller", sellerID,
				in.SellerTitle, in.SellerMessage))
		}
	}

	if in.BuyerTitle != "" {
		tasks = append(tasks, s.channelTasks(ctx, "buyer", models.Notification{
			Type:       in.Kind,
			Title:      in.BuyerTitle,
			Message:    in.BuyerMessage,
			TargetRole: models.RoleConsumer,
			OrderID:    in.Order.ID,
		})...)
		tasks = append(tasks, s.mailTask(ctx, "email:buyer", in.Order.UserID,
			in.BuyerTitle, in.BuyerMessage))
	}

	for _, o := range fanout.Failed(fanout.All(tasks...)) {
		metrics.NotificationFailures.WithLabelValues(o.Name).Inc()
		logger.WithCtx(ctx).Warn("notification: channel failed",
			"channel", o.Name, "type", in.Kind, "error", o.Err)
	}
}

// channelTasks stores one leg's notification and pushes it to the live feed.
func (s *NotificationService) channelTasks(ctx context.Context, leg string, n models.Notification) []fanout.Task {
	feedCopy := n
	return []fanout.Task{
		{Name: "store:" + leg, Run: func() error {
			return s.notifications.Create(ctx, &n)
		}},
		{Name: "feed:" + leg, Run: func() error {
			event.Fire(EventNotificationCreated, feedCopy)
			return nil
		}},
	}
}

// mailTask emails a single recipient, looked up lazily so one unknown user
// only fails their own delivery.
func (s *NotificationService) mailTask(ctx context.Context, name string, userID primitive.ObjectID, subject, body string) fanout.Task {
	return fanout.Task{Name: name, Run: func() error {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		return s.mailer.Send([]string{user.Email}, subject, body)
	}}
}

// List returns notifications for the role, newest first.
func (s *NotificationService) List(ctx context.Context, role string, page, limit int64) ([]models.Notification, int64, error) {
	return s.notifications.ListByRole(ctx, role, page, limit)
}

// UnreadCount returns how many notifications the role has not read yet.
func (s *NotificationService) UnreadCount(ctx context.Context, role string) (int64, error) {
	return s.notifications.CountUnread(ctx, role)
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	return s.notifications.MarkRead(ctx, id)
}

// MarkAllRead flags every unread notification for the role.
func (s *NotificationService) MarkAllRead(ctx context.Context, role string) error {
	return s.notifications.MarkAllRead(ctx, role)
}
