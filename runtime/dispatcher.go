package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fitstake/contract"
	"fitstake/domain"
	"fitstake/observability"
	"fitstake/repositories"
)

// Dispatcher fans one notification template out to many recipients in
// two steps: a single durable batch write, then a best-effort live push
// to every recipient holding a channel in the registry.
//
// The two steps are deliberately independent. The stored record is the
// source of truth; a push is a convenience that may be skipped (user
// offline) or fail (connection dying) without affecting delivery
// accounting. Nothing is rolled back and nothing is retried.
type Dispatcher struct {
	log          *slog.Logger
	registry     contract.IRegistry
	notification repositories.INotificationRepository
	stats        *observability.DispatchStats
}

func NewDispatcher(
	log *slog.Logger,
	registry contract.IRegistry,
	notification repositories.INotificationRepository,
	stats *observability.DispatchStats,
) *Dispatcher {
	return &Dispatcher{
		log:          log,
		registry:     registry,
		notification: notification,
		stats:        stats,
	}
}

// Dispatch materializes one record per recipient from the template,
// persists the whole batch, then pushes each stored copy to recipients
// currently online. It returns the persisted records.
//
// A store failure aborts everything and nothing is pushed. Push order
// across recipients follows the recipients slice; only the
// persisted-before-pushed ordering per recipient is meaningful.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []string, template domain.Notification) ([]domain.Notification, error) {
	if len(recipients) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	notifications := make([]domain.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notification := template
		notification.ID = uuid.NewString()
		notification.UserID = userID
		notification.Read = false
		notification.CreatedAt = now
		notifications = append(notifications, notification)
	}

	if err := d.notification.CreateBatch(notifications); err != nil {
		d.stats.IncrStoreFailed()
		return nil, fmt.Errorf("persist notification batch: %w", err)
	}
	d.stats.IncrPersisted(uint64(len(notifications)))

	for _, notification := range notifications {
		d.push(notification)
	}
	return notifications, nil
}

// push sends one persisted record to its recipient's current channel.
// An offline recipient is the normal case and only worth a debug line.
func (d *Dispatcher) push(notification domain.Notification) {
	ch, ok := d.registry.Lookup(notification.UserID)
	if !ok {
		d.stats.IncrSkipped()
		d.log.Debug("Recipient offline, push skipped", slog.String("user_id", notification.UserID))
		return
	}

	if err := ch.Send(contract.EventNewNotification, notification); err != nil {
		d.stats.IncrPushFailed()
		d.log.Warn("Live push failed, stored record remains",
			slog.String("user_id", notification.UserID),
			slog.String("notification_id", notification.ID),
			slog.Any("error", err))
		return
	}
	d.stats.IncrPushed()
}
