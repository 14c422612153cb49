package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"fitstake/domain"
	"fitstake/observability"
	"fitstake/repositories"
)

// failingNotificationRepository rejects every batch.
type failingNotificationRepository struct{}

func (failingNotificationRepository) CreateBatch([]domain.Notification) error {
	return fmt.Errorf("disk full")
}

func (failingNotificationRepository) ListByRecipient(string, *string) ([]domain.Notification, *string, error) {
	return nil, nil, nil
}

func (failingNotificationRepository) MarkRead(string, string) error { return nil }

func newDispatcherUnderTest(t *testing.T) (*Dispatcher, *Registry, repositories.NotificationRepository) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := slog.Default()
	registry := NewRegistry()
	notificationRepository := repositories.NewNotificationRepository(db, log, nil)
	dispatcher := NewDispatcher(log, registry, notificationRepository, observability.NewDispatchStats())
	return dispatcher, registry, notificationRepository
}

func inviteTemplate() domain.Notification {
	challenge := domain.NewChallenge("community-1", "30 day squats", "Daily squats", []string{"squat"}, domain.Stake{Amount: 10, Asset: "USDC"})
	return domain.NewChallengeInvite(challenge)
}

func TestDispatcher_Persists_One_Record_Per_Recipient(t *testing.T) {
	req := require.New(t)
	dispatcher, _, notificationRepository := newDispatcherUnderTest(t)

	created, err := dispatcher.Dispatch(context.Background(), []string{"u1", "u2", "u3"}, inviteTemplate())
	req.NoError(err)
	req.Len(created, 3)

	seen := map[string]bool{}
	for _, notification := range created {
		req.NotEmpty(notification.ID)
		req.False(notification.Read)
		req.Equal(domain.NotificationChallengeInvite, notification.Type)
		req.Equal(created[0].Payload, notification.Payload)
		req.False(seen[notification.UserID])
		seen[notification.UserID] = true

		stored, _, err := notificationRepository.ListByRecipient(notification.UserID, nil)
		req.NoError(err)
		req.Len(stored, 1)
		req.Equal(notification, stored[0])
	}
}

func TestDispatcher_Pushes_Only_To_Online_Recipients(t *testing.T) {
	req := require.New(t)
	dispatcher, registry, _ := newDispatcherUnderTest(t)

	online := newFakeChannel()
	registry.Register("u2", online)

	created, err := dispatcher.Dispatch(context.Background(), []string{"u1", "u2", "u3"}, inviteTemplate())
	req.NoError(err)

	// Exactly one push, carrying the persisted record with its server id
	req.Equal([]string{"new_notification"}, online.sent())
	pushed, ok := online.data[0].(domain.Notification)
	req.True(ok)
	req.Equal("u2", pushed.UserID)
	for _, notification := range created {
		if notification.UserID == "u2" {
			req.Equal(notification.ID, pushed.ID)
		}
	}
}

func TestDispatcher_Offline_Recipient_Still_Gets_Stored_Record(t *testing.T) {
	req := require.New(t)
	dispatcher, _, notificationRepository := newDispatcherUnderTest(t)

	created, err := dispatcher.Dispatch(context.Background(), []string{"u1"}, inviteTemplate())
	req.NoError(err)
	req.Len(created, 1)

	stored, _, err := notificationRepository.ListByRecipient("u1", nil)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal(created[0].ID, stored[0].ID)
}

func TestDispatcher_Store_Failure_Aborts_Everything(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	online := newFakeChannel()
	registry.Register("u1", online)

	dispatcher := NewDispatcher(slog.Default(), registry, failingNotificationRepository{}, observability.NewDispatchStats())

	created, err := dispatcher.Dispatch(context.Background(), []string{"u1"}, inviteTemplate())
	req.Error(err)
	req.Nil(created)

	// Nothing may be pushed when the batch was never stored
	req.Empty(online.sent())
}

func TestDispatcher_Push_Failure_Keeps_Stored_Record(t *testing.T) {
	req := require.New(t)
	dispatcher, registry, notificationRepository := newDispatcherUnderTest(t)

	broken := newFakeChannel()
	broken.err = fmt.Errorf("connection reset")
	registry.Register("u1", broken)

	created, err := dispatcher.Dispatch(context.Background(), []string{"u1"}, inviteTemplate())
	req.NoError(err)
	req.Len(created, 1)

	stored, _, err := notificationRepository.ListByRecipient("u1", nil)
	req.NoError(err)
	req.Len(stored, 1)
}

func TestDispatcher_Empty_Recipient_List(t *testing.T) {
	req := require.New(t)
	dispatcher, _, _ := newDispatcherUnderTest(t)

	created, err := dispatcher.Dispatch(context.Background(), nil, inviteTemplate())
	req.NoError(err)
	req.Empty(created)
}
