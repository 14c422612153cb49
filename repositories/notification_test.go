package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"fitstake/domain"
	"fitstake/errors"
)

func inviteFor(userID string, at time.Time) domain.Notification {
	return domain.Notification{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        domain.NotificationChallengeInvite,
		Title:       "New challenge: 30 day squats",
		Description: "Daily squats for a month",
		Payload: domain.InvitePayload{
			ChallengeID:   uuid.NewString(),
			CommunityID:   "community-1",
			StakeAmount:   10,
			ChallengeName: "30 day squats",
		},
		CreatedAt: at,
	}
}

func Test_CreateBatch_Persists_One_Record_Per_Recipient(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewNotificationRepository(db, slog.Default(), nil)
	at := time.Now().UTC()
	batch := []domain.Notification{
		inviteFor("u1", at),
		inviteFor("u2", at),
		inviteFor("u3", at),
	}

	req.NoError(repository.CreateBatch(batch))

	for i, userID := range []string{"u1", "u2", "u3"} {
		fetched, _, err := repository.ListByRecipient(userID, nil)
		req.NoError(err)
		req.Len(fetched, 1)
		req.Equal(batch[i], fetched[0])
	}
}

func Test_ListByRecipient_Newest_First_With_Cursor(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	limit := 2
	repository := NewNotificationRepository(db, slog.Default(), &limit)
	at := time.Now().UTC()

	var batch []domain.Notification
	for i := 1; i <= 5; i++ {
		n := inviteFor("u1", at.Add(time.Duration(i)*time.Minute))
		n.Title = fmt.Sprintf("Challenge %d", i)
		batch = append(batch, n)
	}
	req.NoError(repository.CreateBatch(batch))

	page1, cursor1, err := repository.ListByRecipient("u1", nil)
	req.NoError(err)
	req.Len(page1, 2)
	req.Equal("Challenge 5", page1[0].Title)
	req.Equal("Challenge 4", page1[1].Title)

	page2, cursor2, err := repository.ListByRecipient("u1", cursor1)
	req.NoError(err)
	req.Len(page2, 2)
	req.Equal("Challenge 3", page2[0].Title)
	req.Equal("Challenge 2", page2[1].Title)

	page3, _, err := repository.ListByRecipient("u1", cursor2)
	req.NoError(err)
	req.Len(page3, 1)
	req.Equal("Challenge 1", page3[0].Title)
}

func Test_MarkRead_Flips_Flag_For_Owner_Only(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewNotificationRepository(db, slog.Default(), nil)
	notification := inviteFor("u1", time.Now().UTC())
	req.NoError(repository.CreateBatch([]domain.Notification{notification}))

	req.NoError(repository.MarkRead("u1", notification.ID))

	fetched, _, err := repository.ListByRecipient("u1", nil)
	req.NoError(err)
	req.Len(fetched, 1)
	req.True(fetched[0].Read)

	// Marking twice stays idempotent
	req.NoError(repository.MarkRead("u1", notification.ID))

	// Unknown record or another user's record is a miss
	req.ErrorIs(repository.MarkRead("u1", uuid.NewString()), errors.ErrNotificationNotFound)
	req.ErrorIs(repository.MarkRead("u2", notification.ID), errors.ErrNotificationNotFound)
}
