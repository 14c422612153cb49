package repositories

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"fitstake/domain"
	"fitstake/errors"
)

func Test_Create_And_GetByID_Roundtrip(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewChallengeRepository(db, slog.Default())
	challenge := domain.NewChallenge("community-1", "30 day squats", "Daily squats", []string{"squat"}, domain.Stake{Amount: 10, Asset: "USDC"})

	req.NoError(repository.Create(challenge))

	fetched, err := repository.GetByID(challenge.ID)
	req.NoError(err)
	req.Equal(challenge, fetched)

	_, err = repository.GetByID("missing")
	req.ErrorIs(err, errors.ErrChallengeNotFound)
}

func Test_ListByCommunity_Newest_First(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewChallengeRepository(db, slog.Default())
	at := time.Now().UTC()
	for i := 1; i <= 3; i++ {
		challenge := domain.NewChallenge("community-1", fmt.Sprintf("challenge %d", i), "", nil, domain.Stake{Amount: 5})
		challenge.CreatedAt = at.Add(time.Duration(i) * time.Minute)
		req.NoError(repository.Create(challenge))
	}

	challenges, err := repository.ListByCommunity("community-1")
	req.NoError(err)
	req.Len(challenges, 3)
	req.Equal("challenge 3", challenges[0].Name)
	req.Equal("challenge 2", challenges[1].Name)
	req.Equal("challenge 1", challenges[2].Name)

	empty, err := repository.ListByCommunity("community-2")
	req.NoError(err)
	req.Empty(empty)
}

func Test_Update_Applies_Mutation_Or_Aborts(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewChallengeRepository(db, slog.Default())
	challenge := domain.NewChallenge("community-1", "plank week", "", nil, domain.Stake{Amount: 5})
	req.NoError(repository.Create(challenge))

	updated, err := repository.Update(challenge.ID, func(c *domain.Challenge) error {
		c.AddParticipant("u1")
		return nil
	})
	req.NoError(err)
	req.True(updated.HasParticipant("u1"))

	// A guard error aborts the write and propagates unchanged
	_, err = repository.Update(challenge.ID, func(c *domain.Challenge) error {
		c.AddParticipant("u2")
		return errors.ErrDuplicateParticipant
	})
	req.ErrorIs(err, errors.ErrDuplicateParticipant)

	fetched, err := repository.GetByID(challenge.ID)
	req.NoError(err)
	req.False(fetched.HasParticipant("u2"))

	_, err = repository.Update("missing", func(c *domain.Challenge) error { return nil })
	req.ErrorIs(err, errors.ErrChallengeNotFound)
}

func Test_Update_Concurrent_Joins_Both_Land(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()

	repository := NewChallengeRepository(db, slog.Default())
	challenge := domain.NewChallenge("community-1", "burpee blitz", "", nil, domain.Stake{Amount: 5})
	req.NoError(repository.Create(challenge))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, userID := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := repository.Update(challenge.ID, func(c *domain.Challenge) error {
				c.AddParticipant(userID)
				return nil
			})
			errs <- err
		}(userID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	fetched, err := repository.GetByID(challenge.ID)
	req.NoError(err)
	req.Len(fetched.Participants, 2)
	req.True(fetched.HasParticipant("u1"))
	req.True(fetched.HasParticipant("u2"))
}
