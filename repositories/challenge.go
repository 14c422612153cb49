//go:generate go run go.uber.org/mock/mockgen -source=challenge.go -destination=../mocks/mock_challenge_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"fitstake/domain"
	"fitstake/errors"
)

type IChallengeRepository interface {
	Create(challenge domain.Challenge) error
	GetByID(id string) (domain.Challenge, error)
	ListByCommunity(communityID string) ([]domain.Challenge, error)
	Update(id string, mutate func(*domain.Challenge) error) (domain.Challenge, error)
}

type ChallengeRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChallengeRepository(db *badger.DB, log *slog.Logger) ChallengeRepository {
	return ChallengeRepository{db: db, log: log}
}

func challengeKey(id string) string {
	return fmt.Sprintf("chl:%s", id)
}

// challengeIndexKey is formatted as "chlidx:{community_id}:{timestamp_padded}:{id}"
// so a community's challenges come back newest first from a prefix scan.
func challengeIndexKey(c domain.Challenge) string {
	return fmt.Sprintf("chlidx:%s:%019d:%s", c.CommunityID, c.CreatedAt.UnixNano(), c.ID)
}

// Create persists the challenge and its community index entry atomically.
func (r ChallengeRepository) Create(challenge domain.Challenge) error {
	bytes, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(challengeKey(challenge.ID)), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(challengeIndexKey(challenge)), []byte(challenge.ID))
	})
}

func (r ChallengeRepository) GetByID(id string) (domain.Challenge, error) {
	var challenge domain.Challenge
	err := r.db.View(func(txn *badger.Txn) error {
		return readChallenge(txn, id, &challenge)
	})
	if err != nil {
		return domain.Challenge{}, err
	}
	return challenge, nil
}

// ListByCommunity walks the community index newest first and hydrates
// every challenge inside the same read transaction.
func (r ChallengeRepository) ListByCommunity(communityID string) ([]domain.Challenge, error) {
	var challenges []domain.Challenge
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("chlidx:%s:", communityID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte(nil), prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			var challenge domain.Challenge
			if err := readChallenge(txn, id, &challenge); err != nil {
				return err
			}
			challenges = append(challenges, challenge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return challenges, nil
}

// Update applies mutate to the stored challenge inside one transaction
// and retries on commit conflicts, so two users joining at the same time
// both land in the roster. Errors returned by mutate abort the write and
// propagate unchanged.
func (r ChallengeRepository) Update(id string, mutate func(*domain.Challenge) error) (domain.Challenge, error) {
	var challenge domain.Challenge
	for {
		err := r.db.Update(func(txn *badger.Txn) error {
			challenge = domain.Challenge{}
			if err := readChallenge(txn, id, &challenge); err != nil {
				return err
			}
			if err := mutate(&challenge); err != nil {
				return err
			}
			bytes, err := json.Marshal(challenge)
			if err != nil {
				return fmt.Errorf("marshal failed: %w", err)
			}
			return txn.Set([]byte(challengeKey(id)), bytes)
		})
		if err == badger.ErrConflict {
			r.log.Debug("Conflicting challenge update, retrying", slog.String("challenge_id", id))
			continue
		}
		if err != nil {
			return domain.Challenge{}, err
		}
		return challenge, nil
	}
}

func readChallenge(txn *badger.Txn, id string, challenge *domain.Challenge) error {
	item, err := txn.Get([]byte(challengeKey(id)))
	if err == badger.ErrKeyNotFound {
		return errors.ErrChallengeNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, challenge)
	})
}
