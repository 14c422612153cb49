//go:generate go run go.uber.org/mock/mockgen -source=community.go -destination=../mocks/mock_community_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"fitstake/domain"
	"fitstake/errors"
)

type ICommunityRepository interface {
	Put(community domain.Community) error
	GetByID(id string) (domain.Community, error)
	GetMemberIDs(id string) ([]string, error)
}

type CommunityRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCommunityRepository(db *badger.DB, log *slog.Logger) ICommunityRepository {
	return CommunityRepository{db: db, log: log}
}

func communityKey(id string) string {
	return fmt.Sprintf("cmt:%s", id)
}

// Put stores or replaces a community roster. Membership is managed by
// another system; this record is only the audience snapshot used when
// dispatching invitations.
func (r CommunityRepository) Put(community domain.Community) error {
	bytes, err := json.Marshal(community)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(communityKey(community.ID)), bytes)
	})
}

func (r CommunityRepository) GetByID(id string) (domain.Community, error) {
	var community domain.Community
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(communityKey(id)))
		if err == badger.ErrKeyNotFound {
			return errors.ErrCommunityNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &community)
		})
	})
	if err != nil {
		return domain.Community{}, err
	}
	return community, nil
}

// GetMemberIDs resolves the audience of a community.
func (r CommunityRepository) GetMemberIDs(id string) ([]string, error) {
	community, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	return community.MemberIDs, nil
}
