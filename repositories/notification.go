//go:generate go run go.uber.org/mock/mockgen -source=notification.go -destination=../mocks/mock_notification_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"fitstake/domain"
	"fitstake/errors"
)

type INotificationRepository interface {
	CreateBatch(notifications []domain.Notification) error
	ListByRecipient(userID string, cursor *string) ([]domain.Notification, *string, error)
	MarkRead(userID, notificationID string) error
}

type NotificationRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

func NewNotificationRepository(db *badger.DB, log *slog.Logger, limit *int) NotificationRepository {
	return NotificationRepository{db: db, log: log, limit: limit}
}

// notificationKey is formatted as "ntf:{user_id}:{timestamp_padded}:{id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the record ID as a collision disconnector if two
//     notifications arrive at the same nanosecond.
func notificationKey(n domain.Notification) string {
	return fmt.Sprintf("ntf:%s:%019d:%s", n.UserID, n.CreatedAt.UnixNano(), n.ID)
}

// notificationIndexKey points from a record ID back to its primary key,
// so MarkRead does not need the creation timestamp.
func notificationIndexKey(userID, id string) string {
	return fmt.Sprintf("ntfidx:%s:%s", userID, id)
}

// CreateBatch persists all records in a single transaction. Either the
// whole batch is stored or none of it is; callers never have to undo a
// half-written fanout.
func (n NotificationRepository) CreateBatch(notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return n.db.Update(func(txn *badger.Txn) error {
		for _, notification := range notifications {
			bytes, err := json.Marshal(notification)
			if err != nil {
				return fmt.Errorf("marshal failed: %w", err)
			}
			key := notificationKey(notification)
			if err := txn.Set([]byte(key), bytes); err != nil {
				return err
			}
			if err := txn.Set([]byte(notificationIndexKey(notification.UserID, notification.ID)), []byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByRecipient retrieves a user's notifications using a prefix scan.
// Thanks to the padded timestamp in the key, records come back newest first.
// It stops collecting once the configured limit is reached.
func (n NotificationRepository) ListByRecipient(userID string, cursor *string) ([]domain.Notification, *string, error) {
	var byteRecords [][]byte
	var lastKey string
	err := n.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("ntf:%s:", userID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Start past the newest possible timestamp, then walk backwards
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if n.limit != nil && len(byteRecords) == *n.limit {
				n.log.Debug(fmt.Sprintf("Maximum of %d notifications reached", *n.limit))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				byteRecords = append(byteRecords, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	notifications := make([]domain.Notification, 0, len(byteRecords))
	for _, b := range byteRecords {
		var notification domain.Notification
		if err = json.Unmarshal(b, &notification); err != nil {
			return nil, nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, &lastKey, nil
}

// MarkRead flips the read flag of one of the user's notifications.
// The ID index keeps this a two-lookup transaction instead of a scan.
func (n NotificationRepository) MarkRead(userID, notificationID string) error {
	return n.db.Update(func(txn *badger.Txn) error {
		idxItem, err := txn.Get([]byte(notificationIndexKey(userID, notificationID)))
		if err == badger.ErrKeyNotFound {
			return errors.ErrNotificationNotFound
		}
		if err != nil {
			return err
		}

		var key []byte
		if err := idxItem.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var notification domain.Notification
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &notification)
		}); err != nil {
			return err
		}

		if notification.Read {
			return nil
		}
		notification.Read = true

		bytes, err := json.Marshal(notification)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set(key, bytes)
	})
}
