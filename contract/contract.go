//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"fitstake/domain"
)

// Server to client events.
const (
	EventNewNotification = "new_notification"
	EventSquatCount      = "squat_count"
	EventSquatStatus     = "squat_status"
)

// Client to server events.
const (
	EventWorkoutStart  = "workout_start"
	EventWorkoutSample = "workout_sample"
	EventWorkoutStop   = "workout_stop"
)

// Channel is one live client connection able to receive server events.
// SessionID distinguishes two connections of the same user.
type Channel interface {
	SessionID() string
	Send(event string, data any) error
}

// IRegistry maps a user to their current live channel. One channel per
// user; registering again replaces the previous one.
type IRegistry interface {
	Register(userID string, ch Channel)
	Unregister(userID string, ch Channel)
	Lookup(userID string) (Channel, bool)
	Len() int
}

// IDispatcher persists one notification per recipient and pushes each
// stored copy to recipients with a live channel.
type IDispatcher interface {
	Dispatch(ctx context.Context, recipients []string, template domain.Notification) ([]domain.Notification, error)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
