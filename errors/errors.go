package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrChallengeNotFound    = fmt.Errorf("challenge not found")
	ErrCommunityNotFound    = fmt.Errorf("community not found")
	ErrParticipantNotFound  = fmt.Errorf("participant not found")
	ErrNotificationNotFound = fmt.Errorf("notification not found")
	ErrDuplicateParticipant = fmt.Errorf("user already joined this challenge")
	ErrInvalidStake         = fmt.Errorf("stake amount must be positive")
	ErrUnauthorized         = fmt.Errorf("invalid or missing token")
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrEmptyWords           = fmt.Errorf("no words have been found")
)

// MapToHTTPStatus translates domain errors into transport codes.
// Anything unrecognized is a store or programming failure and stays a 500.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrChallengeNotFound),
		errors.Is(err, ErrCommunityNotFound),
		errors.Is(err, ErrParticipantNotFound),
		errors.Is(err, ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateParticipant),
		errors.Is(err, ErrInvalidStake):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable identifier carried in error
// responses next to the human message.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrChallengeNotFound):
		return "challenge_not_found"
	case errors.Is(err, ErrCommunityNotFound):
		return "community_not_found"
	case errors.Is(err, ErrParticipantNotFound):
		return "participant_not_found"
	case errors.Is(err, ErrNotificationNotFound):
		return "notification_not_found"
	case errors.Is(err, ErrDuplicateParticipant):
		return "duplicate_participant"
	case errors.Is(err, ErrInvalidStake):
		return "invalid_stake"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
