// Package domain contains core concepts of the challenge system.
// This file defines Challenge aggregates and their participants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stake is the amount every participant commits to a challenge.
// It is recorded as declared; settlement happens outside this system.
type Stake struct {
	Amount float64 `json:"amount"`
	Asset  string  `json:"asset"`
}

// Participant tracks one user's progress inside a challenge.
// A user appears at most once per challenge.
type Participant struct {
	UserID         string     `json:"userId"`
	Accepted       bool       `json:"accepted"`
	StakeSubmitted bool       `json:"stakeSubmitted"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Challenge is a staked group exercise created inside a community.
type Challenge struct {
	ID           string        `json:"id"`
	CommunityID  string        `json:"communityId"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Exercises    []string      `json:"exercises"`
	Stake        Stake         `json:"stake"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// NewChallenge builds a challenge with a fresh identifier and an empty roster.
// Nobody joins at creation time, the creator included.
func NewChallenge(communityID, name, description string, exercises []string, stake Stake) Challenge {
	return Challenge{
		ID:           uuid.NewString(),
		CommunityID:  communityID,
		Name:         name,
		Description:  description,
		Exercises:    exercises,
		Stake:        stake,
		Participants: []Participant{},
		CreatedAt:    time.Now().UTC(),
	}
}

// Participant returns the roster entry for userID, or nil.
func (c *Challenge) Participant(userID string) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// HasParticipant reports whether userID already joined.
func (c *Challenge) HasParticipant(userID string) bool {
	return c.Participant(userID) != nil
}

// AddParticipant appends a fresh roster entry for userID.
// Callers must check HasParticipant first; the roster never holds duplicates.
func (c *Challenge) AddParticipant(userID string) {
	c.Participants = append(c.Participants, Participant{UserID: userID})
}
