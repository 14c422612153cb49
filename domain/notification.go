// Package domain contains core concepts of the challenge system.
// This file defines Notification records delivered to users.
// Records are persisted first; live delivery is best effort.
package domain

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	// NotificationChallengeInvite is the only notification type emitted today.
	NotificationChallengeInvite NotificationType = "challenge_invite"
)

// InvitePayload carries everything a client needs to render and act on
// a challenge invitation without a second round trip.
type InvitePayload struct {
	ChallengeID          string  `json:"challengeId"`
	CommunityID          string  `json:"communityId"`
	StakeAmount          float64 `json:"stakeAmount"`
	ChallengeName        string  `json:"challengeName"`
	ChallengeDescription string  `json:"challengeDescription"`
}

// Notification is a durable per-user record. The copy pushed over a live
// connection is exactly the persisted copy, server identifier included.
type Notification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Payload     InvitePayload    `json:"payload"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// NewChallengeInvite builds the recipient-independent template for a
// challenge invitation. The dispatcher stamps identifier, recipient and
// creation time per copy.
func NewChallengeInvite(challenge Challenge) Notification {
	return Notification{
		Type:        NotificationChallengeInvite,
		Title:       fmt.Sprintf("New challenge: %s", challenge.Name),
		Description: challenge.Description,
		Payload: InvitePayload{
			ChallengeID:          challenge.ID,
			CommunityID:          challenge.CommunityID,
			StakeAmount:          challenge.Stake.Amount,
			ChallengeName:        challenge.Name,
			ChallengeDescription: challenge.Description,
		},
	}
}
