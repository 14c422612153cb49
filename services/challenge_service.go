// Package services implements the application operations exposed over
// HTTP and the websocket channel.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"fitstake/contract"
	"fitstake/domain"
	"fitstake/errors"
	"fitstake/moderation"
	"fitstake/repositories"
)

var validate = validator.New()

// CreateChallengeCommand is the validated input of Create.
type CreateChallengeCommand struct {
	CommunityID string       `json:"communityId" validate:"required"`
	Name        string       `json:"name" validate:"required,min=3,max=120"`
	Description string       `json:"description" validate:"max=2000"`
	Exercises   []string     `json:"exercises" validate:"required,min=1,dive,required"`
	Stake       domain.Stake `json:"stake"`
}

// Validate applies the struct tags plus the stake rule the tags cannot
// express on the nested domain type.
func (cmd CreateChallengeCommand) Validate() error {
	if err := validate.Struct(cmd); err != nil {
		return err
	}
	if cmd.Stake.Amount <= 0 {
		return errors.ErrInvalidStake
	}
	return nil
}

type IChallengeService interface {
	Create(ctx context.Context, cmd CreateChallengeCommand) (domain.Challenge, error)
	Join(ctx context.Context, challengeID, userID string) (domain.Challenge, error)
	Accept(ctx context.Context, challengeID, userID string) (domain.Challenge, error)
	Complete(ctx context.Context, challengeID, userID string) (domain.Challenge, error)
	Get(ctx context.Context, challengeID string) (domain.Challenge, error)
	ListByCommunity(ctx context.Context, communityID string) ([]domain.Challenge, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Challenge, error)
}

// ChallengeService owns the challenge lifecycle: creation with invite
// fanout, and the join/accept/complete participant transitions.
type ChallengeService struct {
	log        *slog.Logger
	challenges repositories.IChallengeRepository
	members    repositories.ICommunityRepository
	search     repositories.ISearchRepository
	dispatcher contract.IDispatcher
	moderator  moderation.Moderator
}

func NewChallengeService(
	log *slog.Logger,
	challenges repositories.IChallengeRepository,
	members repositories.ICommunityRepository,
	search repositories.ISearchRepository,
	dispatcher contract.IDispatcher,
	moderator moderation.Moderator,
) *ChallengeService {
	return &ChallengeService{
		log:        log,
		challenges: challenges,
		members:    members,
		search:     search,
		dispatcher: dispatcher,
		moderator:  moderator,
	}
}

// Create builds and persists a challenge, then fans one invitation out
// to every community member, the creator included.
//
// The challenge is persisted before the community is resolved, so a
// challenge aimed at a missing community exists without any invitation
// sent. Readers must tolerate such half-applied creates; there is no
// compensating delete.
func (s *ChallengeService) Create(ctx context.Context, cmd CreateChallengeCommand) (domain.Challenge, error) {
	// 1. Validate and censor the user-written text
	if err := cmd.Validate(); err != nil {
		return domain.Challenge{}, err
	}
	name := s.moderator.Censor(cmd.Name)
	description := s.moderator.Censor(cmd.Description)

	// 2. Persist the challenge with an empty roster
	challenge := domain.NewChallenge(cmd.CommunityID, name, description, cmd.Exercises, cmd.Stake)
	if err := s.challenges.Create(challenge); err != nil {
		return domain.Challenge{}, err
	}

	// 3. Resolve the audience
	memberIDs, err := s.members.GetMemberIDs(cmd.CommunityID)
	if err != nil {
		return domain.Challenge{}, err
	}

	// 4. Fan the invitation out, one stored record per member
	if _, err := s.dispatcher.Dispatch(ctx, memberIDs, domain.NewChallengeInvite(challenge)); err != nil {
		return domain.Challenge{}, err
	}

	// 5. Index for search; a lost index entry is only a missed search hit
	if err := s.search.Index(challenge); err != nil {
		s.log.Warn("Challenge not indexed", slog.String("challenge_id", challenge.ID), slog.Any("error", err))
	}

	return challenge, nil
}

// Join appends the user to the roster unless they are already on it.
func (s *ChallengeService) Join(ctx context.Context, challengeID, userID string) (domain.Challenge, error) {
	return s.challenges.Update(challengeID, func(c *domain.Challenge) error {
		if c.HasParticipant(userID) {
			return errors.ErrDuplicateParticipant
		}
		c.AddParticipant(userID)
		return nil
	})
}

// Accept marks the participant as committed. Stake submission is
// recorded as a flag; no funds move through this system.
func (s *ChallengeService) Accept(ctx context.Context, challengeID, userID string) (domain.Challenge, error) {
	return s.challenges.Update(challengeID, func(c *domain.Challenge) error {
		participant := c.Participant(userID)
		if participant == nil {
			return errors.ErrParticipantNotFound
		}
		participant.Accepted = true
		participant.StakeSubmitted = true
		return nil
	})
}

// Complete stamps the participant's completion time.
func (s *ChallengeService) Complete(ctx context.Context, challengeID, userID string) (domain.Challenge, error) {
	return s.challenges.Update(challengeID, func(c *domain.Challenge) error {
		participant := c.Participant(userID)
		if participant == nil {
			return errors.ErrParticipantNotFound
		}
		now := time.Now().UTC()
		participant.Completed = true
		participant.CompletedAt = &now
		return nil
	})
}

func (s *ChallengeService) Get(ctx context.Context, challengeID string) (domain.Challenge, error) {
	return s.challenges.GetByID(challengeID)
}

func (s *ChallengeService) ListByCommunity(ctx context.Context, communityID string) ([]domain.Challenge, error) {
	return s.challenges.ListByCommunity(communityID)
}

// Search resolves matching ids from the index and hydrates them from
// the challenge store. An id whose document vanished is skipped.
func (s *ChallengeService) Search(ctx context.Context, query string, limit int) ([]domain.Challenge, error) {
	ids, _, err := s.search.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	challenges := make([]domain.Challenge, 0, len(ids))
	for _, id := range ids {
		challenge, err := s.challenges.GetByID(id)
		if err != nil {
			s.log.Debug("Indexed challenge missing from store", slog.String("challenge_id", id))
			continue
		}
		challenges = append(challenges, challenge)
	}
	return challenges, nil
}
