package services

import (
	"log/slog"
	"sync"
	"time"

	"fitstake/contract"
	"fitstake/domain"
)

// CountUpdate is pushed as the squat_count event payload.
type CountUpdate struct {
	Count int `json:"count"`
}

// StatusUpdate is pushed as the squat_status event payload.
type StatusUpdate struct {
	Status string `json:"status"`
}

// WorkoutService runs one rep counter per live session. The browser
// does the pose capture and streams knee angle samples; the counting
// state machine lives here so a page reload cannot inflate the count.
//
// Counters are keyed by session id, not user id: two tabs of the same
// user each get their own set.
type WorkoutService struct {
	mu       sync.Mutex
	log      *slog.Logger
	counters map[string]*domain.RepCounter
}

func NewWorkoutService(log *slog.Logger) *WorkoutService {
	return &WorkoutService{log: log, counters: make(map[string]*domain.RepCounter)}
}

// Start begins a fresh set for the session, replacing any running one.
func (s *WorkoutService) Start(ch contract.Channel, exercise string) {
	s.mu.Lock()
	s.counters[ch.SessionID()] = domain.NewRepCounter()
	s.mu.Unlock()

	s.log.Debug("Workout started",
		slog.String("session_id", ch.SessionID()),
		slog.String("exercise", exercise))

	if err := ch.Send(contract.EventSquatStatus, StatusUpdate{Status: domain.StatusReady}); err != nil {
		s.log.Debug("Status push failed", slog.Any("error", err))
	}
}

// Sample feeds one pose measurement into the session's counter and
// pushes the resulting status, plus the new count when a rep landed.
// Samples arriving before workout_start are ignored.
func (s *WorkoutService) Sample(ch contract.Channel, sample domain.WorkoutSample) {
	s.mu.Lock()
	counter, ok := s.counters[ch.SessionID()]
	s.mu.Unlock()
	if !ok {
		return
	}

	update := counter.Feed(sample, time.Now())

	if err := ch.Send(contract.EventSquatStatus, StatusUpdate{Status: update.Status}); err != nil {
		s.log.Debug("Status push failed", slog.Any("error", err))
	}
	if update.Counted {
		if err := ch.Send(contract.EventSquatCount, CountUpdate{Count: update.Count}); err != nil {
			s.log.Debug("Count push failed", slog.Any("error", err))
		}
	}
}

// Stop ends the session's set and returns the final count.
func (s *WorkoutService) Stop(ch contract.Channel) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.counters[ch.SessionID()]
	if !ok {
		return 0
	}
	delete(s.counters, ch.SessionID())
	return counter.Count()
}

// Drop discards the session's counter without reporting, used when the
// connection closes mid-set.
func (s *WorkoutService) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, sessionID)
}
