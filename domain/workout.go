// Package domain contains core concepts of the challenge system.
// This file defines the live squat rep counter fed by pose samples.
package domain

import (
	"fmt"
	"sort"
	"time"
)

const (
	// Knee angles (degrees) delimiting the squat states. The gap between
	// them is hysteresis: jitter around a single threshold must not flip
	// the state back and forth.
	SquatDownAngle = 110.0
	SquatUpAngle   = 160.0

	// Median window smoothing the incoming angle stream.
	angleWindow = 5

	// Minimum time between two counted reps.
	minRepInterval = time.Second
)

const (
	StatusReady           = "ready"
	StatusNoPerson        = "no_person"
	StatusInvalidPosition = "invalid_position"

	squatStateUp   = "up"
	squatStateDown = "down"
)

// WorkoutSample is one pose measurement captured client side.
// Angle is the averaged knee angle, nil when no leg was measurable.
type WorkoutSample struct {
	Angle   *float64 `json:"angle,omitempty"`
	Person  bool     `json:"person"`
	Upright bool     `json:"upright"`
}

// RepUpdate is the counter's reaction to one sample.
type RepUpdate struct {
	Status  string `json:"status"`
	Count   int    `json:"count"`
	Counted bool   `json:"-"`
}

// RepCounter counts squat repetitions from a stream of knee angle samples.
// Not safe for concurrent use; each live session owns one.
type RepCounter struct {
	state   string
	count   int
	lastRep time.Time
	history []float64
}

func NewRepCounter() *RepCounter {
	return &RepCounter{state: squatStateUp}
}

func (c *RepCounter) Count() int { return c.count }

// Reset starts a fresh set.
func (c *RepCounter) Reset() {
	c.state = squatStateUp
	c.count = 0
	c.lastRep = time.Time{}
	c.history = nil
}

// Feed consumes one sample taken at the given time and returns the
// resulting status and count. A rep is counted on the down-to-up
// transition, at most once per interval.
func (c *RepCounter) Feed(sample WorkoutSample, at time.Time) RepUpdate {
	if !sample.Person {
		return RepUpdate{Status: StatusNoPerson, Count: c.count}
	}
	if !sample.Upright {
		return RepUpdate{Status: StatusInvalidPosition, Count: c.count}
	}
	if sample.Angle == nil {
		return RepUpdate{Status: StatusReady, Count: c.count}
	}

	smoothed := c.smooth(*sample.Angle)
	status := fmt.Sprintf("angle:%.1f,%s", smoothed, c.state)
	counted := false

	switch {
	case c.state == squatStateUp && smoothed < SquatDownAngle:
		c.state = squatStateDown
		status = fmt.Sprintf("angle:%.1f,%s", smoothed, squatStateDown)
	case c.state == squatStateDown && smoothed > SquatUpAngle:
		if at.Sub(c.lastRep) > minRepInterval {
			c.count++
			c.lastRep = at
			counted = true
			status = fmt.Sprintf("angle:%.1f,counted", smoothed)
		}
		// The body is back up either way; a debounced rep is simply lost.
		c.state = squatStateUp
	}

	return RepUpdate{Status: status, Count: c.count, Counted: counted}
}

// smooth appends the angle to the sliding window and returns its median,
// filtering single-frame outliers.
func (c *RepCounter) smooth(angle float64) float64 {
	c.history = append(c.history, angle)
	if len(c.history) > angleWindow {
		c.history = c.history[1:]
	}

	window := make([]float64, len(c.history))
	copy(window, c.history)
	sort.Float64s(window)

	mid := len(window) / 2
	if len(window)%2 == 0 {
		return (window[mid-1] + window[mid]) / 2
	}
	return window[mid]
}
