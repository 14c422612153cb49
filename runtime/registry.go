// Package runtime carries the process-wide moving parts: the live
// session registry, the notification fanout dispatcher and the loader
// for embedded moderation wordlists.
package runtime

import (
	"sync"

	"fitstake/contract"
)

// Registry maps each user to their current live channel. It is the only
// structure written by connection lifecycle callbacks and read by
// request handlers at the same time, so every access takes the lock.
//
// Entries are not persisted: a restarted process starts with an empty
// registry and clients reconnect.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.Channel // map user -> live channel
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]contract.Channel)}
}

// Register stores ch as the user's current channel, replacing any
// previous one. Last writer wins: a user reconnecting from a second tab
// silently takes over delivery.
func (r *Registry) Register(userID string, ch contract.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[userID] = ch
}

// Unregister removes the user's entry only if ch is still the stored
// channel. Disconnect callbacks can fire after the same user already
// reconnected; comparing session IDs keeps the late teardown of the old
// connection from evicting the fresh one.
func (r *Registry) Unregister(userID string, ch contract.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current.SessionID() != ch.SessionID() {
		return
	}
	delete(r.sessions, userID)
}

// Lookup returns the user's current channel, if any.
func (r *Registry) Lookup(userID string) (contract.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.sessions[userID]
	return ch, ok
}

// Len reports how many users currently hold a live channel.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
