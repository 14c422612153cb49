package observability

import (
	"runtime"
	"sync/atomic"
)

// DispatchSnapshot is one consistent read of the fanout counters plus
// Go runtime figures, shaped for the health endpoint.
type DispatchSnapshot struct {
	Persisted   uint64 `json:"persisted"`
	Pushed      uint64 `json:"pushed"`
	Skipped     uint64 `json:"skipped"`
	PushFailed  uint64 `json:"push_failed"`
	StoreFailed uint64 `json:"store_failed"`
	AllocMemMb  uint64 `json:"alloc_mem_mb"`
	NumGC       uint32 `json:"num_gc"`
}

// DispatchStats counts fanout outcomes. Every field is atomic: the
// dispatcher increments from request goroutines while the heartbeat
// worker and the health endpoint read concurrently.
type DispatchStats struct {
	persisted   uint64
	pushed      uint64
	skipped     uint64
	pushFailed  uint64
	storeFailed uint64
}

func NewDispatchStats() *DispatchStats {
	return &DispatchStats{}
}

// IncrPersisted records n durably stored notifications.
func (s *DispatchStats) IncrPersisted(n uint64) {
	atomic.AddUint64(&s.persisted, n)
}

// IncrPushed records one successful live push.
func (s *DispatchStats) IncrPushed() {
	atomic.AddUint64(&s.pushed, 1)
}

// IncrSkipped records one recipient without a live channel.
// A skip is the expected outcome for offline users, never an error.
func (s *DispatchStats) IncrSkipped() {
	atomic.AddUint64(&s.skipped, 1)
}

// IncrPushFailed records one channel that refused a push.
func (s *DispatchStats) IncrPushFailed() {
	atomic.AddUint64(&s.pushFailed, 1)
}

// IncrStoreFailed records one batch the store rejected.
func (s *DispatchStats) IncrStoreFailed() {
	atomic.AddUint64(&s.storeFailed, 1)
}

// Snapshot returns the current counters and memory figures.
func (s *DispatchStats) Snapshot() DispatchSnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return DispatchSnapshot{
		Persisted:   atomic.LoadUint64(&s.persisted),
		Pushed:      atomic.LoadUint64(&s.pushed),
		Skipped:     atomic.LoadUint64(&s.skipped),
		PushFailed:  atomic.LoadUint64(&s.pushFailed),
		StoreFailed: atomic.LoadUint64(&s.storeFailed),
		AllocMemMb:  m.Alloc / 1024 / 1024,
		NumGC:       m.NumGC,
	}
}
