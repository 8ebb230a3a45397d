package executor

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CallTracker counts remote calls and cache hits per operation, so
// callers can see how much API quota a workload consumes.
type CallTracker struct {
	mu           sync.RWMutex
	sessionStart time.Time
	sessionCalls int64
	totalCalls   int64
	cacheHits    int64
	callsByOp    map[string]int64
}

// NewCallTracker creates an empty tracker
func NewCallTracker() *CallTracker {
	return &CallTracker{
		sessionStart: time.Now(),
		callsByOp:    make(map[string]int64),
	}
}

// RecordCall records one remote call for op
func (t *CallTracker) RecordCall(op string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessionCalls++
	t.totalCalls++
	t.callsByOp[op]++
}

// RecordCacheHit records a call answered from cache without touching the API
func (t *CallTracker) RecordCacheHit() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cacheHits++
}

// CallStats is a snapshot of tracker counters
type CallStats struct {
	SessionCalls    int64
	TotalCalls      int64
	CacheHits       int64
	SessionDuration time.Duration
	CallsByOp       map[string]int64
}

// SessionStats returns call statistics for the current session
func (t *CallTracker) SessionStats() CallStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byOp := make(map[string]int64, len(t.callsByOp))
	for op, n := range t.callsByOp {
		byOp[op] = n
	}

	return CallStats{
		SessionCalls:    t.sessionCalls,
		TotalCalls:      t.totalCalls,
		CacheHits:       t.cacheHits,
		SessionDuration: time.Since(t.sessionStart),
		CallsByOp:       byOp,
	}
}

// ResetSession resets session counters while keeping lifetime totals
func (t *CallTracker) ResetSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessionStart = time.Now()
	t.sessionCalls = 0
}

// LogSessionSummary logs a summary of API usage for the session
func (t *CallTracker) LogSessionSummary() {
	stats := t.SessionStats()

	event := log.Info().
		Int64("session_calls", stats.SessionCalls).
		Int64("total_calls", stats.TotalCalls).
		Int64("cache_hits", stats.CacheHits).
		Dur("session_duration", stats.SessionDuration)

	for op, count := range stats.CallsByOp {
		event = event.Int64("calls_"+op, count)
	}

	event.Msg("API call session summary")
}
