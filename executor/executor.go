// Package executor is the shared request-execution substrate for the
// Google API wrappers in this module. Every outbound call funnels through
// an Executor, which rate-limits it, retries transient failures with
// backoff, and optionally caches the result under a caller-supplied key.
package executor

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Request is an opaque, pre-built remote call. The executor never
// inspects it beyond invoking Do and classifying the returned error.
type Request interface {
	Do(ctx context.Context) (any, error)
}

// RequestFunc adapts a function to the Request interface.
type RequestFunc func(ctx context.Context) (any, error)

func (f RequestFunc) Do(ctx context.Context) (any, error) { return f(ctx) }

const maxDuration = time.Duration(math.MaxInt64)

// Executor owns the retry policy, the two throttle gates, the metadata
// cache, and the background request queue. It is safe for concurrent use;
// one Executor is expected per API-wrapper instance.
type Executor struct {
	cfg        Config
	cache      *ttlCache
	individual *gate
	batch      *gate
	tracker    *CallTracker

	queue *requestQueue

	// onQueueError receives failures from queued requests. Defaults to
	// logging; never leave queue failures invisible.
	onQueueError func(id string, err error)
}

// Option customizes an Executor at construction time.
type Option func(*Executor)

// WithQueueErrorHandler installs a callback invoked with the queued
// request's ID and its final error whenever background execution fails.
func WithQueueErrorHandler(fn func(id string, err error)) Option {
	return func(e *Executor) {
		e.onQueueError = fn
	}
}

// New creates an Executor with the given configuration and starts its
// background queue worker.
func New(cfg Config, opts ...Option) *Executor {
	e := &Executor{
		cfg:        cfg,
		cache:      newTTLCache(cfg.Cache),
		individual: newGate(cfg.Throttle.IndividualInterval),
		batch:      newGate(cfg.Throttle.BatchInterval),
		tracker:    NewCallTracker(),
		onQueueError: func(id string, err error) {
			log.Error().
				Err(err).
				Str("request_id", id).
				Msg("Queued request failed")
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	e.queue = newRequestQueue(e)

	return e
}

// NewDefault creates an Executor with DefaultConfig.
func NewDefault(opts ...Option) *Executor {
	return New(DefaultConfig, opts...)
}

// Do executes req behind the individual throttle gate, retrying transient
// failures up to the configured maximum. op names the logical operation
// for call tracking and logs.
func (e *Executor) Do(ctx context.Context, op string, req Request) (any, error) {
	return e.run(ctx, op, req, e.individual, true)
}

// DoNoRetry executes req behind the individual throttle gate with a
// single attempt. Use it for calls whose semantics make blind retry
// unsafe, such as non-idempotent creates.
func (e *Executor) DoNoRetry(ctx context.Context, op string, req Request) (any, error) {
	return e.run(ctx, op, req, e.individual, false)
}

// DoCached executes req as Do does, but first consults the metadata
// cache under key. A fresh hit is returned without invoking the request;
// a successful result is stored under key before returning.
func (e *Executor) DoCached(ctx context.Context, key CacheKey, req Request) (any, error) {
	if value, ok := e.cache.get(key); ok {
		e.tracker.RecordCacheHit()
		log.Debug().
			Str("cache_key", string(key)).
			Msg("Using cached result (API call saved)")
		return value, nil
	}

	value, err := e.run(ctx, key.Operation(), req, e.individual, true)
	if err != nil {
		return nil, err
	}

	e.cache.put(key, value)
	return value, nil
}

// Enqueue appends req to the background queue without blocking. The
// worker drains the queue in FIFO order at the batch throttle rate,
// applying the same retry policy as Do. Failures reach the queue error
// handler. Enqueue after Close drops the request with a warning.
func (e *Executor) Enqueue(op string, req Request) {
	e.queue.enqueue(op, req)
}

// Close stops queue intake, drains the remaining queued requests through
// the normal throttle/retry path, and waits for the worker to exit.
// The flush is unconditional: queued work submitted before Close is
// always attempted.
func (e *Executor) Close() {
	e.queue.close()
}

// Invalidate removes the cache entry under key. Call it after a mutating
// operation whose result would otherwise read stale.
func (e *Executor) Invalidate(key CacheKey) {
	e.cache.invalidate(key)
}

// InvalidatePrefix removes every cache entry whose key begins with
// prefix.
func (e *Executor) InvalidatePrefix(prefix string) {
	e.cache.invalidatePrefix(prefix)
}

// ClearCache drops all cached entries.
func (e *Executor) ClearCache() {
	e.cache.clear()
}

// CacheStats reports cache occupancy.
func (e *Executor) CacheStats() CacheStats {
	return e.cache.stats()
}

// Tracker exposes the call tracker for quota reporting.
func (e *Executor) Tracker() *CallTracker {
	return e.tracker
}

// run is the single retry loop. Each attempt waits on g first, so no
// remote call bypasses its throttle gate.
func (e *Executor) run(ctx context.Context, op string, req Request, g *gate, withRetry bool) (any, error) {
	maxRetries := e.cfg.Retry.MaxRetries
	if !withRetry {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}

		result, err := req.Do(ctx)
		e.tracker.RecordCall(op)
		if err == nil {
			return result, nil
		}

		classified := Classify(err)

		var transient *TransientError
		if !errors.As(classified, &transient) {
			return nil, classified
		}
		if !withRetry {
			return nil, classified
		}

		lastErr = transient.Err
		if attempt >= maxRetries {
			return nil, &RetriesExhaustedError{Attempts: attempt + 1, Last: lastErr}
		}

		delay := e.retryDelay(attempt)
		log.Warn().
			Err(transient.Err).
			Str("operation", op).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Dur("delay", delay).
			Msg("Transient failure, retrying after backoff")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// retryDelay computes the backoff before retry attempt+1: the base delay
// (doubled per attempt in exponential mode, capped at MaxDelay) plus
// uniform jitter in [0, BaseDelay).
func (e *Executor) retryDelay(attempt int) time.Duration {
	base := e.cfg.Retry.BaseDelay
	if base <= 0 {
		return 0
	}

	delay := base
	if e.cfg.Retry.Exponential {
		// limit keeps the doubling from overflowing Duration, with room
		// left for the jitter term.
		limit := e.cfg.Retry.MaxDelay
		if limit <= 0 || limit > maxDuration-base {
			limit = maxDuration - base
		}
		for i := 0; i < attempt && delay < limit; i++ {
			if delay > limit/2 {
				delay = limit
				break
			}
			delay *= 2
		}
		if delay > limit {
			delay = limit
		}
	}

	return delay + time.Duration(rand.Int63n(int64(base)))
}
