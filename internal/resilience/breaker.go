// Package resilience wraps outbound calls in per-operation circuit
// breakers. There is no retry layer: a failed request surfaces
// immediately and the caller decides whether to re-submit.
package resilience

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Config tunes the breaker shared by all operations on one Guard.
type Config struct {
	// MinRequests is the minimum number of calls in a closed window
	// before the failure ratio is considered at all.
	MinRequests uint32
	// FailureRatio trips the breaker once reached (0 < ratio <= 1).
	FailureRatio float64
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenMaxCalls bounds concurrent probes while half-open.
	HalfOpenMaxCalls uint32
}

func (c Config) normalize() Config {
	if c.MinRequests == 0 {
		c.MinRequests = 3
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = 0.6
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxCalls == 0 {
		c.HalfOpenMaxCalls = 1
	}
	return c
}

// FailurePredicate reports whether an error should count against the
// breaker. Cancellations and client-side mistakes must return false or a
// burst of superseded searches would trip the breaker on its own.
type FailurePredicate func(err error) bool

// Guard owns one circuit breaker per named operation.
type Guard struct {
	cfg       Config
	isFailure FailurePredicate
	log       *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// NewGuard builds a Guard. A nil predicate counts every error as a
// failure; a nil logger is replaced with a no-op one.
func NewGuard(cfg Config, isFailure FailurePredicate, log *zap.Logger) *Guard {
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		cfg:       cfg.normalize(),
		isFailure: isFailure,
		log:       log,
		breakers:  make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Do runs fn under the breaker for the named operation.
func (g *Guard) Do(operation string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}

	breaker := g.breaker(op)
	_, err := breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (g *Guard) breaker(operation string) *gobreaker.CircuitBreaker[struct{}] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if breaker, ok := g.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: g.cfg.HalfOpenMaxCalls,
		Timeout:     g.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < g.cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= g.cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !g.isFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			g.log.Warn("circuit breaker state change",
				zap.String("operation", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](settings)
	g.breakers[operation] = breaker
	return breaker
}

// IsOpen reports whether err means the breaker refused the call outright.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
