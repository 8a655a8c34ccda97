package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/resilience"
	"github.com/rmharte/rxq/internal/results"
)

// Searcher is the one network dependency the controller needs.
type Searcher interface {
	Search(ctx context.Context, req api.SearchRequest) (*api.SearchResponse, error)
}

// Controller owns the search request lifecycle. Submitting a query
// cancels the in-flight one and bumps the generation counter; completions
// carry their generation and only the current one may touch state, so a
// slow early response can never overwrite a later one.
//
// The controller is confined to the event loop: Submit, Resolve and
// CancelActive must all run there. Only Pending.Run may run on another
// goroutine.
type Controller struct {
	searcher   Searcher
	maxResults int
	log        *zap.Logger

	gen    int
	cancel context.CancelFunc
}

// NewController builds a controller. maxResults bounds every request this
// controller issues; a nil logger is replaced with a no-op one.
func NewController(searcher Searcher, maxResults int, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{searcher: searcher, maxResults: maxResults, log: log}
}

// Pending is one submitted search generation waiting to complete.
type Pending struct {
	Gen   int
	Query string
	run   func() Outcome
}

// Run performs the blocking search call. Safe to call from a worker
// goroutine; hand the Outcome back to Controller.Resolve on the event
// loop.
func (p *Pending) Run() Outcome {
	return p.run()
}

// Outcome is the terminal event of one submission generation.
type Outcome struct {
	Gen      int
	Query    string
	Response *api.SearchResponse
	Groups   []results.DrugGroup
	Err      error
}

// Submit starts a new search generation. Queries that are empty after
// trimming are rejected without side effects. Otherwise the in-flight
// search (if any) is cancelled, state is optimistically reset to loading,
// and the returned Pending carries the work to run.
func (c *Controller) Submit(query string, state *State) (*Pending, bool) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, false
	}

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.gen++

	gen := c.gen
	requestID := uuid.NewString()
	c.log.Info("search submitted",
		zap.Int("gen", gen),
		zap.String("query", trimmed),
		zap.String("request_id", requestID),
	)

	state.BeginSearch(trimmed)

	req := api.SearchRequest{Query: trimmed, MaxResults: c.maxResults}
	run := func() Outcome {
		start := time.Now()
		resp, err := c.searcher.Search(ctx, req)
		outcome := Outcome{Gen: gen, Query: trimmed, Err: err}
		if err == nil {
			outcome.Response = resp
			outcome.Groups = results.BuildGroups(resp.Results)
		}
		c.log.Debug("search completed",
			zap.Int("gen", gen),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return outcome
	}
	return &Pending{Gen: gen, Query: trimmed, run: run}, true
}

// Resolve applies a completed outcome to state. Outcomes from superseded
// generations, and cancellations, are dropped without touching anything.
// The returned bool reports whether state changed.
func (c *Controller) Resolve(outcome Outcome, state *State, now time.Time) bool {
	if outcome.Gen != c.gen {
		c.log.Debug("stale search dropped",
			zap.Int("gen", outcome.Gen),
			zap.Int("current", c.gen),
		)
		return false
	}
	c.cancel = nil

	if outcome.Err != nil {
		if errors.Is(outcome.Err, context.Canceled) {
			return false
		}
		state.Fail(userMessage(outcome.Err))
		return true
	}

	state.ApplySuccess(outcome.Response, outcome.Groups, now)
	return true
}

// Current reports whether gen is still the live generation.
func (c *Controller) Current(gen int) bool {
	return gen == c.gen
}

// CancelActive cancels the in-flight search, if any. The generation
// advances so the cancelled completion resolves as stale.
func (c *Controller) CancelActive() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	c.gen++
}

// userMessage converts a search failure into the text shown to the user.
// Backend-supplied error text wins; breaker refusals get a friendlier
// wording than the raw sentinel.
func userMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if resilience.IsOpen(err) {
		return "Search service is unavailable right now. Try again shortly."
	}
	return "Search failed: " + err.Error()
}
