package resilience_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmharte/rxq/internal/resilience"
)

func testConfig() resilience.Config {
	return resilience.Config{
		MinRequests:      3,
		FailureRatio:     0.6,
		OpenTimeout:      time.Minute,
		HalfOpenMaxCalls: 1,
	}
}

func TestGuard_PassesThroughSuccess(t *testing.T) {
	guard := resilience.NewGuard(testConfig(), nil, nil)

	calls := 0
	err := guard.Do("search", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGuard_PassesThroughError(t *testing.T) {
	guard := resilience.NewGuard(testConfig(), nil, nil)

	wantErr := errors.New("connection refused")
	err := guard.Do("search", func() error { return wantErr })

	assert.ErrorIs(t, err, wantErr)
}

func TestGuard_TripsAfterRepeatedFailures(t *testing.T) {
	guard := resilience.NewGuard(testConfig(), nil, nil)
	boom := errors.New("boom")

	for range 3 {
		_ = guard.Do("search", func() error { return boom })
	}

	calls := 0
	err := guard.Do("search", func() error {
		calls++
		return nil
	})

	assert.True(t, resilience.IsOpen(err), "expected breaker refusal, got %v", err)
	assert.Zero(t, calls, "open breaker must not invoke the callback")
}

func TestGuard_PredicateExemptsErrors(t *testing.T) {
	notFound := errors.New("not found")
	guard := resilience.NewGuard(testConfig(), func(err error) bool {
		return !errors.Is(err, notFound)
	}, nil)

	for range 10 {
		_ = guard.Do("search", func() error { return notFound })
	}

	calls := 0
	err := guard.Do("search", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "exempt errors must not trip the breaker")
}

func TestGuard_OperationsAreIsolated(t *testing.T) {
	guard := resilience.NewGuard(testConfig(), nil, nil)
	boom := errors.New("boom")

	for range 3 {
		_ = guard.Do("search", func() error { return boom })
	}
	require.True(t, resilience.IsOpen(guard.Do("search", func() error { return nil })))

	err := guard.Do("detail", func() error { return nil })
	assert.NoError(t, err, "detail breaker must be independent of search")
}

func TestGuard_NilCallback(t *testing.T) {
	guard := resilience.NewGuard(testConfig(), nil, nil)

	err := guard.Do("search", nil)

	assert.Error(t, err)
}

func TestIsOpen(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "open state", err: gobreaker.ErrOpenState, want: true},
		{name: "too many requests", err: gobreaker.ErrTooManyRequests, want: true},
		{name: "wrapped open state", err: fmt.Errorf("searching drugs: %w", gobreaker.ErrOpenState), want: true},
		{name: "other error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resilience.IsOpen(tt.err), tt.name)
	}
}
