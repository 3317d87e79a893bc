package apiclient

import (
	"context"
	"errors"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/cebeepredict/admin/internal/config"
	"github.com/cebeepredict/admin/internal/observability"
)

// errServerStatus marks a 5xx response so the breaker counts it as a
// failure. The response itself is still returned to the caller.
var errServerStatus = errors.New("backend returned a server error")

// newBreaker builds the backend circuit breaker. It trips once at least
// MinRequests calls have been seen in the interval and the failure ratio
// reaches FailureRatio. Client errors and caller cancellations do not count
// as failures.
func newBreaker(cfg config.CircuitBreakerConfig, metrics *observability.Metrics, logger *zap.Logger) *gobreaker.CircuitBreaker[*response] {
	if !cfg.Enabled {
		return nil
	}
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	ratio := cfg.FailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}

	return gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBackendCircuitBreakerState(breakerStateValue(to))
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// HealthCheck reports the backend as unhealthy while the circuit breaker is
// open. It never calls the backend.
func (c *Client) HealthCheck(_ context.Context) error {
	if c.breaker != nil && c.breaker.State() == gobreaker.StateOpen {
		return gobreaker.ErrOpenState
	}
	return nil
}
