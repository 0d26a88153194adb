package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig trips the breaker after a run of consecutive failures and
// keeps it open for OpenTimeout.
type BreakerConfig struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// guarded wraps a Publisher with a circuit breaker so a dead platform stops
// spawning publish processes for the rest of the batch.
type guarded struct {
	next    Publisher
	breaker *gobreaker.CircuitBreaker
}

// WithBreaker returns p wrapped in a circuit breaker. A zero threshold returns p unchanged.
func WithBreaker(p Publisher, cfg BreakerConfig, logger *slog.Logger) Publisher {
	if cfg.ConsecutiveFailures == 0 {
		return p
	}
	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	return &guarded{next: p, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (g *guarded) Name() string {
	return g.next.Name()
}

func (g *guarded) Publish(ctx context.Context, title, path string) (string, error) {
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Publish(ctx, title, path)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}
