// Package fallback tries alternative named strategies after a primary strategy fails.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/julienpequegnot/seriesgen/internal/logging"
)

// ErrChainLimit is recorded when the attempted set is full and no further strategy may run.
var ErrChainLimit = errors.New("strategy chain limit reached")

// Attempted is the set of strategies tried within one chain. It is threaded
// through recursive calls so a strategy is never run twice, and it refuses new
// entries once it holds limit names.
type Attempted struct {
	seen  map[string]struct{}
	order []string
	limit int
}

// NewAttempted returns a set sized for the distinct names in primary and candidates.
func NewAttempted(primary string, candidates []string) *Attempted {
	distinct := map[string]struct{}{primary: {}}
	for _, c := range candidates {
		distinct[c] = struct{}{}
	}
	return &Attempted{
		seen:  make(map[string]struct{}, len(distinct)),
		limit: len(distinct),
	}
}

func (a *Attempted) Has(name string) bool {
	_, ok := a.seen[name]
	return ok
}

// Add marks name as attempted. It reports false when name was already
// present or the set is full.
func (a *Attempted) Add(name string) bool {
	if a.Has(name) || a.Full() {
		return false
	}
	a.seen[name] = struct{}{}
	a.order = append(a.order, name)
	return true
}

func (a *Attempted) Full() bool {
	return len(a.order) >= a.limit
}

// Names lists attempted strategies in the order they ran.
func (a *Attempted) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Failure is one strategy that did not produce a result.
type Failure struct {
	Strategy string
	Err      error
}

// ExhaustedError reports that the primary and every remaining candidate failed.
// It unwraps to the primary failure.
type ExhaustedError struct {
	Primary  string
	Cause    error
	Failures []Failure
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all strategies failed: %v", e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// Request describes a chain run. Cause is the primary strategy's failure.
// Attempted may be nil; Run then creates one with the primary already marked.
type Request struct {
	Primary    string
	Candidates []string
	Cause      error
	Attempted  *Attempted
}

// Invoke runs a single strategy. The attempted set is passed so that a nested
// run can skip what this chain already tried.
type Invoke[T any] func(strategy string, attempted *Attempted) (T, error)

// Run calls invoke once for each candidate not yet attempted, in order, and
// returns the first success. Candidates are never retried here.
func Run[T any](ctx context.Context, req Request, invoke Invoke[T]) (T, error) {
	var zero T
	logger := logging.FromContext(ctx)

	attempted := req.Attempted
	if attempted == nil {
		attempted = NewAttempted(req.Primary, req.Candidates)
	}
	attempted.Add(req.Primary)

	exhausted := &ExhaustedError{Primary: req.Primary, Cause: req.Cause}

	for _, name := range req.Candidates {
		if name == req.Primary || attempted.Has(name) {
			continue
		}
		if !attempted.Add(name) {
			exhausted.Failures = append(exhausted.Failures, Failure{Strategy: name, Err: ErrChainLimit})
			break
		}

		logger.Warn("primary strategy failed, trying fallback",
			slog.String("primary", req.Primary),
			slog.String("strategy", name))

		v, err := invoke(name, attempted)
		if err == nil {
			return v, nil
		}

		logger.Warn("fallback strategy failed",
			slog.String("strategy", name),
			slog.Any("error", err))
		exhausted.Failures = append(exhausted.Failures, Failure{Strategy: name, Err: err})
	}

	return zero, exhausted
}

// Attempt runs primary and, when it fails, logs the failure and returns secondary's outcome.
func Attempt[T any](ctx context.Context, label string, primary, secondary func() (T, error)) (T, error) {
	v, err := primary()
	if err == nil {
		return v, nil
	}
	logging.FromContext(ctx).Warn("primary failed, using fallback",
		slog.String("context", label),
		slog.Any("error", err))
	return secondary()
}
