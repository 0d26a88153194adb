package retry

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(d time.Duration) {
	r.delays = append(r.delays, d)
}

func newTestExecutor(p Policy) (*Executor, *recorder, *bytes.Buffer) {
	rec := &recorder{}
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return &Executor{Policy: p, Sleep: rec.sleep, Logger: logger}, rec, buf
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	exec, rec, _ := newTestExecutor(NewPolicy(3, 1000))

	calls := 0
	v, err := Do(exec, func() (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestDo_AlwaysFailsInvokedExactlyN(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("attempts=%d", n), func(t *testing.T) {
			exec, rec, _ := newTestExecutor(NewPolicy(n, 10))

			var errs []error
			_, err := Do(exec, func() (int, error) {
				e := fmt.Errorf("failure %d", len(errs)+1)
				errs = append(errs, e)
				return 0, e
			})

			require.Len(t, errs, n)
			assert.Same(t, errs[n-1], err)
			assert.Len(t, rec.delays, n-1)
		})
	}
}

func TestDo_DelaysDoubleFromBase(t *testing.T) {
	exec, rec, _ := newTestExecutor(NewPolicy(5, 250))

	_, err := Do(exec, func() (struct{}, error) {
		return struct{}{}, errors.New("nope")
	})
	require.Error(t, err)

	want := []time.Duration{
		250 * time.Millisecond,
		500 * time.Millisecond,
		1000 * time.Millisecond,
		2000 * time.Millisecond,
	}
	assert.Equal(t, want, rec.delays)
}

func TestDo_SucceedsOnKthAttempt(t *testing.T) {
	exec, rec, buf := newTestExecutor(NewPolicy(3, 1000))

	calls := 0
	v, err := Do(exec, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)

	var total time.Duration
	for _, d := range rec.delays {
		total += d
	}
	assert.GreaterOrEqual(t, total, 3000*time.Millisecond)
	assert.Equal(t, 2, strings.Count(buf.String(), "operation failed, retrying"))
}

func TestDo_SingleAttemptNoDelay(t *testing.T) {
	exec, rec, buf := newTestExecutor(NewPolicy(1, 5000))
	boom := errors.New("boom")

	_, err := Do(exec, func() (int, error) { return 0, boom })

	assert.Same(t, boom, err)
	assert.Empty(t, rec.delays)
	assert.Empty(t, buf.String())
}

func TestDo_ZeroBaseDelay(t *testing.T) {
	exec, rec, _ := newTestExecutor(NewPolicy(3, 0))

	_, _ = Do(exec, func() (int, error) { return 0, errors.New("x") })

	assert.Equal(t, []time.Duration{0, 0}, rec.delays)
}

func TestDo_InvalidPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
	}{
		{"zero attempts", Policy{MaxAttempts: 0}},
		{"negative delay", Policy{MaxAttempts: 2, BaseDelay: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, _, _ := newTestExecutor(tt.policy)
			called := false
			_, err := Do(exec, func() (int, error) {
				called = true
				return 1, nil
			})
			assert.ErrorIs(t, err, ErrInvalidPolicy)
			assert.False(t, called)
		})
	}
}

func TestDo_RealSleep(t *testing.T) {
	exec := NewExecutor(NewPolicy(2, 20), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	calls := 0
	start := time.Now()
	_, err := Do(exec, func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("first")
		}
		return 1, nil
	})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
