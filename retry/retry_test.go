package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomlabs/loom"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo(t *testing.T) {
	t.Run("succeeds on first attempt", func(t *testing.T) {
		calls := 0
		result, err := Do(context.Background(), fastConfig(3), func() (string, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		result, err := Do(context.Background(), fastConfig(5), func() (string, error) {
			calls++
			if calls < 3 {
				return "", loom.NewTransientError("rate limited", 429, nil)
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), fastConfig(5), func() (string, error) {
			calls++
			return "", loom.NewPermanentError("bad request", 400, nil)
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.True(t, loom.IsPermanent(err))
	})

	t.Run("does not retry plain errors", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), fastConfig(5), func() (string, error) {
			calls++
			return "", fmt.Errorf("something else")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts and returns last error", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), fastConfig(3), func() (string, error) {
			calls++
			return "", loom.NewTransientError("still down", 503, nil)
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.True(t, loom.IsTransient(err))
	})

	t.Run("honors context cancellation during backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		cfg := Config{MaxAttempts: 3, InitialDelay: time.Hour, MaxDelay: time.Hour}
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err := Do(ctx, cfg, func() (string, error) {
			return "", loom.NewTransientError("down", 503, nil)
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDelay(t *testing.T) {
	cfg := Config{
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, time.Second, cfg.Delay(0))
	assert.Equal(t, 2*time.Second, cfg.Delay(1))
	assert.Equal(t, 4*time.Second, cfg.Delay(2))
	// Capped at MaxDelay.
	assert.Equal(t, 10*time.Second, cfg.Delay(10))
	// Negative attempts clamp to zero.
	assert.Equal(t, time.Second, cfg.Delay(-1))
}

type flakyProvider struct {
	failures int
	calls    int
}

func (p *flakyProvider) Complete(ctx context.Context, messages []loom.Message, opts ...loom.Option) (*loom.Response, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, loom.NewTransientError("overloaded", 529, nil)
	}
	return &loom.Response{Content: "recovered"}, nil
}

func TestProvider(t *testing.T) {
	inner := &flakyProvider{failures: 2}
	p := Wrap(inner, fastConfig(5))

	resp, err := p.Complete(context.Background(), []loom.Message{{Role: loom.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, 3, inner.calls)
}
