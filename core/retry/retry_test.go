package retry

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/publisher/schema"
	"github.com/stretchr/testify/assert"
)

func TestDelay(t *testing.T) {
	expected := []time.Duration{
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		10000 * time.Millisecond,
		10000 * time.Millisecond,
	}
	for n, want := range expected {
		assert.Equal(t, want, Delay(n), "attempt %d", n)
	}

	assert.Equal(t, BaseDelay, Delay(-1))
	assert.Equal(t, MaxDelay, Delay(64))
}

func TestShouldRetry(t *testing.T) {
	retryable := map[schema.ErrorKind]bool{
		schema.NetworkError:      true,
		schema.Timeout:           true,
		schema.ConnectionRefused: true,
		schema.ProxyError:        true,
	}
	for _, kind := range schema.AllErrorKinds {
		assert.Equal(t, retryable[kind], ShouldRetry(kind), string(kind))
	}
}

func TestWait(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		start := time.Now()
		err := Wait(context.Background(), 20*time.Millisecond)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("cancelled mid-wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		start := time.Now()
		err := Wait(ctx, 10*time.Second)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("zero duration reports prior cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, Wait(ctx, 0), context.Canceled)
		assert.NoError(t, Wait(context.Background(), 0))
	})
}
