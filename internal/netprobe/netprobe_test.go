package netprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/publisher/internal/contract"
	"github.com/stretchr/testify/assert"
)

// deadURL points at a closed server so requests fail fast.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestNewDefaults(t *testing.T) {
	p := New()
	assert.Equal(t, contract.DefaultProbeEndpoints, p.endpoints)
	assert.Equal(t, contract.DefaultProbeTimeout, p.probeTimeout)
	assert.Equal(t, contract.DefaultServiceURL, p.serviceURL)
	assert.Equal(t, contract.DefaultServiceTimeout, p.serviceTimeout)
}

func TestNewFromConfig(t *testing.T) {
	cfg := &contract.Config{
		ProbeEndpoints: []string{"https://a.test"},
		ProbeTimeout:   time.Second,
		ServiceURL:     "https://svc.test",
		ServiceTimeout: 2 * time.Second,
	}
	p := NewFromConfig(cfg)
	assert.Equal(t, []string{"https://a.test"}, p.endpoints)
	assert.Equal(t, time.Second, p.probeTimeout)
	assert.Equal(t, "https://svc.test", p.serviceURL)
	assert.Equal(t, 2*time.Second, p.serviceTimeout)
}

func TestCheckGeneric(t *testing.T) {
	t.Run("first reachable endpoint wins", func(t *testing.T) {
		var hits atomic.Int32
		var methods atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			methods.Store(r.Method)
			w.WriteHeader(http.StatusMovedPermanently)
		}))
		defer srv.Close()

		p := New(WithEndpoints(deadURL(t), srv.URL, srv.URL), WithProbeTimeout(time.Second))
		assert.True(t, p.CheckGeneric(context.Background()))
		assert.Equal(t, int32(1), hits.Load())
		assert.Equal(t, http.MethodHead, methods.Load())
	})

	t.Run("all endpoints unreachable", func(t *testing.T) {
		p := New(WithEndpoints(deadURL(t), deadURL(t)), WithProbeTimeout(time.Second))
		assert.False(t, p.CheckGeneric(context.Background()))
	})

	t.Run("slow endpoint times out", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		p := New(WithEndpoints(srv.URL), WithProbeTimeout(50*time.Millisecond))
		start := time.Now()
		assert.False(t, p.CheckGeneric(context.Background()))
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := New(WithEndpoints("https://example.invalid"))
		assert.False(t, p.CheckGeneric(ctx))
	})
}

func TestCheckService(t *testing.T) {
	t.Run("reachable sends user agent", func(t *testing.T) {
		var agent atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agent.Store(r.Header.Get("User-Agent"))
			assert.Equal(t, http.MethodGet, r.Method)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		p := New(WithService(srv.URL, time.Second))
		assert.True(t, p.CheckService(context.Background(), 0))
		assert.Equal(t, userAgent, agent.Load())
	})

	t.Run("server error is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		p := New(WithService(srv.URL, time.Second))
		assert.False(t, p.CheckService(context.Background(), time.Second))
	})

	t.Run("connection failure", func(t *testing.T) {
		p := New(WithService(deadURL(t), time.Second))
		assert.False(t, p.CheckService(context.Background(), 0))
	})
}
