package keepalive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPinger_RunPingsUntilCanceled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := New(Config{URL: srv.URL, Interval: 10 * time.Millisecond, InitialDelay: time.Millisecond}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return hits.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestPinger_DisabledReturnsImmediately(t *testing.T) {
	p := New(Config{}, zerolog.Nop())
	assert.False(t, p.Enabled())
	p.Run(context.Background())
}

func TestPinger_PingErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := New(Config{URL: srv.URL}, zerolog.Nop())
	err := p.Ping(context.Background())
	assert.EqualError(t, err, "keepalive status 503")
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{URL: "http://x"}, zerolog.Nop())
	assert.Equal(t, 60*time.Second, p.cfg.Interval)
	assert.Equal(t, 10*time.Second, p.cfg.Timeout)
}
