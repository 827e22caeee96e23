package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeApp struct {
	mu sync.Mutex

	startErr error // returned at once instead of blocking
	stopErr  error
	stopHang chan struct{}

	stopped bool
}

func (f *fakeApp) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeApp) Stop(ctx context.Context) error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	if f.stopHang != nil {
		<-f.stopHang
	}
	return f.stopErr
}

func (f *fakeApp) wasStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type harness struct {
	events []string
	logBuf bytes.Buffer
}

func (h *harness) process(app runner, buildErr error) process {
	return process{
		build: func() (runner, func(), error) {
			if buildErr != nil {
				return nil, nil, buildErr
			}
			return app, func() { h.events = append(h.events, "cleanup") }, nil
		},
		openLog: func() func() {
			h.events = append(h.events, "open_log")
			return func() { h.events = append(h.events, "close_log") }
		},
		logger:      func() zerolog.Logger { return zerolog.New(&h.logBuf) },
		stopTimeout: time.Second,
	}
}

func signalled(sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, len(sigs)+1)
	for _, s := range sigs {
		ch <- s
	}
	return ch
}

func TestRun_BootstrapFailure(t *testing.T) {
	h := &harness{}
	code := h.process(nil, errors.New("open database: refused")).run(signalled())

	assert.Equal(t, 1, code)
	assert.Equal(t, []string{"open_log", "close_log"}, h.events)
	assert.Contains(t, h.logBuf.String(), "bootstrap failed")
	assert.Contains(t, h.logBuf.String(), `"exit_code":1`)
}

func TestRun_SignalStopsGracefully(t *testing.T) {
	h := &harness{}
	app := &fakeApp{}

	code := h.process(app, nil).run(signalled(syscall.SIGTERM))

	assert.Equal(t, 0, code)
	assert.True(t, app.wasStopped())
	// cleanup runs while the log sink is still open
	assert.Equal(t, []string{"open_log", "cleanup", "close_log"}, h.events)
	assert.Contains(t, h.logBuf.String(), "shutdown complete")
	assert.Contains(t, h.logBuf.String(), `"exit_code":0`)
}

func TestRun_Crash(t *testing.T) {
	h := &harness{}
	app := &fakeApp{startErr: errors.New("listen tcp :5000: address already in use")}

	code := h.process(app, nil).run(signalled())

	assert.Equal(t, 1, code)
	assert.False(t, app.wasStopped())
	assert.Equal(t, []string{"open_log", "cleanup", "close_log"}, h.events)
	assert.Contains(t, h.logBuf.String(), "app crashed")
}

func TestRun_StopError(t *testing.T) {
	h := &harness{}
	app := &fakeApp{stopErr: context.DeadlineExceeded}

	assert.Equal(t, 1, h.process(app, nil).run(signalled(os.Interrupt)))
	assert.Contains(t, h.logBuf.String(), "graceful stop failed")
}

func TestRun_SecondSignalForcesExit(t *testing.T) {
	h := &harness{}
	hang := make(chan struct{})
	defer close(hang)
	app := &fakeApp{stopHang: hang}

	code := h.process(app, nil).run(signalled(os.Interrupt, syscall.SIGTERM))

	assert.Equal(t, 1, code)
	assert.Contains(t, h.logBuf.String(), "second signal, forcing exit")
}
