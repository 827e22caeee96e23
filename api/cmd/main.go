package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/bootstrap"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/logger"
)

// runner is the application lifecycle. Start blocks while serving; Stop shuts down gracefully.
type runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// builder constructs the application and returns its cleanup function.
type builder func() (runner, func(), error)

// process is one run of the service, from opening the log sink to the exit code.
type process struct {
	build       builder
	openLog     func() (closeLog func())
	logger      func() zerolog.Logger
	stopTimeout time.Duration
}

// run returns the exit code. The log sink stays open until cleanup has finished
// so shutdown lines reach LOG_FILE as well.
func (p process) run(sigCh <-chan os.Signal) (code int) {
	closeLog := p.openLog()
	defer closeLog()

	lg := p.logger().With().Str("component", "main").Logger()
	started := time.Now()
	defer func() {
		lg.Info().Int("exit_code", code).Dur("uptime", time.Since(started)).Msg("campaign-service exited")
	}()

	app, cleanup, err := p.build()
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lg.Info().Msg("campaign-service starting")
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	select {
	case sig := <-sigCh:
		lg.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			lg.Error().Err(err).Msg("app crashed")
			return 1
		}
		lg.Warn().Msg("app stopped without a signal")
		return 0
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), p.stopTimeout)
	defer stopCancel()

	stopped := make(chan error, 1)
	go func() { stopped <- app.Stop(stopCtx) }()

	select {
	case err := <-stopped:
		if err != nil {
			lg.Error().Err(err).Msg("graceful stop failed")
			return 1
		}
	case sig := <-sigCh:
		// in-flight sends are abandoned
		lg.Warn().Str("signal", sig.String()).Msg("second signal, forcing exit")
		return 1
	}

	lg.Info().Msg("shutdown complete")
	return 0
}

func buildFromBootstrap() (runner, func(), error) {
	app, cleanup, err := bootstrap.NewApp()
	if err != nil {
		return nil, nil, err
	}
	return app, cleanup, nil
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	code := process{
		build:       buildFromBootstrap,
		openLog:     logger.Init,
		logger:      func() zerolog.Logger { return zlog.Logger },
		stopTimeout: 15 * time.Second,
	}.run(sigCh)

	signal.Stop(sigCh)
	os.Exit(code)
}
