package keepalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	URL          string
	Interval     time.Duration
	InitialDelay time.Duration
	Timeout      time.Duration
}

// Pinger GETs a URL periodically so hosting platforms don't idle the service.
type Pinger struct {
	cfg Config
	hc  *http.Client
	lg  zerolog.Logger
}

func New(cfg Config, lg zerolog.Logger) *Pinger {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Pinger{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
		lg:  lg.With().Str("component", "keepalive").Logger(),
	}
}

func (p *Pinger) Enabled() bool { return p.cfg.URL != "" }

// Run blocks until ctx is done. It returns immediately when no URL is configured.
func (p *Pinger) Run(ctx context.Context) {
	if !p.Enabled() {
		return
	}
	p.lg.Info().Str("url", p.cfg.URL).Dur("interval", p.cfg.Interval).Msg("keepalive started")

	wait := p.cfg.InitialDelay
	for {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}

		if err := p.Ping(ctx); err != nil {
			p.lg.Warn().Err(err).Str("url", p.cfg.URL).Msg("keepalive error")
		} else {
			p.lg.Info().Str("url", p.cfg.URL).Msg("keepalive ping")
		}
		wait = p.cfg.Interval
	}
}

func (p *Pinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return err
	}
	resp, err := p.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("keepalive status %d", resp.StatusCode)
	}
	return nil
}
