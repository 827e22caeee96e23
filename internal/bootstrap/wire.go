package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/application/campaign"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/application/dispatch"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/application/tags"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/infrastructure/db/postgres"
	infraemail "github.com/baechuer/real-time-ressys/services/campaign-service/internal/infrastructure/email"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/infrastructure/keepalive"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/infrastructure/lock"
	rmq "github.com/baechuer/real-time-ressys/services/campaign-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/infrastructure/pdf"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/infrastructure/storage"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/pkg/circuitbreaker"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/handlers"
	mw "github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/router"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type App struct {
	cfg        *config.Config
	srv        *http.Server
	dispatcher *dispatch.Dispatcher
	keepalive  *keepalive.Pinger

	mu       sync.Mutex
	workers  sync.WaitGroup
	workCtx  context.Context
	stopWork context.CancelFunc
	started  bool
	stopOnce sync.Once
}

type publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

func NewApp() (*App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanupAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanupAll()
		return nil, nil, err
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Postgres
	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return fail(fmt.Errorf("open database: %w", err))
	}
	closers = append(closers, func() { _ = db.Close() })
	if err := postgres.Migrate(initCtx, db); err != nil {
		return fail(fmt.Errorf("migrate: %w", err))
	}
	repo := postgres.New(db)

	// Attachment storage
	store, err := newStore(initCtx, cfg)
	if err != nil {
		return fail(err)
	}

	// Redis: go-redis for the dispatch lock, redigo pool for the HTTP limiter
	var locker dispatch.Locker = lock.NewNoopLocker()
	var limiter *mw.RedisRateLimiter
	if cfg.RedisEnabled {
		rdb, err := lock.NewRedisClient(initCtx, cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("redis: %w", err))
		}
		closers = append(closers, func() { _ = rdb.Close() })
		locker = lock.NewRedisLocker(rdb, "", log.Logger)

		pool := mw.NewRedisPool(cfg.RedisURL)
		closers = append(closers, func() { _ = pool.Close() })
		limiter = mw.NewRedisRateLimiter(pool, mw.RedisRateLimitConfig{
			Enabled:  cfg.RLEnabled,
			IPLimit:  cfg.RLLimit,
			IPWindow: cfg.RLWindow,
		}, log.Logger)

		log.Info().Msg("redis enabled for dispatch lock + http rate limit")
	} else {
		log.Info().Msg("redis disabled (noop lock, in-process rate limit)")
	}

	// RabbitMQ
	var pub publisher = rmq.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := rmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange, log.Logger)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq unavailable, domain events disabled")
		} else {
			pub = p
		}
	}
	closers = append(closers, func() { _ = pub.Close() })

	// Mail transports
	var transport dispatch.Transport
	switch cfg.EmailTransport {
	case "fake":
		transport = infraemail.NewFakeSender(log.Logger)
	default:
		breaker := circuitbreaker.New(cfg.CBMaxFailures, cfg.CBResetTimeout, 1)
		transport = &infraemail.Router{
			SMTP: infraemail.NewSMTPSender(infraemail.SMTPConfig{
				Timeout:      cfg.SMTPTimeout,
				MaxRetries:   cfg.SMTPMaxRetries,
				RetryBackoff: cfg.SMTPRetryBackoff,
			}, log.Logger),
			Postal: infraemail.NewPostalSender(cfg.PostalAPIURL, cfg.SMTPTimeout, breaker, log.Logger),
		}
	}

	clock := systemClock{}
	tagRenderer := tags.NewRenderer(time.Now().UnixNano(), clock.Now)

	svc := campaign.New(repo, store, pub, clock, tagRenderer, log.Logger)

	dispatcher := dispatch.New(dispatch.Config{
		PollMax:   cfg.DispatchPollMax,
		Cooldown:  cfg.DispatchCooldown,
		DelayUnit: cfg.DispatchDelayUnit,
		LockTTL:   cfg.DispatchLockTTL,
	}, dispatch.Deps{
		Repo:      repo,
		Transport: transport,
		Locker:    locker,
		PDF:       pdf.NewRenderer(),
		Files:     store,
		Publisher: pub,
		Tags:      tagRenderer,
		Clock:     clock,
	}, log.Logger)

	handler, err := router.New(router.Deps{
		Campaigns:     handlers.NewCampaignsHandler(svc),
		Pages:         handlers.NewPagesHandler(cfg.LogFile),
		Health:        handlers.NewHealthHandler(db),
		Metrics:       metrics.Handler(),
		CreateLimiter: limiter,
		RateLimit: router.RateLimit{
			Enabled: cfg.RLEnabled,
			Limit:   cfg.RLLimit,
			Window:  cfg.RLWindow,
		},
	})
	if err != nil {
		return fail(err)
	}

	workCtx, stopWork := context.WithCancel(context.Background())
	app := &App{
		cfg: cfg,
		srv: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
		keepalive: keepalive.New(keepalive.Config{
			URL:          cfg.KeepaliveURL,
			Interval:     cfg.KeepaliveInterval,
			InitialDelay: 5 * time.Second,
			Timeout:      10 * time.Second,
		}, log.Logger),
		workCtx:  workCtx,
		stopWork: stopWork,
	}
	if cfg.DispatchEnabled {
		app.dispatcher = dispatcher
	}

	cleanup := func() {
		log.Info().Msg("Performing final resource cleanup...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()

		_ = app.Stop(ctx)
		cleanupAll()
	}

	return app, cleanup, nil
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageDriver == "s3" {
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		}, log.Logger)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("s3 bucket: %w", err)
		}
		log.Info().Str("bucket", cfg.S3Bucket).Msg("attachments stored in s3")
		return s, nil
	}

	s, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	log.Info().Str("dir", cfg.UploadDir).Msg("attachments stored on local disk")
	return s, nil
}

// Start launches the background workers and blocks serving HTTP.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return errors.New("app already started or stopped")
	}
	a.started = true

	if a.dispatcher != nil {
		a.workers.Add(1)
		go func() {
			defer a.workers.Done()
			if err := a.dispatcher.Run(a.workCtx); err != nil {
				log.Error().Err(err).Msg("dispatcher stopped with error")
			}
		}()
	} else {
		log.Info().Msg("dispatcher disabled")
	}

	if a.keepalive.Enabled() {
		a.workers.Add(1)
		go func() {
			defer a.workers.Done()
			a.keepalive.Run(a.workCtx)
		}()
	}
	a.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			_ = a.Stop(context.Background())
		case <-a.workCtx.Done():
		}
	}()

	log.Info().Str("addr", a.srv.Addr).Msg("campaign service listening")
	err := a.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts the HTTP server down and waits for the workers within ctx.
func (a *App) Stop(ctx context.Context) error {
	var err error
	a.stopOnce.Do(func() {
		log.Info().Msg("Shutting down campaign service gracefully...")

		// no workers can be added after this point
		a.mu.Lock()
		a.started = true
		a.mu.Unlock()

		err = a.srv.Shutdown(ctx)
		a.stopWork()

		done := make(chan struct{})
		go func() {
			a.workers.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			log.Warn().Msg("workers did not stop before the shutdown deadline")
			if err == nil {
				err = ctx.Err()
			}
		}
	})
	return err
}

var _ handlers.Pinger = (*sql.DB)(nil)
