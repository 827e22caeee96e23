package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/handlers"
	mw "github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/middleware"
)

type RateLimit struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

type Deps struct {
	Campaigns *handlers.CampaignsHandler
	Pages     *handlers.PagesHandler
	Health    *handlers.HealthHandler
	Metrics   http.Handler

	// CreateLimiter is the shared Redis limiter. When nil an in-process
	// per-IP limiter guards /create_campaign instead.
	CreateLimiter *mw.RedisRateLimiter
	RateLimit     RateLimit
}

func New(deps Deps) (http.Handler, error) {
	if deps.Campaigns == nil {
		return nil, fmt.Errorf("nil Campaigns handler")
	}
	if deps.Pages == nil {
		return nil, fmt.Errorf("nil Pages handler")
	}
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(mw.AccessLog)

	r.Get("/healthz", deps.Health.Healthz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Get("/", deps.Pages.Index)
	r.Get("/logs", deps.Pages.Logs)
	r.Get("/tags", deps.Pages.Tags)

	r.With(createLimit(deps)...).Post("/create_campaign", deps.Campaigns.Create)

	r.Get("/api/dashboard", deps.Campaigns.Dashboard)
	r.Get("/api/campaigns", deps.Campaigns.List)
	r.Get("/history", deps.Campaigns.History)

	r.Route("/campaign/{uid}", func(r chi.Router) {
		r.Get("/history", deps.Campaigns.CampaignHistory)
		r.Post("/delete", deps.Campaigns.Delete)
		r.Post("/pause", deps.Campaigns.Pause)
		r.Post("/resume", deps.Campaigns.Resume)
	})

	return r, nil
}

func createLimit(deps Deps) []func(http.Handler) http.Handler {
	if !deps.RateLimit.Enabled || deps.RateLimit.Limit <= 0 {
		return nil
	}
	if deps.CreateLimiter != nil {
		return []func(http.Handler) http.Handler{deps.CreateLimiter.Wrap("create_campaign")}
	}
	return []func(http.Handler) http.Handler{httprate.LimitByIP(deps.RateLimit.Limit, deps.RateLimit.Window)}
}
