package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/application/campaign"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/handlers"
)

type stubService struct{}

func (stubService) Create(ctx context.Context, cmd campaign.CreateCmd) (*domain.Campaign, error) {
	return &domain.Campaign{ID: 1, UID: "0000000001"}, nil
}
func (stubService) List(ctx context.Context) ([]*domain.Campaign, error) { return nil, nil }
func (stubService) History(ctx context.Context) ([]domain.SendLog, error) {
	return nil, nil
}
func (stubService) CampaignHistory(ctx context.Context, uid string) (*domain.Campaign, []domain.SendLog, error) {
	return &domain.Campaign{UID: uid}, nil, nil
}
func (stubService) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	return domain.Dashboard{}, nil
}
func (stubService) Delete(ctx context.Context, uid string) error { return nil }
func (stubService) Pause(ctx context.Context, uid string) (*domain.Campaign, error) {
	return &domain.Campaign{UID: uid, Status: domain.StatusPaused}, nil
}
func (stubService) Resume(ctx context.Context, uid string) (*domain.Campaign, error) {
	return &domain.Campaign{UID: uid, Status: domain.StatusRunning}, nil
}

func newRouter(t *testing.T, rl RateLimit) http.Handler {
	t.Helper()
	h, err := New(Deps{
		Campaigns: handlers.NewCampaignsHandler(stubService{}),
		Pages:     handlers.NewPagesHandler(""),
		Health:    handlers.NewHealthHandler(nil),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
		RateLimit: rl,
	})
	require.NoError(t, err)
	return h
}

func TestRouter_Routing(t *testing.T) {
	r := newRouter(t, RateLimit{})

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/logs", "", http.StatusOK},
		{http.MethodGet, "/tags", "", http.StatusOK},
		{http.MethodPost, "/create_campaign", `{"name":"x"}`, http.StatusOK},
		{http.MethodGet, "/create_campaign", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/dashboard", "", http.StatusOK},
		{http.MethodGet, "/api/campaigns", "", http.StatusOK},
		{http.MethodGet, "/history", "", http.StatusOK},
		{http.MethodGet, "/campaign/123/history", "", http.StatusOK},
		{http.MethodPost, "/campaign/123/delete", "", http.StatusSeeOther},
		{http.MethodPost, "/campaign/123/pause", "", http.StatusOK},
		{http.MethodPost, "/campaign/123/resume", "", http.StatusOK},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
		})
	}
}

func TestRouter_InProcessRateLimitOnCreate(t *testing.T) {
	r := newRouter(t, RateLimit{Enabled: true, Limit: 2, Window: time.Minute})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/create_campaign", strings.NewReader(`{}`))
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// reads are not limited
	req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNew_RequiresHandlers(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}
