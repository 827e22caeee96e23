package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/application/campaign"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

type fakeService struct {
	created    *campaign.CreateCmd
	uploadBody string
	createErr  error

	campaigns []*domain.Campaign
	logs      []domain.SendLog
	dash      domain.Dashboard
	deleted   []string
	err       error
}

func (f *fakeService) Create(ctx context.Context, cmd campaign.CreateCmd) (*domain.Campaign, error) {
	f.created = &cmd
	if cmd.Upload != nil {
		b, _ := io.ReadAll(cmd.Upload.Body)
		f.uploadBody = string(b)
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Campaign{ID: 7, UID: "1234567890"}, nil
}

func (f *fakeService) List(ctx context.Context) ([]*domain.Campaign, error) {
	return f.campaigns, f.err
}

func (f *fakeService) History(ctx context.Context) ([]domain.SendLog, error) {
	return f.logs, f.err
}

func (f *fakeService) CampaignHistory(ctx context.Context, uid string) (*domain.Campaign, []domain.SendLog, error) {
	for _, c := range f.campaigns {
		if c.UID == uid {
			return c, f.logs, nil
		}
	}
	return nil, nil, domain.ErrNotFound("campaign not found")
}

func (f *fakeService) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	return f.dash, f.err
}

func (f *fakeService) Delete(ctx context.Context, uid string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeService) Pause(ctx context.Context, uid string) (*domain.Campaign, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Campaign{UID: uid, Status: domain.StatusPaused}, nil
}

func (f *fakeService) Resume(ctx context.Context, uid string) (*domain.Campaign, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Campaign{UID: uid, Status: domain.StatusRunning}, nil
}

func withUID(req *http.Request, uid string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("uid", uid)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

var fixedTime = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
