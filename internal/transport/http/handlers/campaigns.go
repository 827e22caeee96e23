package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/application/campaign"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/dto"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/transport/http/validate"
)

const maxUploadBytes = 32 << 20

type CampaignService interface {
	Create(ctx context.Context, cmd campaign.CreateCmd) (*domain.Campaign, error)
	List(ctx context.Context) ([]*domain.Campaign, error)
	History(ctx context.Context) ([]domain.SendLog, error)
	CampaignHistory(ctx context.Context, uid string) (*domain.Campaign, []domain.SendLog, error)
	Dashboard(ctx context.Context) (domain.Dashboard, error)
	Delete(ctx context.Context, uid string) error
	Pause(ctx context.Context, uid string) (*domain.Campaign, error)
	Resume(ctx context.Context, uid string) (*domain.Campaign, error)
}

type CampaignsHandler struct {
	svc CampaignService
}

func NewCampaignsHandler(svc CampaignService) *CampaignsHandler {
	return &CampaignsHandler{svc: svc}
}

// Create accepts JSON, urlencoded and multipart bodies. Only multipart can carry an attachment.
func (h *CampaignsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, upload, cleanup, err := decodeCreate(w, r)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		response.Err(w, r, err)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		response.Err(w, r, err)
		return
	}

	c, err := h.svc.Create(r.Context(), campaign.CreateCmd{
		Input:      in,
		Recipients: req.Recipients,
		Upload:     upload,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}

	response.Data(w, http.StatusOK, dto.CreatedResp{OK: true, ID: c.ID, UID: c.UID})
}

func decodeCreate(w http.ResponseWriter, r *http.Request) (dto.CreateCampaignReq, *campaign.Upload, func(), error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mt {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return dto.CreateCampaignReq{}, nil, nil, domain.ErrValidationMeta("invalid form body", map[string]string{
				"body": "malformed multipart form or file too large",
			})
		}
		cleanup := func() { _ = r.MultipartForm.RemoveAll() }

		req, err := dto.CreateCampaignReqFromForm(r.MultipartForm.Value)
		if err != nil {
			return req, nil, cleanup, err
		}

		file, hdr, err := r.FormFile("attachment")
		switch {
		case errors.Is(err, http.ErrMissingFile):
			return req, nil, cleanup, nil
		case err != nil:
			return req, nil, cleanup, domain.ErrValidationMeta("invalid attachment", map[string]string{"attachment": err.Error()})
		}
		if hdr.Filename == "" || hdr.Size == 0 {
			_ = file.Close()
			return req, nil, cleanup, nil
		}

		prev := cleanup
		cleanup = func() { _ = file.Close(); prev() }
		return req, &campaign.Upload{
			Filename:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Size:        hdr.Size,
			Body:        file,
		}, cleanup, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return dto.CreateCampaignReq{}, nil, nil, domain.ErrValidationMeta("invalid form body", map[string]string{"body": err.Error()})
		}
		req, err := dto.CreateCampaignReqFromForm(r.PostForm)
		return req, nil, nil, err

	default:
		var req dto.CreateCampaignReq
		if err := validate.DecodeJSON(r, &req); err != nil {
			return req, nil, nil, domain.ErrValidationMeta("invalid json body", map[string]string{
				"body": "malformed JSON or invalid fields",
			})
		}
		return req, nil, nil, nil
	}
}

func (h *CampaignsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToDashboardResp(d))
}

func (h *CampaignsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	out := make([]dto.CampaignResp, 0, len(items))
	for _, c := range items {
		out = append(out, dto.ToCampaignResp(c))
	}
	response.Data(w, http.StatusOK, out)
}

func (h *CampaignsHandler) History(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.History(r.Context())
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToSendLogs(logs))
}

func (h *CampaignsHandler) CampaignHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidParam(w, r)
	if !ok {
		return
	}
	c, logs, err := h.svc.CampaignHistory(r.Context(), uid)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.CampaignHistoryResp{
		Campaign: dto.ToCampaignResp(c),
		Logs:     dto.ToSendLogs(logs),
	})
}

// Delete redirects back to the index page like the form post it serves.
func (h *CampaignsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), uid); err != nil {
		response.Err(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *CampaignsHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Pause)
}

func (h *CampaignsHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Resume)
}

func (h *CampaignsHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*domain.Campaign, error)) {
	uid, ok := uidParam(w, r)
	if !ok {
		return
	}
	c, err := fn(r.Context(), uid)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, dto.ToCampaignResp(c))
}

func uidParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := strings.TrimSpace(chi.URLParam(r, "uid"))
	if !validate.IsUID(uid) {
		response.Err(w, r, domain.ErrValidationMeta("invalid path param", map[string]string{
			"uid": "must be digits",
		}))
		return "", false
	}
	return uid, true
}

// compile-time check against the application service
var _ CampaignService = (*campaign.Service)(nil)
