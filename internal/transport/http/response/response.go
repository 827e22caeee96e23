package response

import (
	"encoding/json"
	"errors"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/campaign-service/internal/pkg/context"
)

// Envelope is the success envelope: {"data": ...}
type Envelope struct {
	Data any `json:"data,omitempty"`
}

// ErrorBody is {"error":{"code":"...","message":"...","meta":{...},"request_id":"..."}}
type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Data(w http.ResponseWriter, status int, payload any) {
	JSON(w, status, Envelope{Data: payload})
}

func Fail(w http.ResponseWriter, status int, code, message string, meta map[string]string, requestID string) {
	JSON(w, status, ErrorBody{
		Error: ErrorPayload{
			Code:      code,
			Message:   message,
			Meta:      meta,
			RequestID: requestID,
		},
	})
}

// Err maps domain errors to their HTTP status. Anything else is a 500 and the
// details stay in the logs.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	requestID := RequestID(r)

	if err == nil {
		Fail(w, http.StatusInternalServerError, "internal_error", "unknown error", nil, requestID)
		return
	}

	var ae *domain.AppError
	if errors.As(err, &ae) {
		Fail(w, statusFromCode(ae.Code), string(ae.Code), ae.Message, ae.Meta, requestID)
		return
	}

	zlog.Error().Err(err).Str("request_id", requestID).Str("path", r.URL.Path).Msg("unhandled error")
	Fail(w, http.StatusInternalServerError, "internal_error", "internal error", nil, requestID)
}

// RequestID prefers the id stored by the middleware and falls back to the header.
func RequestID(r *http.Request) string {
	if id := appCtx.RequestID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-Id")
}

func statusFromCode(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidState, domain.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
