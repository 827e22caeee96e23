package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/pkg/circuitbreaker"
	appCtx "github.com/baechuer/real-time-ressys/services/campaign-service/internal/pkg/context"
	"github.com/rs/zerolog"
)

const PostalSentMessage = "Sent via Postal"

type postalAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

type postalMessage struct {
	To          []string           `json:"to"`
	From        string             `json:"from"`
	ReplyTo     string             `json:"reply_to"`
	Subject     string             `json:"subject"`
	PlainBody   string             `json:"plain_body"`
	HTMLBody    string             `json:"html_body"`
	Attachments []postalAttachment `json:"attachments"`
}

// PostalSender delivers through the Postal HTTP API. The campaign's smtp_pass is the server key.
// The breaker is shared by all Postal campaigns and only counts temporary failures.
type PostalSender struct {
	lg      zerolog.Logger
	baseURL string
	hc      *http.Client
	breaker *circuitbreaker.Breaker
}

func NewPostalSender(baseURL string, timeout time.Duration, breaker *circuitbreaker.Breaker, lg zerolog.Logger) *PostalSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if breaker != nil {
		breaker.CountOnly(IsTemporary)
	}
	return &PostalSender{
		lg:      lg.With().Str("component", "postal_sender").Logger(),
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

func (s *PostalSender) Send(ctx context.Context, c *domain.Campaign, out domain.OutgoingMail) (string, error) {
	if s.baseURL == "" {
		return "", PermanentError{msg: "POSTAL_API_URL not set"}
	}
	if c.SMTPPass == "" {
		return "", PermanentError{msg: "Postal API key not set in campaign"}
	}

	msg := postalMessage{
		To:          []string{out.To},
		From:        fmt.Sprintf("%s <%s>", out.FromName, out.FromEmail),
		ReplyTo:     out.ReplyTo,
		Subject:     out.Subject,
		PlainBody:   out.PlainBody,
		HTMLBody:    out.HTMLBody,
		Attachments: []postalAttachment{},
	}
	for _, a := range out.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		msg.Attachments = append(msg.Attachments, postalAttachment{
			Name:        a.Name,
			ContentType: ct,
			Data:        base64.StdEncoding.EncodeToString(a.Data),
		})
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return "", PermanentError{msg: "encode postal payload: " + err.Error()}
	}

	endpoint := s.baseURL + "/api/v1/send/message"
	lg := s.lg.With().Str("send_id", appCtx.SendID(ctx)).Logger()
	lg.Info().Str("to", out.To).Str("endpoint", endpoint).Msg("attempting postal send")

	call := func() error { return s.post(ctx, endpoint, c.SMTPPass, body) }
	if s.breaker != nil {
		err = s.breaker.Call(ctx, call)
	} else {
		err = call()
	}
	if err != nil {
		lg.Error().Err(err).Str("to", out.To).Msg("postal send failed")
		return "", fmt.Errorf("postal api error: %w", err)
	}

	lg.Info().Str("to", out.To).Msg("postal send ok")
	return PostalSentMessage, nil
}

func (s *PostalSender) post(ctx context.Context, endpoint, apiKey string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return PermanentError{msg: err.Error()}
	}
	req.Header.Set("X-Server-API-Key", apiKey)
	req.Header.Set("Content-Type", "application/json")
	if id := appCtx.TraceID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return TemporaryError{msg: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := fmt.Sprintf("%d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(snippet)))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return TemporaryError{msg: msg}
		}
		return PermanentError{msg: msg}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
