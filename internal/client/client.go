// Package client submits new campaigns to a running campaign service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const CreatePath = "/create_campaign"

// Form is the payload of one submission. Values are sent exactly as given.
type Form struct {
	Name         string `json:"name"`
	Recipients   string `json:"recipients"`
	Subjects     string `json:"subjects"`
	BodyPlain    string `json:"body_plain"`
	BodyHTML     string `json:"body_html"`
	HTMLTemplate string `json:"html_template"`
	SenderName   string `json:"sender_name"`
	SenderEmail  string `json:"sender_email"`
}

type Outcome string

const (
	Created Outcome = "Created"
	Failed  Outcome = "Failed"
)

type Submitter struct {
	baseURL string
	http    *http.Client
	lg      zerolog.Logger
}

// NewSubmitter uses http.DefaultClient when hc is nil.
func NewSubmitter(baseURL string, hc *http.Client, lg zerolog.Logger) *Submitter {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Submitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		lg:      lg.With().Str("component", "campaign_client").Logger(),
	}
}

// Submit posts f once. Any non-2xx status or transport error is Failed; the
// returned error only carries the detail.
func (s *Submitter) Submit(ctx context.Context, f Form) (Outcome, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return Failed, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+CreatePath, bytes.NewReader(body))
	if err != nil {
		return Failed, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.lg.Debug().Err(err).Msg("create request failed")
		return Failed, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.lg.Debug().Int("status", resp.StatusCode).Msg("create rejected")
		return Failed, fmt.Errorf("create_campaign status %d", resp.StatusCode)
	}
	return Created, nil
}
