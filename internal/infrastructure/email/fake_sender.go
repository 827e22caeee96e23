package email

import (
	"context"
	"os"
	"strings"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
	"github.com/rs/zerolog"
)

// FakeSender logs instead of delivering.
//
// FAKE_FAIL_MODE:
// - "none" (default): always succeed
// - "transient": return TemporaryError
// - "permanent": return PermanentError
type FakeSender struct {
	lg zerolog.Logger
}

func NewFakeSender(lg zerolog.Logger) *FakeSender {
	return &FakeSender{lg: lg.With().Str("component", "fake_sender").Logger()}
}

func (s *FakeSender) Send(ctx context.Context, c *domain.Campaign, out domain.OutgoingMail) (string, error) {
	s.lg.Info().
		Str("campaign", c.UID).
		Str("to", out.To).
		Str("subject", out.Subject).
		Int("attachments", len(out.Attachments)).
		Msg("FAKE send campaign email")

	switch strings.TrimSpace(strings.ToLower(os.Getenv("FAKE_FAIL_MODE"))) {
	case "transient":
		return "", TemporaryError{msg: "fake transient failure"}
	case "permanent":
		return "", PermanentError{msg: "fake permanent failure"}
	}
	return SentMessage, nil
}
