package email

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/metrics"
	appCtx "github.com/baechuer/real-time-ressys/services/campaign-service/internal/pkg/context"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

const SentMessage = "Sent"

type SMTPConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

type dialFunc func(ctx context.Context, host string, opts []mail.Option, m *mail.Msg) error

// SMTPSender delivers through the campaign's own SMTP server.
type SMTPSender struct {
	lg zerolog.Logger

	timeout    time.Duration
	maxRetries int
	backoff    time.Duration

	dial  dialFunc
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &SMTPSender{
		lg:         lg.With().Str("component", "smtp_sender").Logger(),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		dial:       dialAndSend,
		sleep:      sleepCtx,
	}
}

func dialAndSend(ctx context.Context, host string, opts []mail.Option, m *mail.Msg) error {
	c, err := mail.NewClient(host, opts...)
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}
	return c.DialAndSendWithContext(ctx, m)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Send retries temporary failures with a linear backoff and returns permanent ones immediately.
func (s *SMTPSender) Send(ctx context.Context, c *domain.Campaign, out domain.OutgoingMail) (string, error) {
	if c.SMTPHost == "" {
		return "", PermanentError{msg: "SMTP host is not configured for this campaign."}
	}

	m, err := buildMsg(out)
	if err != nil {
		return "", err
	}
	opts := s.clientOptions(c)
	lg := s.lg.With().Str("send_id", appCtx.SendID(ctx)).Logger()

	lg.Info().Str("host", c.SMTPHost).Int("port", c.SMTPPort).Str("to", out.To).Msg("attempting smtp send")

	var lastErr error
	for i := 0; i < s.maxRetries; i++ {
		err := classify(s.dial(ctx, c.SMTPHost, opts, m))
		if err == nil {
			lg.Info().Str("to", out.To).Msg("smtp send ok")
			return SentMessage, nil
		}
		lastErr = err
		if !IsTemporary(err) {
			lg.Error().Err(err).Str("to", out.To).Msg("smtp send failed")
			return "", err
		}

		lg.Warn().Err(err).Int("attempt", i+1).Int("max", s.maxRetries).Str("to", out.To).Msg("smtp transient failure")
		if i < s.maxRetries-1 {
			metrics.RecordSMTPRetry()
			if err := s.sleep(ctx, s.backoff*time.Duration(i+1)); err != nil {
				return "", err
			}
		}
	}
	return "", lastErr
}

func (s *SMTPSender) clientOptions(c *domain.Campaign) []mail.Option {
	port := c.SMTPPort
	if port <= 0 {
		port = 587
	}
	opts := []mail.Option{mail.WithPort(port)}
	if s.timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.timeout))
	}
	switch {
	case port == 465:
		opts = append(opts, mail.WithSSL())
	case c.UseSTARTTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if c.SMTPUser != "" && c.SMTPPass != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(c.SMTPUser),
			mail.WithPassword(c.SMTPPass),
		)
	}
	return opts
}

func buildMsg(out domain.OutgoingMail) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(out.FromName, out.FromEmail); err != nil {
		return nil, PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(out.To); err != nil {
		return nil, PermanentError{msg: "invalid to address: " + err.Error()}
	}
	if out.ReplyTo != "" {
		if err := m.ReplyTo(out.ReplyTo); err != nil {
			return nil, PermanentError{msg: "invalid reply-to address: " + err.Error()}
		}
	}
	m.Subject(out.Subject)

	m.SetBodyString(mail.TypeTextPlain, out.PlainBody)
	if out.HTMLBody != "" {
		m.AddAlternativeString(mail.TypeTextHTML, out.HTMLBody)
	}

	for _, a := range out.Attachments {
		var fopts []mail.FileOption
		if a.ContentType != "" {
			fopts = append(fopts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Name, bytes.NewReader(a.Data), fopts...); err != nil {
			return nil, PermanentError{msg: fmt.Sprintf("attach %s: %v", a.Name, err)}
		}
	}
	return m, nil
}
