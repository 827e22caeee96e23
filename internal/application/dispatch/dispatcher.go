package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/application/tags"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/metrics"
	appCtx "github.com/baechuer/real-time-ressys/services/campaign-service/internal/pkg/context"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RoutingSendSent   = "campaign.send.sent"
	RoutingSendFailed = "campaign.send.failed"
)

type Config struct {
	PollMax   time.Duration // upper bound of the idle sleep between passes
	Cooldown  time.Duration // fixed pause after every send
	DelayUnit time.Duration // unit of campaign min/max delay
	LockTTL   time.Duration
}

type Deps struct {
	Repo      Repo
	Transport Transport
	Locker    Locker
	PDF       PDFRenderer
	Files     AttachmentSource
	Publisher EventPublisher
	Tags      *tags.Renderer
	Clock     Clock
}

// SendResult is the payload published after every attempt.
type SendResult struct {
	SendID      string    `json:"send_id"`
	CampaignID  int64     `json:"campaign_id"`
	CampaignUID string    `json:"campaign_uid"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	At          time.Time `json:"at"`
}

// Dispatcher sends at most one mail per due campaign per pass.
type Dispatcher struct {
	cfg Config
	d   Deps
	lg  zerolog.Logger

	sleep    func(ctx context.Context, d time.Duration) error
	readFile func(name string) ([]byte, error)
}

func New(cfg Config, deps Deps, lg zerolog.Logger) *Dispatcher {
	if cfg.PollMax < time.Second {
		cfg.PollMax = 10 * time.Second
	}
	if cfg.DelayUnit <= 0 {
		cfg.DelayUnit = time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &Dispatcher{
		cfg:      cfg,
		d:        deps,
		lg:       lg.With().Str("component", "dispatcher").Logger(),
		sleep:    sleepCtx,
		readFile: os.ReadFile,
	}
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

// Run loops until ctx is canceled.
func (x *Dispatcher) Run(ctx context.Context) error {
	x.lg.Info().Msg("sender worker started")
	for {
		if err := x.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				x.lg.Info().Msg("sender worker stopped")
				return nil
			}
			x.lg.Error().Err(err).Msg("dispatch pass failed")
		}

		idle := time.Duration(x.d.Tags.Between(1, int(x.cfg.PollMax/time.Second))) * time.Second
		if err := x.sleep(ctx, idle); err != nil {
			x.lg.Info().Msg("sender worker stopped")
			return nil
		}
	}
}

// Tick makes one pass over due campaigns. A failing campaign is logged and skipped.
func (x *Dispatcher) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.RecordDispatchTick(time.Since(start)) }()

	campaigns, err := x.d.Repo.ListDue(ctx, x.d.Clock.Now())
	if err != nil {
		return fmt.Errorf("list due campaigns: %w", err)
	}
	x.lg.Debug().Int("campaigns", len(campaigns)).Msg("checking campaigns")

	for _, c := range campaigns {
		if err := ctx.Err(); err != nil {
			return err
		}

		attempted, err := x.process(ctx, c)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			x.lg.Error().Err(err).Str("campaign", c.UID).Msg("campaign dispatch failed")
		}
		if !attempted {
			continue
		}

		wait := x.cfg.Cooldown + x.campaignDelay(c)
		if err := x.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

func (x *Dispatcher) campaignDelay(c *domain.Campaign) time.Duration {
	return time.Duration(x.d.Tags.Between(c.MinDelay, c.MaxDelay)) * x.cfg.DelayUnit
}

// process returns attempted=true when a mail was handed to the transport.
// listed comes from the start of the pass; the campaign is re-read under the lock.
func (x *Dispatcher) process(ctx context.Context, listed *domain.Campaign) (attempted bool, err error) {
	ok, err := x.withinLimits(ctx, listed, x.d.Clock.Now())
	if err != nil || !ok {
		return false, err
	}

	release, ok, err := x.d.Locker.Acquire(ctx, strconv.FormatInt(listed.ID, 10), x.cfg.LockTTL)
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		metrics.RecordDispatchSkipped("locked")
		return false, nil
	}
	defer release()

	c, err := x.reload(ctx, listed.ID)
	if err != nil || c == nil {
		return false, err
	}

	rc, err := x.d.Repo.NextUnsentRecipient(ctx, c.ID)
	if err != nil {
		return false, fmt.Errorf("next recipient: %w", err)
	}
	if rc == nil {
		return false, x.finishRun(ctx, c)
	}

	if err := x.sleep(ctx, x.campaignDelay(c)); err != nil {
		return false, err
	}
	// paused or deleted during the delay
	if c, err = x.reload(ctx, c.ID); err != nil || c == nil {
		return false, err
	}

	sendID := uuid.NewString()
	ctx = appCtx.WithSendID(ctx, sendID)
	out, attachmentNames := x.compose(ctx, c, rc.Email)

	started := time.Now()
	msg, sendErr := x.d.Transport.Send(ctx, c, out)
	provider := c.Provider()

	entry := &domain.SendLog{
		CampaignID:     c.ID,
		Recipient:      rc.Email,
		Subject:        out.Subject,
		AttachmentName: attachmentNames,
		Status:         domain.SendSent,
		Message:        msg,
		Timestamp:      x.d.Clock.Now().UTC(),
	}
	routing := RoutingSendSent
	if sendErr != nil {
		entry.Status = domain.SendFailed
		entry.Message = sendErr.Error()
		routing = RoutingSendFailed
		metrics.RecordEmailFailed(provider, time.Since(started))
		x.lg.Warn().Err(sendErr).Str("campaign", c.UID).Str("to", rc.Email).Msg("send failed")
	} else {
		metrics.RecordEmailSent(provider, time.Since(started))
		x.lg.Info().Str("campaign", c.UID).Str("to", rc.Email).Str("result", msg).Msg("send ok")
	}

	if err := x.d.Repo.RecordSend(ctx, entry, rc.ID); err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			x.lg.Warn().Str("campaign", c.UID).Str("to", rc.Email).Msg("campaign deleted during send, result dropped")
			return true, nil
		}
		return true, fmt.Errorf("record send: %w", err)
	}

	if err := x.d.Publisher.Publish(ctx, routing, SendResult{
		SendID: sendID, CampaignID: c.ID, CampaignUID: c.UID, Recipient: rc.Email, Subject: entry.Subject,
		Status: string(entry.Status), Message: entry.Message, At: entry.Timestamp,
	}); err != nil {
		x.lg.Warn().Err(err).Str("routing_key", routing).Msg("publish send result failed")
	}
	return true, nil
}

// withinLimits applies daily then hourly limits. The minute limit only applies when there is no hourly limit.
func (x *Dispatcher) withinLimits(ctx context.Context, c *domain.Campaign, now time.Time) (bool, error) {
	check := func(limit int, window time.Duration, reason string) (bool, error) {
		n, err := x.d.Repo.CountSendsSince(ctx, c.ID, now.Add(-window))
		if err != nil {
			return false, fmt.Errorf("count sends: %w", err)
		}
		if n >= limit {
			metrics.RecordDispatchSkipped(reason)
			return false, nil
		}
		return true, nil
	}

	if c.DailyLimit > 0 {
		if ok, err := check(c.DailyLimit, 24*time.Hour, "daily_limit"); !ok || err != nil {
			return ok, err
		}
	}
	if c.HourlyLimit > 0 {
		return check(c.HourlyLimit, time.Hour, "hourly_limit")
	}
	if c.MinuteLimit > 0 {
		return check(c.MinuteLimit, time.Minute, "minute_limit")
	}
	return true, nil
}

// reload returns nil when the campaign was deleted or is no longer due.
func (x *Dispatcher) reload(ctx context.Context, id int64) (*domain.Campaign, error) {
	c, err := x.d.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload campaign: %w", err)
	}
	if c == nil {
		metrics.RecordDispatchSkipped("deleted")
		return nil, nil
	}
	if !c.Due(x.d.Clock.Now()) {
		metrics.RecordDispatchSkipped("not_due")
		x.lg.Debug().Str("campaign", c.UID).Str("status", string(c.Status)).Msg("campaign no longer due")
		return nil, nil
	}
	return c, nil
}

func (x *Dispatcher) finishRun(ctx context.Context, c *domain.Campaign) error {
	from := c.Status
	reset := c.Exhausted()
	if err := x.d.Repo.Advance(ctx, c, from, reset); err != nil {
		if errors.Is(err, domain.ErrCampaignChanged) || domain.CodeOf(err) == domain.CodeNotFound {
			x.lg.Info().Err(err).Str("campaign", c.UID).Msg("campaign changed while finishing run, left as is")
			return nil
		}
		return fmt.Errorf("advance campaign: %w", err)
	}
	metrics.RecordRunFinished(string(c.ScheduleType))
	x.lg.Info().
		Str("campaign", c.UID).
		Str("status", string(c.Status)).
		Time("next_send_time", c.NextSendTime).
		Msg("campaign run finished")
	return nil
}
