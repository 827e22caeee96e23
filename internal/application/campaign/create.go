package campaign

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/metrics"
)

const RoutingCampaignCreated = "campaign.created"

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreateCmd struct {
	Input      domain.NewCampaignInput
	Recipients string
	Upload     *Upload
}

// CampaignCreated is the payload published after a successful create.
type CampaignCreated struct {
	ID           int64     `json:"id"`
	UID          string    `json:"uid"`
	Name         string    `json:"name"`
	Recipients   int       `json:"recipients"`
	Status       string    `json:"status"`
	ScheduleType string    `json:"schedule_type"`
	NextSendTime time.Time `json:"next_send_time"`
}

func (s *Service) Create(ctx context.Context, cmd CreateCmd) (*domain.Campaign, error) {
	uid := s.uids.RandomUID(uidLength)
	c, err := domain.NewCampaign(uid, cmd.Input, s.clock.Now())
	if err != nil {
		return nil, err
	}
	recipients := domain.ParseRecipients(cmd.Recipients)

	if up := cmd.Upload; up != nil && up.Filename != "" && up.Body != nil {
		key := UploadKey(uid, up.Filename)
		if err := s.store.Put(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
			return nil, fmt.Errorf("store attachment: %w", err)
		}
		c.UploadedAttachmentKey = key
	}

	if err := s.repo.CreateCampaign(ctx, c, recipients); err != nil {
		if c.UploadedAttachmentKey != "" {
			if derr := s.store.Delete(ctx, c.UploadedAttachmentKey); derr != nil {
				s.lg.Warn().Err(derr).Str("key", c.UploadedAttachmentKey).Msg("orphan upload not removed")
			}
		}
		return nil, err
	}
	metrics.RecordCampaignCreated()

	evt := CampaignCreated{
		ID: c.ID, UID: c.UID, Name: c.Name, Recipients: len(recipients),
		Status: string(c.Status), ScheduleType: string(c.ScheduleType), NextSendTime: c.NextSendTime,
	}
	if err := s.pub.Publish(ctx, RoutingCampaignCreated, evt); err != nil {
		s.lg.Warn().Err(err).Str("uid", c.UID).Msg("publish campaign.created failed")
	}

	s.lg.Info().
		Str("uid", c.UID).
		Str("name", c.Name).
		Int("recipients", len(recipients)).
		Str("status", string(c.Status)).
		Msg("campaign created")
	return c, nil
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// UploadKey returns "uploads/<uid>/<sanitized filename>".
func UploadKey(uid, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Trim(unsafeFilename.ReplaceAllString(name, "_"), "._")
	if name == "" {
		name = "attachment"
	}
	return path.Join("uploads", uid, name)
}
