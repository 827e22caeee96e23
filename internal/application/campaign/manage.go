package campaign

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

// Delete removes the campaign, its recipients, its logs and its stored upload.
func (s *Service) Delete(ctx context.Context, uid string) error {
	c, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return err
	}
	if c.UploadedAttachmentKey != "" {
		if err := s.store.Delete(ctx, c.UploadedAttachmentKey); err != nil {
			s.lg.Warn().Err(err).Str("key", c.UploadedAttachmentKey).Msg("upload not removed")
		}
	}
	s.lg.Info().Str("uid", uid).Msg("campaign deleted")
	return nil
}

func (s *Service) Pause(ctx context.Context, uid string) (*domain.Campaign, error) {
	return s.transition(ctx, uid, func(c *domain.Campaign) error { return c.Pause() })
}

func (s *Service) Resume(ctx context.Context, uid string) (*domain.Campaign, error) {
	now := s.clock.Now()
	return s.transition(ctx, uid, func(c *domain.Campaign) error { return c.Resume(now) })
}

func (s *Service) transition(ctx context.Context, uid string, fn func(c *domain.Campaign) error) (*domain.Campaign, error) {
	c, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	from := c.Status
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, c, from); err != nil {
		return nil, err
	}
	s.lg.Info().Str("uid", uid).Str("status", string(c.Status)).Msg("campaign status changed")
	return c, nil
}
