package campaign

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

const historyLimit = 100

func (s *Service) List(ctx context.Context) ([]*domain.Campaign, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, uid string) (*domain.Campaign, error) {
	return s.repo.GetByUID(ctx, uid)
}

// History returns the most recent send attempts across all campaigns.
func (s *Service) History(ctx context.Context) ([]domain.SendLog, error) {
	return s.repo.RecentLogs(ctx, historyLimit)
}

func (s *Service) CampaignHistory(ctx context.Context, uid string) (*domain.Campaign, []domain.SendLog, error) {
	c, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.repo.LogsByCampaign(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, logs, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	return s.repo.Dashboard(ctx)
}
