package campaign

import (
	"context"
	"io"
	"time"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type UIDGenerator interface {
	RandomUID(n int) string
}

type CampaignRepo interface {
	CreateCampaign(ctx context.Context, c *domain.Campaign, recipients []string) error
	GetByUID(ctx context.Context, uid string) (*domain.Campaign, error)
	List(ctx context.Context) ([]*domain.Campaign, error)
	Delete(ctx context.Context, id int64) error
	UpdateState(ctx context.Context, c *domain.Campaign, from domain.CampaignStatus) error

	RecentLogs(ctx context.Context, limit int) ([]domain.SendLog, error)
	LogsByCampaign(ctx context.Context, campaignID int64) ([]domain.SendLog, error)
	Dashboard(ctx context.Context) (domain.Dashboard, error)
}

type AttachmentStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}
