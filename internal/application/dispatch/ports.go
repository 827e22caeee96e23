package dispatch

import (
	"context"
	"time"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type Repo interface {
	ListDue(ctx context.Context, now time.Time) ([]*domain.Campaign, error)
	// GetByID returns nil, nil for a deleted campaign.
	GetByID(ctx context.Context, id int64) (*domain.Campaign, error)
	CountSendsSince(ctx context.Context, campaignID int64, since time.Time) (int, error)
	NextUnsentRecipient(ctx context.Context, campaignID int64) (*domain.Recipient, error)
	// Advance fails with domain.ErrCampaignChanged when the stored status is no longer from.
	Advance(ctx context.Context, c *domain.Campaign, from domain.CampaignStatus, resetRecipients bool) error
	RecordSend(ctx context.Context, l *domain.SendLog, recipientID int64) error
}

// Transport delivers one rendered mail and returns a human readable result.
type Transport interface {
	Send(ctx context.Context, c *domain.Campaign, m domain.OutgoingMail) (string, error)
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type PDFRenderer interface {
	Render(html string) ([]byte, error)
}

type AttachmentSource interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}
