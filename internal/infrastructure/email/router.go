package email

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

type sender interface {
	Send(ctx context.Context, c *domain.Campaign, out domain.OutgoingMail) (string, error)
}

// Router sends through Postal when the campaign asks for it and SMTP otherwise.
type Router struct {
	SMTP   sender
	Postal sender
}

func (r *Router) Send(ctx context.Context, c *domain.Campaign, out domain.OutgoingMail) (string, error) {
	if c.UsePostal {
		return r.Postal.Send(ctx, c, out)
	}
	return r.SMTP.Send(ctx, c, out)
}
