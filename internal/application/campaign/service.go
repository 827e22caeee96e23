package campaign

import (
	"github.com/rs/zerolog"
)

const uidLength = 10

type Service struct {
	repo  CampaignRepo
	store AttachmentStore
	pub   EventPublisher
	clock Clock
	uids  UIDGenerator
	lg    zerolog.Logger
}

func New(repo CampaignRepo, store AttachmentStore, pub EventPublisher, clock Clock, uids UIDGenerator, lg zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		store: store,
		pub:   pub,
		clock: clock,
		uids:  uids,
		lg:    lg.With().Str("component", "campaign_service").Logger(),
	}
}
