package domain

import "time"

type Recipient struct {
	ID         int64
	CampaignID int64
	Email      string
	Sent       bool
	LastError  string
}

type SendLog struct {
	ID             int64
	CampaignID     int64
	Recipient      string
	Subject        string
	AttachmentName string
	Status         SendStatus
	Message        string
	Timestamp      time.Time
}

// Dashboard is the aggregate shown on the landing page.
type Dashboard struct {
	Running   int
	Queued    int
	Paused    int
	Completed int
	Scheduled int
	Sent      int
	Failed    int
}
