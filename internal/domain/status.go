package domain

import "time"

type CampaignStatus string

const (
	StatusQueued    CampaignStatus = "queued"
	StatusRunning   CampaignStatus = "running"
	StatusScheduled CampaignStatus = "scheduled"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusScheduled, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

type ScheduleType string

const (
	ScheduleNow    ScheduleType = "now"
	ScheduleOnce   ScheduleType = "once"
	ScheduleDaily  ScheduleType = "daily"
	ScheduleWeekly ScheduleType = "weekly"
)

func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleNow, ScheduleOnce, ScheduleDaily, ScheduleWeekly:
		return true
	}
	return false
}

// Recurring reports whether the campaign restarts after every recipient got a mail.
func (t ScheduleType) Recurring() bool {
	return t == ScheduleDaily || t == ScheduleWeekly
}

// Interval is the distance between two runs of a recurring schedule. Zero otherwise.
func (t ScheduleType) Interval() time.Duration {
	switch t {
	case ScheduleDaily:
		return 24 * time.Hour
	case ScheduleWeekly:
		return 7 * 24 * time.Hour
	}
	return 0
}

type SendStatus string

const (
	SendSent   SendStatus = "sent"
	SendFailed SendStatus = "failed"
)
