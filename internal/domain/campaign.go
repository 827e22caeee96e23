package domain

import (
	"strings"
	"time"
)

const DefaultCampaignName = "campaign"

type Campaign struct {
	ID  int64
	UID string

	Name        string
	SenderName  string
	SenderEmail string
	ReplyTo     string

	SubjectsRaw     string
	BodyPlain       string
	BodyHTML        string
	HTMLTemplate    string
	PDFHTMLTemplate string

	MinDelay int // seconds
	MaxDelay int // seconds

	Status    CampaignStatus
	CreatedAt time.Time

	HourlyLimit int
	DailyLimit  int
	MinuteLimit int

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string // doubles as the Postal server API key
	UsePostal   bool
	UseSTARTTLS bool

	AttachPDF             bool
	ManualAttachmentPath  string
	UploadedAttachmentKey string

	ScheduleType ScheduleType
	ScheduleTime *time.Time
	NextSendTime time.Time
}

// NewCampaignInput carries already-decoded create parameters.
type NewCampaignInput struct {
	Name        string
	SenderName  string
	SenderEmail string
	ReplyTo     string

	Subjects        string
	BodyPlain       string
	BodyHTML        string
	HTMLTemplate    string
	PDFHTMLTemplate string

	MinDelay    *int
	MaxDelay    *int
	HourlyLimit *int
	DailyLimit  *int
	MinuteLimit *int

	SMTPHost    string
	SMTPPort    *int
	SMTPUser    string
	SMTPPass    string
	UsePostal   bool
	UseSTARTTLS bool

	AttachPDF            bool
	ManualAttachmentPath string

	ScheduleType string
	ScheduleTime *time.Time
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// NewCampaign applies defaults and derives status and first send time.
func NewCampaign(uid string, in NewCampaignInput, now time.Time) (*Campaign, error) {
	now = now.UTC()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultCampaignName
	}

	st := ScheduleType(strings.ToLower(strings.TrimSpace(in.ScheduleType)))
	if st == "" {
		st = ScheduleNow
	}
	if !st.Valid() {
		return nil, ErrValidationMeta("invalid schedule", map[string]string{
			"schedule_type": "must be one of: now, once, daily, weekly",
		})
	}

	c := &Campaign{
		UID:                  uid,
		Name:                 name,
		SenderName:           strings.TrimSpace(in.SenderName),
		SenderEmail:          strings.TrimSpace(in.SenderEmail),
		ReplyTo:              strings.TrimSpace(in.ReplyTo),
		SubjectsRaw:          in.Subjects,
		HTMLTemplate:         in.HTMLTemplate,
		PDFHTMLTemplate:      in.PDFHTMLTemplate,
		MinDelay:             intOr(in.MinDelay, 1),
		MaxDelay:             intOr(in.MaxDelay, 5),
		HourlyLimit:          intOr(in.HourlyLimit, 100),
		DailyLimit:           intOr(in.DailyLimit, 1000),
		MinuteLimit:          intOr(in.MinuteLimit, 10),
		SMTPHost:             strings.TrimSpace(in.SMTPHost),
		SMTPPort:             intOr(in.SMTPPort, 587),
		SMTPUser:             strings.TrimSpace(in.SMTPUser),
		SMTPPass:             in.SMTPPass,
		UsePostal:            in.UsePostal,
		UseSTARTTLS:          in.UseSTARTTLS,
		AttachPDF:            in.AttachPDF,
		ManualAttachmentPath: strings.TrimSpace(in.ManualAttachmentPath),
		ScheduleType:         st,
		CreatedAt:            now,
	}

	if c.MinDelay < 0 || c.MaxDelay < 0 {
		return nil, ErrValidation("delays must be >= 0")
	}
	if c.MaxDelay < c.MinDelay {
		c.MinDelay, c.MaxDelay = c.MaxDelay, c.MinDelay
	}
	if c.HourlyLimit < 0 || c.DailyLimit < 0 || c.MinuteLimit < 0 {
		return nil, ErrValidation("limits must be >= 0 (0 disables the limit)")
	}

	// The plain part falls back to the raw html input, and the stored html keeps line breaks.
	c.BodyPlain = in.BodyPlain
	if strings.TrimSpace(c.BodyPlain) == "" {
		c.BodyPlain = in.BodyHTML
	}
	c.BodyHTML = strings.ReplaceAll(in.BodyHTML, "\n", "<br>")

	c.Status = StatusRunning
	c.NextSendTime = now
	if st != ScheduleNow && in.ScheduleTime != nil {
		t := in.ScheduleTime.UTC()
		c.ScheduleTime = &t
		c.NextSendTime = t
		c.Status = StatusScheduled
	}

	return c, nil
}

// Subjects returns the non-blank subject lines.
func (c *Campaign) Subjects() []string {
	var out []string
	for _, l := range strings.Split(strings.ReplaceAll(c.SubjectsRaw, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// Provider names the transport the campaign sends through.
func (c *Campaign) Provider() string {
	if c.UsePostal {
		return "postal"
	}
	return "smtp"
}

// Due reports whether the dispatcher should look at the campaign at now.
func (c *Campaign) Due(now time.Time) bool {
	switch c.Status {
	case StatusRunning, StatusQueued:
		return true
	case StatusScheduled:
		return !c.NextSendTime.After(now)
	}
	return false
}

// Exhausted moves the campaign forward once every recipient has been handled.
// It returns true when recipients must be reset for the next run.
func (c *Campaign) Exhausted() (resetRecipients bool) {
	if !c.ScheduleType.Recurring() {
		c.Status = StatusCompleted
		return false
	}
	c.NextSendTime = c.NextSendTime.Add(c.ScheduleType.Interval())
	c.Status = StatusScheduled
	return true
}

func (c *Campaign) Pause() error {
	switch c.Status {
	case StatusPaused:
		return ErrInvalidState("campaign already paused")
	case StatusCompleted:
		return ErrInvalidState("completed campaign cannot be paused")
	}
	c.Status = StatusPaused
	return nil
}

func (c *Campaign) Resume(now time.Time) error {
	if c.Status != StatusPaused {
		return ErrInvalidState("only paused campaign can be resumed")
	}
	if c.ScheduleType != ScheduleNow && c.NextSendTime.After(now) {
		c.Status = StatusScheduled
		return nil
	}
	c.Status = StatusRunning
	return nil
}

// ParseRecipients splits a newline separated list, trimming blanks.
func ParseRecipients(raw string) []string {
	var out []string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
