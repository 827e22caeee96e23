package dto

import (
	"net/url"
	"strings"
	"time"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

// CreateCampaignReq is the body of POST /create_campaign. The first eight
// fields are the ones the form page always sends.
type CreateCampaignReq struct {
	Name         string `json:"name"`
	Recipients   string `json:"recipients"`
	Subjects     string `json:"subjects"`
	BodyPlain    string `json:"body_plain"`
	BodyHTML     string `json:"body_html"`
	HTMLTemplate string `json:"html_template"`
	SenderName   string `json:"sender_name"`
	SenderEmail  string `json:"sender_email" validate:"omitempty,email"`

	ReplyTo         string `json:"reply_to" validate:"omitempty,email"`
	PDFHTMLTemplate string `json:"pdf_html_template"`

	MinDelay    OptInt `json:"min_delay" validate:"omitempty,min=0"`
	MaxDelay    OptInt `json:"max_delay" validate:"omitempty,min=0"`
	HourlyLimit OptInt `json:"hourly_limit" validate:"omitempty,min=0"`
	DailyLimit  OptInt `json:"daily_limit" validate:"omitempty,min=0"`
	MinuteLimit OptInt `json:"minute_limit" validate:"omitempty,min=0"`

	SMTPHost    string   `json:"smtp_host"`
	SMTPPort    OptInt   `json:"smtp_port" validate:"omitempty,min=1,max=65535"`
	SMTPUser    string   `json:"smtp_user"`
	SMTPPass    string   `json:"smtp_pass"`
	UsePostal   FlexBool `json:"use_postal"`
	UseSTARTTLS FlexBool `json:"use_starttls"`

	AttachPDF            FlexBool `json:"attach_pdf"`
	ManualAttachmentPath string   `json:"manual_attachment_path"`

	ScheduleType string `json:"schedule_type" validate:"omitempty,oneof=now once daily weekly"`
	ScheduleTime string `json:"schedule_time"`
}

var scheduleLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseScheduleTime accepts RFC3339 or an HTML datetime-local value taken as UTC.
func ParseScheduleTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.ErrValidationMeta("invalid schedule_time", map[string]string{
		"schedule_time": "must be RFC3339 or YYYY-MM-DDTHH:MM",
	})
}

func (r CreateCampaignReq) Validate() error {
	return validateStruct(r, "invalid campaign")
}

// ToInput validates the request and converts it to the domain input.
func (r CreateCampaignReq) ToInput() (domain.NewCampaignInput, error) {
	r.ScheduleType = strings.ToLower(strings.TrimSpace(r.ScheduleType))
	r.SenderEmail = strings.TrimSpace(r.SenderEmail)
	r.ReplyTo = strings.TrimSpace(r.ReplyTo)
	if err := r.Validate(); err != nil {
		return domain.NewCampaignInput{}, err
	}
	at, err := ParseScheduleTime(r.ScheduleTime)
	if err != nil {
		return domain.NewCampaignInput{}, err
	}
	return domain.NewCampaignInput{
		Name:                 r.Name,
		SenderName:           r.SenderName,
		SenderEmail:          r.SenderEmail,
		ReplyTo:              r.ReplyTo,
		Subjects:             r.Subjects,
		BodyPlain:            r.BodyPlain,
		BodyHTML:             r.BodyHTML,
		HTMLTemplate:         r.HTMLTemplate,
		PDFHTMLTemplate:      r.PDFHTMLTemplate,
		MinDelay:             r.MinDelay.Ptr(),
		MaxDelay:             r.MaxDelay.Ptr(),
		HourlyLimit:          r.HourlyLimit.Ptr(),
		DailyLimit:           r.DailyLimit.Ptr(),
		MinuteLimit:          r.MinuteLimit.Ptr(),
		SMTPHost:             r.SMTPHost,
		SMTPPort:             r.SMTPPort.Ptr(),
		SMTPUser:             r.SMTPUser,
		SMTPPass:             r.SMTPPass,
		UsePostal:            bool(r.UsePostal),
		UseSTARTTLS:          bool(r.UseSTARTTLS),
		AttachPDF:            bool(r.AttachPDF),
		ManualAttachmentPath: r.ManualAttachmentPath,
		ScheduleType:         r.ScheduleType,
		ScheduleTime:         at,
	}, nil
}

// CreateCampaignReqFromForm reads the same fields from a urlencoded or multipart form.
func CreateCampaignReqFromForm(v url.Values) (CreateCampaignReq, error) {
	req := CreateCampaignReq{
		Name:                 v.Get("name"),
		Recipients:           v.Get("recipients"),
		Subjects:             v.Get("subjects"),
		BodyPlain:            v.Get("body_plain"),
		BodyHTML:             v.Get("body_html"),
		HTMLTemplate:         v.Get("html_template"),
		SenderName:           v.Get("sender_name"),
		SenderEmail:          v.Get("sender_email"),
		ReplyTo:              v.Get("reply_to"),
		PDFHTMLTemplate:      v.Get("pdf_html_template"),
		SMTPHost:             v.Get("smtp_host"),
		SMTPUser:             v.Get("smtp_user"),
		SMTPPass:             v.Get("smtp_pass"),
		UsePostal:            FlexBool(ParseBool(v.Get("use_postal")) || ParseBool(v.Get("postal_api"))),
		UseSTARTTLS:          FlexBool(ParseBool(v.Get("use_starttls"))),
		AttachPDF:            FlexBool(ParseBool(v.Get("attach_pdf"))),
		ManualAttachmentPath: v.Get("manual_attachment_path"),
		ScheduleType:         v.Get("schedule_type"),
		ScheduleTime:         v.Get("schedule_time"),
	}

	ints := []struct {
		field string
		dst   *OptInt
	}{
		{"min_delay", &req.MinDelay},
		{"max_delay", &req.MaxDelay},
		{"hourly_limit", &req.HourlyLimit},
		{"daily_limit", &req.DailyLimit},
		{"minute_limit", &req.MinuteLimit},
		{"smtp_port", &req.SMTPPort},
	}
	for _, it := range ints {
		n, err := ParseOptInt(v.Get(it.field))
		if err != nil {
			return req, domain.ErrValidationMeta("invalid form field", map[string]string{it.field: "must be an integer"})
		}
		*it.dst = n
	}
	return req, nil
}

type CreatedResp struct {
	OK  bool   `json:"ok"`
	ID  int64  `json:"id"`
	UID string `json:"uid"`
}

// CampaignResp never carries the SMTP password.
type CampaignResp struct {
	ID          int64  `json:"id"`
	UID         string `json:"uid"`
	Name        string `json:"name"`
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	ReplyTo     string `json:"reply_to,omitempty"`
	Subjects    string `json:"subjects"`

	Status       string     `json:"status"`
	ScheduleType string     `json:"schedule_type"`
	ScheduleTime *time.Time `json:"schedule_time,omitempty"`
	NextSendTime time.Time  `json:"next_send_time"`
	CreatedAt    time.Time  `json:"created_at"`

	MinDelay    int `json:"min_delay"`
	MaxDelay    int `json:"max_delay"`
	HourlyLimit int `json:"hourly_limit"`
	DailyLimit  int `json:"daily_limit"`
	MinuteLimit int `json:"minute_limit"`

	SMTPHost    string `json:"smtp_host"`
	SMTPPort    int    `json:"smtp_port"`
	SMTPUser    string `json:"smtp_user"`
	UsePostal   bool   `json:"use_postal"`
	UseSTARTTLS bool   `json:"use_starttls"`

	AttachPDF            bool   `json:"attach_pdf"`
	ManualAttachmentPath string `json:"manual_attachment_path,omitempty"`
	HasUpload            bool   `json:"has_upload"`
}

func ToCampaignResp(c *domain.Campaign) CampaignResp {
	return CampaignResp{
		ID:                   c.ID,
		UID:                  c.UID,
		Name:                 c.Name,
		SenderName:           c.SenderName,
		SenderEmail:          c.SenderEmail,
		ReplyTo:              c.ReplyTo,
		Subjects:             c.SubjectsRaw,
		Status:               string(c.Status),
		ScheduleType:         string(c.ScheduleType),
		ScheduleTime:         c.ScheduleTime,
		NextSendTime:         c.NextSendTime,
		CreatedAt:            c.CreatedAt,
		MinDelay:             c.MinDelay,
		MaxDelay:             c.MaxDelay,
		HourlyLimit:          c.HourlyLimit,
		DailyLimit:           c.DailyLimit,
		MinuteLimit:          c.MinuteLimit,
		SMTPHost:             c.SMTPHost,
		SMTPPort:             c.SMTPPort,
		SMTPUser:             c.SMTPUser,
		UsePostal:            c.UsePostal,
		UseSTARTTLS:          c.UseSTARTTLS,
		AttachPDF:            c.AttachPDF,
		ManualAttachmentPath: c.ManualAttachmentPath,
		HasUpload:            c.UploadedAttachmentKey != "",
	}
}

type SendLogResp struct {
	ID             int64     `json:"id"`
	CampaignID     int64     `json:"campaign_id"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	AttachmentName string    `json:"attachment_name"`
	Status         string    `json:"status"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

func ToSendLogs(in []domain.SendLog) []SendLogResp {
	out := make([]SendLogResp, 0, len(in))
	for _, l := range in {
		out = append(out, SendLogResp{
			ID:             l.ID,
			CampaignID:     l.CampaignID,
			Recipient:      l.Recipient,
			Subject:        l.Subject,
			AttachmentName: l.AttachmentName,
			Status:         string(l.Status),
			Message:        l.Message,
			Timestamp:      l.Timestamp,
		})
	}
	return out
}

type CampaignHistoryResp struct {
	Campaign CampaignResp  `json:"campaign"`
	Logs     []SendLogResp `json:"logs"`
}

// DashboardResp: Pie is [running, queued, paused, completed].
type DashboardResp struct {
	Running   int   `json:"running"`
	Scheduled int   `json:"scheduled"`
	Sent      int   `json:"sent"`
	Failed    int   `json:"failed"`
	Pie       []int `json:"pie"`
}

func ToDashboardResp(d domain.Dashboard) DashboardResp {
	return DashboardResp{
		Running:   d.Running + d.Queued,
		Scheduled: d.Scheduled,
		Sent:      d.Sent,
		Failed:    d.Failed,
		Pie:       []int{d.Running, d.Queued, d.Paused, d.Completed},
	}
}
