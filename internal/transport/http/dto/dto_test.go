package dto

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

func TestCreateCampaignReq_DecodesFlexibleTypes(t *testing.T) {
	body := `{
		"name": "Spring",
		"recipients": "a@x.io\nb@x.io",
		"sender_email": "shop@example.com",
		"min_delay": "3",
		"max_delay": 7,
		"hourly_limit": "",
		"daily_limit": null,
		"smtp_port": "2525",
		"use_postal": "on",
		"use_starttls": true,
		"attach_pdf": 1
	}`

	var req CreateCampaignReq
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, OptInt{Set: true, Int: 3}, req.MinDelay)
	assert.Equal(t, OptInt{Set: true, Int: 7}, req.MaxDelay)
	assert.False(t, req.HourlyLimit.Set)
	assert.False(t, req.DailyLimit.Set)
	assert.Equal(t, 2525, req.SMTPPort.Int)
	assert.True(t, bool(req.UsePostal))
	assert.True(t, bool(req.UseSTARTTLS))
	assert.True(t, bool(req.AttachPDF))
}

func TestCreateCampaignReq_RejectsGarbageInt(t *testing.T) {
	var req CreateCampaignReq
	err := json.Unmarshal([]byte(`{"min_delay":"soon"}`), &req)
	assert.Error(t, err)
}

func TestCreateCampaignReq_ToInput(t *testing.T) {
	req := CreateCampaignReq{
		Name:         "Spring",
		SenderEmail:  " shop@example.com ",
		MinDelay:     OptInt{Set: true, Int: 2},
		ScheduleType: "Daily",
		ScheduleTime: "2024-06-01T08:30",
	}

	in, err := req.ToInput()
	require.NoError(t, err)

	assert.Equal(t, "shop@example.com", in.SenderEmail)
	assert.Equal(t, "daily", in.ScheduleType)
	require.NotNil(t, in.MinDelay)
	assert.Equal(t, 2, *in.MinDelay)
	assert.Nil(t, in.MaxDelay)
	require.NotNil(t, in.ScheduleTime)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), *in.ScheduleTime)
}

func TestCreateCampaignReq_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateCampaignReq
		field string
	}{
		{"bad_sender_email", CreateCampaignReq{SenderEmail: "not-an-email"}, "sender_email"},
		{"bad_reply_to", CreateCampaignReq{ReplyTo: "nope"}, "reply_to"},
		{"negative_delay", CreateCampaignReq{MinDelay: OptInt{Set: true, Int: -1}}, "min_delay"},
		{"negative_limit", CreateCampaignReq{DailyLimit: OptInt{Set: true, Int: -5}}, "daily_limit"},
		{"port_zero", CreateCampaignReq{SMTPPort: OptInt{Set: true, Int: 0}}, "smtp_port"},
		{"port_too_big", CreateCampaignReq{SMTPPort: OptInt{Set: true, Int: 70000}}, "smtp_port"},
		{"bad_schedule", CreateCampaignReq{ScheduleType: "hourly"}, "schedule_type"},
		{"bad_schedule_time", CreateCampaignReq{ScheduleTime: "tomorrow"}, "schedule_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToInput()
			require.Error(t, err)

			var ae *domain.AppError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, domain.CodeValidation, ae.Code)
			assert.Contains(t, ae.Meta, tt.field)
		})
	}
}

func TestCreateCampaignReq_ValidationMessages(t *testing.T) {
	req := CreateCampaignReq{
		SenderEmail:  "nope",
		SMTPPort:     OptInt{Set: true, Int: 70000},
		MinuteLimit:  OptInt{Set: true, Int: -1},
		ScheduleType: "hourly",
	}

	err := req.Validate()
	require.Error(t, err)

	var ae *domain.AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "invalid campaign", ae.Message)
	assert.Equal(t, map[string]string{
		"sender_email":  "must be a valid email address",
		"smtp_port":     "must be no greater than 65535",
		"minute_limit":  "must be no less than 0",
		"schedule_type": "must be one of: now, once, daily, weekly",
	}, ae.Meta)
}

func TestCreateCampaignReq_SetZeroLimitsAreValid(t *testing.T) {
	req := CreateCampaignReq{
		MinDelay:    OptInt{Set: true, Int: 0},
		HourlyLimit: OptInt{Set: true, Int: 0},
		DailyLimit:  OptInt{Set: true, Int: 0},
	}
	assert.NoError(t, req.Validate())
}

func TestCreateCampaignReq_EmptyOptionalsAreValid(t *testing.T) {
	_, err := CreateCampaignReq{}.ToInput()
	assert.NoError(t, err)
}

func TestCreateCampaignReqFromForm(t *testing.T) {
	v := url.Values{}
	v.Set("name", "Form")
	v.Set("recipients", "a@x.io")
	v.Set("hourly_limit", "0")
	v.Set("smtp_port", "465")
	v.Set("attach_pdf", "on")
	v.Set("use_postal", "")

	req, err := CreateCampaignReqFromForm(v)
	require.NoError(t, err)
	assert.Equal(t, "Form", req.Name)
	assert.Equal(t, OptInt{Set: true, Int: 0}, req.HourlyLimit)
	assert.Equal(t, 465, req.SMTPPort.Int)
	assert.True(t, bool(req.AttachPDF))
	assert.False(t, bool(req.UsePostal))

	v.Set("max_delay", "x")
	_, err = CreateCampaignReqFromForm(v)
	assert.Error(t, err)
}

func TestCreateCampaignReqFromForm_PostalFlag(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   bool
	}{
		{"use_postal", map[string]string{"use_postal": "on"}, true},
		{"postal_api", map[string]string{"postal_api": "1"}, true},
		{"both_off", map[string]string{"use_postal": "", "postal_api": "off"}, false},
		{"absent", map[string]string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := url.Values{}
			for k, val := range tt.fields {
				v.Set(k, val)
			}
			req, err := CreateCampaignReqFromForm(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, bool(req.UsePostal))
		})
	}
}

func TestToCampaignResp_OmitsPassword(t *testing.T) {
	c := &domain.Campaign{UID: "1", SMTPPass: "hunter2", UploadedAttachmentKey: "uploads/1/a.pdf"}
	b, err := json.Marshal(ToCampaignResp(c))
	require.NoError(t, err)

	assert.NotContains(t, string(b), "hunter2")
	assert.Contains(t, string(b), `"has_upload":true`)
}

func TestToDashboardResp(t *testing.T) {
	d := ToDashboardResp(domain.Dashboard{Running: 2, Queued: 1, Paused: 3, Completed: 4, Scheduled: 5, Sent: 10, Failed: 1})
	assert.Equal(t, 3, d.Running)
	assert.Equal(t, []int{2, 1, 3, 4}, d.Pie)
	assert.Equal(t, 10, d.Sent)
}
