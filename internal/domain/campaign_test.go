package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tt, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return tt.UTC()
}

func intp(v int) *int { return &v }

func TestNewCampaign_Defaults(t *testing.T) {
	now := mustTime(t, "2026-03-01T10:00:00Z")

	c, err := NewCampaign("0123456789", NewCampaignInput{
		BodyHTML: "line1\nline2",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "campaign", c.Name)
	assert.Equal(t, "0123456789", c.UID)
	assert.Equal(t, 1, c.MinDelay)
	assert.Equal(t, 5, c.MaxDelay)
	assert.Equal(t, 100, c.HourlyLimit)
	assert.Equal(t, 1000, c.DailyLimit)
	assert.Equal(t, 10, c.MinuteLimit)
	assert.Equal(t, 587, c.SMTPPort)
	assert.Equal(t, ScheduleNow, c.ScheduleType)
	assert.Equal(t, StatusRunning, c.Status)
	assert.Equal(t, now, c.NextSendTime)
	assert.Nil(t, c.ScheduleTime)

	// plain falls back to raw html input, html gets <br>
	assert.Equal(t, "line1\nline2", c.BodyPlain)
	assert.Equal(t, "line1<br>line2", c.BodyHTML)
}

func TestNewCampaign_ExplicitPlainBodyWins(t *testing.T) {
	c, err := NewCampaign("1", NewCampaignInput{BodyPlain: "plain", BodyHTML: "<b>x</b>"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "plain", c.BodyPlain)
	assert.Equal(t, "<b>x</b>", c.BodyHTML)
}

func TestNewCampaign_Schedule(t *testing.T) {
	now := mustTime(t, "2026-03-01T10:00:00Z")
	at := mustTime(t, "2026-03-02T08:30:00Z")

	t.Run("scheduled_when_time_given", func(t *testing.T) {
		c, err := NewCampaign("1", NewCampaignInput{ScheduleType: "daily", ScheduleTime: &at}, now)
		require.NoError(t, err)
		assert.Equal(t, StatusScheduled, c.Status)
		assert.Equal(t, at, c.NextSendTime)
		assert.Equal(t, at, *c.ScheduleTime)
	})

	t.Run("running_when_now_even_with_time", func(t *testing.T) {
		c, err := NewCampaign("1", NewCampaignInput{ScheduleType: "now", ScheduleTime: &at}, now)
		require.NoError(t, err)
		assert.Equal(t, StatusRunning, c.Status)
		assert.Equal(t, now, c.NextSendTime)
	})

	t.Run("running_when_once_without_time", func(t *testing.T) {
		c, err := NewCampaign("1", NewCampaignInput{ScheduleType: "once"}, now)
		require.NoError(t, err)
		assert.Equal(t, StatusRunning, c.Status)
	})

	t.Run("reject_unknown_type", func(t *testing.T) {
		_, err := NewCampaign("1", NewCampaignInput{ScheduleType: "monthly"}, now)
		require.Error(t, err)
		assert.Equal(t, CodeValidation, err.(*AppError).Code)
		assert.Contains(t, err.Error(), "schedule_type")
	})
}

func TestNewCampaign_Numbers(t *testing.T) {
	now := time.Now()

	t.Run("swaps_inverted_delays", func(t *testing.T) {
		c, err := NewCampaign("1", NewCampaignInput{MinDelay: intp(9), MaxDelay: intp(2)}, now)
		require.NoError(t, err)
		assert.Equal(t, 2, c.MinDelay)
		assert.Equal(t, 9, c.MaxDelay)
	})

	t.Run("zero_limits_allowed", func(t *testing.T) {
		c, err := NewCampaign("1", NewCampaignInput{HourlyLimit: intp(0)}, now)
		require.NoError(t, err)
		assert.Equal(t, 0, c.HourlyLimit)
	})

	t.Run("negative_rejected", func(t *testing.T) {
		_, err := NewCampaign("1", NewCampaignInput{DailyLimit: intp(-1)}, now)
		assert.Error(t, err)
		_, err = NewCampaign("1", NewCampaignInput{MinDelay: intp(-1)}, now)
		assert.Error(t, err)
	})
}

func TestCampaign_Subjects(t *testing.T) {
	c := &Campaign{SubjectsRaw: "Hello\r\n\n  \nWorld"}
	assert.Equal(t, []string{"Hello", "World"}, c.Subjects())

	empty := &Campaign{}
	assert.Empty(t, empty.Subjects())
}

func TestCampaign_Provider(t *testing.T) {
	assert.Equal(t, "smtp", (&Campaign{}).Provider())
	assert.Equal(t, "postal", (&Campaign{UsePostal: true}).Provider())
}

func TestCampaign_Due(t *testing.T) {
	now := mustTime(t, "2026-03-01T10:00:00Z")

	assert.True(t, (&Campaign{Status: StatusRunning}).Due(now))
	assert.True(t, (&Campaign{Status: StatusQueued}).Due(now))
	assert.False(t, (&Campaign{Status: StatusPaused}).Due(now))
	assert.False(t, (&Campaign{Status: StatusCompleted}).Due(now))
	assert.True(t, (&Campaign{Status: StatusScheduled, NextSendTime: now}).Due(now))
	assert.False(t, (&Campaign{Status: StatusScheduled, NextSendTime: now.Add(time.Second)}).Due(now))
}

func TestCampaign_Exhausted(t *testing.T) {
	start := mustTime(t, "2026-03-01T10:00:00Z")

	t.Run("once_completes", func(t *testing.T) {
		c := &Campaign{Status: StatusRunning, ScheduleType: ScheduleOnce, NextSendTime: start}
		assert.False(t, c.Exhausted())
		assert.Equal(t, StatusCompleted, c.Status)
	})

	t.Run("daily_rolls_forward", func(t *testing.T) {
		c := &Campaign{Status: StatusScheduled, ScheduleType: ScheduleDaily, NextSendTime: start}
		assert.True(t, c.Exhausted())
		assert.Equal(t, StatusScheduled, c.Status)
		assert.Equal(t, start.Add(24*time.Hour), c.NextSendTime)
	})

	t.Run("weekly_rolls_forward", func(t *testing.T) {
		c := &Campaign{Status: StatusRunning, ScheduleType: ScheduleWeekly, NextSendTime: start}
		assert.True(t, c.Exhausted())
		assert.Equal(t, start.Add(7*24*time.Hour), c.NextSendTime)
	})
}

func TestCampaign_PauseResume(t *testing.T) {
	now := mustTime(t, "2026-03-01T10:00:00Z")

	c := &Campaign{Status: StatusRunning, ScheduleType: ScheduleNow}
	require.NoError(t, c.Pause())
	assert.Equal(t, StatusPaused, c.Status)
	assert.Error(t, c.Pause())

	require.NoError(t, c.Resume(now))
	assert.Equal(t, StatusRunning, c.Status)
	assert.Error(t, c.Resume(now))

	later := &Campaign{Status: StatusPaused, ScheduleType: ScheduleOnce, NextSendTime: now.Add(time.Hour)}
	require.NoError(t, later.Resume(now))
	assert.Equal(t, StatusScheduled, later.Status)

	done := &Campaign{Status: StatusCompleted}
	err := done.Pause()
	require.Error(t, err)
	assert.Equal(t, CodeInvalidState, err.(*AppError).Code)
}

func TestParseRecipients(t *testing.T) {
	got := ParseRecipients(" a@x.com \n\n b@y.com\r\n   \n")
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, got)
	assert.Nil(t, ParseRecipients(""))
}
