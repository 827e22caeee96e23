package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	campaignsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_created_total",
			Help: "Total number of campaigns created",
		},
	)

	emailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_email_sent_total",
			Help: "Total number of campaign emails sent successfully",
		},
		[]string{"provider"},
	)

	emailsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_email_failed_total",
			Help: "Total number of failed campaign email sends",
		},
		[]string{"provider"},
	)

	emailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaign_email_send_duration_seconds",
			Help:    "Email sending duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	smtpRetryAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_smtp_retry_attempts_total",
			Help: "Total number of SMTP retry attempts",
		},
	)

	dispatchSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_dispatch_skipped_total",
			Help: "Dispatcher skips by reason",
		},
		[]string{"reason"},
	)

	campaignsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_run_finished_total",
			Help: "Campaign runs that handled every recipient",
		},
		[]string{"schedule"},
	)

	dispatchTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_dispatch_tick_duration_seconds",
			Help:    "Duration of one dispatcher pass over due campaigns",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
	)
)

func RecordCampaignCreated() {
	campaignsCreatedTotal.Inc()
}

// RecordEmailSent records a successfully sent email
func RecordEmailSent(provider string, d time.Duration) {
	emailsSentTotal.WithLabelValues(provider).Inc()
	emailSendDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordEmailFailed records a failed email send
func RecordEmailFailed(provider string, d time.Duration) {
	emailsFailedTotal.WithLabelValues(provider).Inc()
	emailSendDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func RecordSMTPRetry() {
	smtpRetryAttemptsTotal.Inc()
}

// RecordDispatchSkipped counts a campaign passed over by the dispatcher (limit, locked).
func RecordDispatchSkipped(reason string) {
	dispatchSkippedTotal.WithLabelValues(reason).Inc()
}

func RecordRunFinished(schedule string) {
	campaignsCompletedTotal.WithLabelValues(schedule).Inc()
}

func RecordDispatchTick(d time.Duration) {
	dispatchTickDuration.Observe(d.Seconds())
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
