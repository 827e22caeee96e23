package postgres

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

func (r *Repo) RecentLogs(ctx context.Context, limit int) ([]domain.SendLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return r.queryLogs(ctx, recentLogsSQL, limit)
}

func (r *Repo) LogsByCampaign(ctx context.Context, campaignID int64) ([]domain.SendLog, error) {
	return r.queryLogs(ctx, logsByCampaignSQL, campaignID)
}

func (r *Repo) queryLogs(ctx context.Context, q string, args ...any) ([]domain.SendLog, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.SendLog{}
	for rows.Next() {
		var l domain.SendLog
		var status string
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.Recipient, &l.Subject, &l.AttachmentName, &status, &l.Message, &l.Timestamp); err != nil {
			return nil, err
		}
		l.Status = domain.SendStatus(status)
		l.Timestamp = l.Timestamp.UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}

// Dashboard aggregates campaign counts per status and send log counts per outcome.
func (r *Repo) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	var d domain.Dashboard

	counts, err := r.groupCounts(ctx, campaignStatusCountsSQL)
	if err != nil {
		return d, err
	}
	d.Running = counts[string(domain.StatusRunning)]
	d.Queued = counts[string(domain.StatusQueued)]
	d.Paused = counts[string(domain.StatusPaused)]
	d.Completed = counts[string(domain.StatusCompleted)]
	d.Scheduled = counts[string(domain.StatusScheduled)]

	counts, err = r.groupCounts(ctx, sendStatusCountsSQL)
	if err != nil {
		return d, err
	}
	d.Sent = counts[string(domain.SendSent)]
	d.Failed = counts[string(domain.SendFailed)]
	return d, nil
}

func (r *Repo) groupCounts(ctx context.Context, q string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}
