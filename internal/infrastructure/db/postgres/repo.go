package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(s rowScanner) (*domain.Campaign, error) {
	var c domain.Campaign
	var status, schedType string
	var schedTime sql.NullTime
	err := s.Scan(
		&c.ID, &c.UID, &c.Name, &c.SenderName, &c.SenderEmail, &c.ReplyTo,
		&c.SubjectsRaw, &c.BodyPlain, &c.BodyHTML, &c.HTMLTemplate, &c.PDFHTMLTemplate,
		&c.MinDelay, &c.MaxDelay, &status, &c.CreatedAt,
		&c.HourlyLimit, &c.DailyLimit, &c.MinuteLimit,
		&c.SMTPHost, &c.SMTPPort, &c.SMTPUser, &c.SMTPPass, &c.UsePostal, &c.UseSTARTTLS,
		&c.AttachPDF, &c.ManualAttachmentPath, &c.UploadedAttachmentKey,
		&schedType, &schedTime, &c.NextSendTime,
	)
	if err != nil {
		return nil, err
	}
	c.Status = domain.CampaignStatus(status)
	if !c.Status.Valid() {
		return nil, domain.ErrInvalidState("invalid status in db")
	}
	c.ScheduleType = domain.ScheduleType(schedType)
	if schedTime.Valid {
		t := schedTime.Time.UTC()
		c.ScheduleTime = &t
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.NextSendTime = c.NextSendTime.UTC()
	return &c, nil
}

// CreateCampaign inserts the campaign and its recipients atomically and sets c.ID.
func (r *Repo) CreateCampaign(ctx context.Context, c *domain.Campaign, emails []string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var schedTime any
		if c.ScheduleTime != nil {
			schedTime = *c.ScheduleTime
		}
		err := tx.QueryRowContext(ctx, insertCampaignSQL,
			c.UID, c.Name, c.SenderName, c.SenderEmail, c.ReplyTo,
			c.SubjectsRaw, c.BodyPlain, c.BodyHTML, c.HTMLTemplate, c.PDFHTMLTemplate,
			c.MinDelay, c.MaxDelay, string(c.Status), c.CreatedAt,
			c.HourlyLimit, c.DailyLimit, c.MinuteLimit,
			c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPass, c.UsePostal, c.UseSTARTTLS,
			c.AttachPDF, c.ManualAttachmentPath, c.UploadedAttachmentKey,
			string(c.ScheduleType), schedTime, c.NextSendTime,
		).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("insert campaign: %w", err)
		}

		for _, e := range emails {
			if _, err := tx.ExecContext(ctx, insertRecipientSQL, c.ID, e); err != nil {
				return fmt.Errorf("insert recipient: %w", err)
			}
		}
		return nil
	})
}

func (r *Repo) GetByUID(ctx context.Context, uid string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, getCampaignByUIDSQL, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("campaign not found")
	}
	return c, err
}

func (r *Repo) List(ctx context.Context) ([]*domain.Campaign, error) {
	return r.queryCampaigns(ctx, listCampaignsSQL)
}

// ListDue returns running/queued campaigns and scheduled ones whose next send time has passed.
func (r *Repo) ListDue(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	return r.queryCampaigns(ctx, listDueCampaignsSQL, now.UTC())
}

func (r *Repo) queryCampaigns(ctx context.Context, q string, args ...any) ([]*domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the campaign with its recipients and send logs.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{deleteRecipientsSQL, deleteLogsSQL, deleteCampaignSQL} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID returns nil, nil when the campaign no longer exists.
func (r *Repo) GetByID(ctx context.Context, id int64) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx, getCampaignByIDSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// UpdateState persists status and next send time if the row still has status from.
func (r *Repo) UpdateState(ctx context.Context, c *domain.Campaign, from domain.CampaignStatus) error {
	return casState(ctx, r.db, c, from)
}

// Advance persists the state after a run finished, resetting recipients for the next run when asked.
// Nothing is written when the row's status is no longer from.
func (r *Repo) Advance(ctx context.Context, c *domain.Campaign, from domain.CampaignStatus, resetRecipients bool) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := casState(ctx, tx, c, from); err != nil {
			return err
		}
		if resetRecipients {
			if _, err := tx.ExecContext(ctx, resetRecipientsSQL, c.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func casState(ctx context.Context, q execQueryer, c *domain.Campaign, from domain.CampaignStatus) error {
	res, err := q.ExecContext(ctx, updateCampaignStateSQL, c.ID, string(c.Status), c.NextSendTime, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var current string
	err = q.QueryRowContext(ctx, campaignStatusSQL, c.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound("campaign not found")
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("status is %s, expected %s: %w", current, from, domain.ErrCampaignChanged)
}

func (r *Repo) CountSendsSince(ctx context.Context, campaignID int64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countSendsSinceSQL, campaignID, since.UTC()).Scan(&n)
	return n, err
}

// NextUnsentRecipient returns nil, nil when every recipient has been handled.
func (r *Repo) NextUnsentRecipient(ctx context.Context, campaignID int64) (*domain.Recipient, error) {
	var rc domain.Recipient
	err := r.db.QueryRowContext(ctx, nextUnsentRecipientSQL, campaignID).
		Scan(&rc.ID, &rc.CampaignID, &rc.Email, &rc.Sent, &rc.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// RecordSend marks the recipient handled and stores the log in one transaction.
// A failed attempt still marks the recipient so the campaign moves on.
// When the recipient is gone (campaign deleted) nothing is written.
func (r *Repo) RecordSend(ctx context.Context, l *domain.SendLog, recipientID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		lastErr := ""
		if l.Status == domain.SendFailed {
			lastErr = l.Message
		}
		res, err := tx.ExecContext(ctx, markRecipientSQL, recipientID, lastErr, l.CampaignID)
		if err != nil {
			return fmt.Errorf("mark recipient: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound("recipient not found")
		}

		err = tx.QueryRowContext(ctx, insertSendLogSQL,
			l.CampaignID, l.Recipient, l.Subject, l.AttachmentName, string(l.Status), l.Message, l.Timestamp.UTC(),
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert send log: %w", err)
		}
		return nil
	})
}
