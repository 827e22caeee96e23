package postgres

var schemaSQL = []string{`
CREATE TABLE IF NOT EXISTS campaigns (
  id BIGSERIAL PRIMARY KEY,
  uid VARCHAR(20) NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  sender_name TEXT NOT NULL DEFAULT '',
  sender_email TEXT NOT NULL DEFAULT '',
  reply_to TEXT NOT NULL DEFAULT '',
  subjects_raw TEXT NOT NULL DEFAULT '',
  body_plain TEXT NOT NULL DEFAULT '',
  body_html TEXT NOT NULL DEFAULT '',
  html_template TEXT NOT NULL DEFAULT '',
  pdf_html_template TEXT NOT NULL DEFAULT '',
  min_delay INT NOT NULL DEFAULT 1,
  max_delay INT NOT NULL DEFAULT 5,
  status VARCHAR(20) NOT NULL DEFAULT 'queued',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  hourly_limit INT NOT NULL DEFAULT 100,
  daily_limit INT NOT NULL DEFAULT 1000,
  minute_limit INT NOT NULL DEFAULT 10,
  smtp_host TEXT NOT NULL DEFAULT '',
  smtp_port INT NOT NULL DEFAULT 587,
  smtp_user TEXT NOT NULL DEFAULT '',
  smtp_pass TEXT NOT NULL DEFAULT '',
  use_postal BOOLEAN NOT NULL DEFAULT FALSE,
  use_starttls BOOLEAN NOT NULL DEFAULT FALSE,
  attach_pdf BOOLEAN NOT NULL DEFAULT FALSE,
  manual_attachment_path TEXT NOT NULL DEFAULT '',
  uploaded_attachment_key TEXT NOT NULL DEFAULT '',
  schedule_type VARCHAR(20) NOT NULL DEFAULT 'now',
  schedule_time TIMESTAMPTZ NULL,
  next_send_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, `
CREATE TABLE IF NOT EXISTS recipients (
  id BIGSERIAL PRIMARY KEY,
  campaign_id BIGINT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
  email TEXT NOT NULL,
  sent BOOLEAN NOT NULL DEFAULT FALSE,
  last_error TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_recipients_campaign_sent ON recipients (campaign_id, sent, id)`,
	`
CREATE TABLE IF NOT EXISTS send_logs (
  id BIGSERIAL PRIMARY KEY,
  campaign_id BIGINT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
  recipient TEXT NOT NULL DEFAULT '',
  subject TEXT NOT NULL DEFAULT '',
  attachment_name TEXT NOT NULL DEFAULT '',
  status VARCHAR(20) NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  ts TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_send_logs_campaign_ts ON send_logs (campaign_id, ts DESC)`,
}

const campaignColumns = `
id, uid, name, sender_name, sender_email, reply_to,
subjects_raw, body_plain, body_html, html_template, pdf_html_template,
min_delay, max_delay, status, created_at,
hourly_limit, daily_limit, minute_limit,
smtp_host, smtp_port, smtp_user, smtp_pass, use_postal, use_starttls,
attach_pdf, manual_attachment_path, uploaded_attachment_key,
schedule_type, schedule_time, next_send_time`

const insertCampaignSQL = `
INSERT INTO campaigns (
  uid, name, sender_name, sender_email, reply_to,
  subjects_raw, body_plain, body_html, html_template, pdf_html_template,
  min_delay, max_delay, status, created_at,
  hourly_limit, daily_limit, minute_limit,
  smtp_host, smtp_port, smtp_user, smtp_pass, use_postal, use_starttls,
  attach_pdf, manual_attachment_path, uploaded_attachment_key,
  schedule_type, schedule_time, next_send_time
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29)
RETURNING id
`

const insertRecipientSQL = `INSERT INTO recipients (campaign_id, email) VALUES ($1, $2)`

const getCampaignByUIDSQL = `SELECT ` + campaignColumns + ` FROM campaigns WHERE uid = $1`

const getCampaignByIDSQL = `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

const campaignStatusSQL = `SELECT status FROM campaigns WHERE id = $1`

const listCampaignsSQL = `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at DESC, id DESC`

const listDueCampaignsSQL = `SELECT ` + campaignColumns + `
FROM campaigns
WHERE status IN ('running', 'queued')
   OR (status = 'scheduled' AND next_send_time <= $1)
ORDER BY id ASC`

// compare-and-set on status: $4 is the status the caller read
const updateCampaignStateSQL = `UPDATE campaigns SET status = $2, next_send_time = $3 WHERE id = $1 AND status = $4`

const deleteRecipientsSQL = `DELETE FROM recipients WHERE campaign_id = $1`
const deleteLogsSQL = `DELETE FROM send_logs WHERE campaign_id = $1`
const deleteCampaignSQL = `DELETE FROM campaigns WHERE id = $1`

const countSendsSinceSQL = `SELECT COUNT(*) FROM send_logs WHERE campaign_id = $1 AND ts >= $2`

const nextUnsentRecipientSQL = `
SELECT id, campaign_id, email, sent, last_error
FROM recipients
WHERE campaign_id = $1 AND sent = FALSE
ORDER BY id ASC
LIMIT 1`

const resetRecipientsSQL = `UPDATE recipients SET sent = FALSE, last_error = '' WHERE campaign_id = $1`

const markRecipientSQL = `UPDATE recipients SET sent = TRUE, last_error = $2 WHERE id = $1 AND campaign_id = $3`

const insertSendLogSQL = `
INSERT INTO send_logs (campaign_id, recipient, subject, attachment_name, status, message, ts)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id`

const logColumns = `id, campaign_id, recipient, subject, attachment_name, status, message, ts`

const recentLogsSQL = `SELECT ` + logColumns + ` FROM send_logs ORDER BY ts DESC, id DESC LIMIT $1`

const logsByCampaignSQL = `SELECT ` + logColumns + ` FROM send_logs WHERE campaign_id = $1 ORDER BY ts DESC, id DESC`

const campaignStatusCountsSQL = `SELECT status, COUNT(*) FROM campaigns GROUP BY status`

const sendStatusCountsSQL = `SELECT status, COUNT(*) FROM send_logs GROUP BY status`
