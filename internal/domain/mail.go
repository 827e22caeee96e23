package domain

// OutgoingMail is one rendered message for one recipient.
type OutgoingMail struct {
	To          string
	FromName    string
	FromEmail   string
	ReplyTo     string
	Subject     string
	PlainBody   string
	HTMLBody    string
	Attachments []Attachment
}

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}
