package dispatch

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/baechuer/real-time-ressys/services/campaign-service/internal/domain"
)

const pdfFilename = "document.pdf"

// compose renders subject, bodies and attachments for one recipient.
// Attachment failures are logged and the mail goes out without them.
func (x *Dispatcher) compose(ctx context.Context, c *domain.Campaign, email string) (domain.OutgoingMail, string) {
	tg := x.d.Tags
	out := domain.OutgoingMail{
		To:        email,
		FromName:  c.SenderName,
		FromEmail: c.SenderEmail,
		ReplyTo:   c.ReplyTo,
		Subject:   tg.Render(tg.Pick(c.Subjects()), email),
		PlainBody: tg.Render(c.BodyPlain, email),
		HTMLBody:  tg.Render(c.BodyHTML, email),
	}

	var names []string

	if c.AttachPDF && c.PDFHTMLTemplate != "" {
		data, err := x.d.PDF.Render(tg.Render(c.PDFHTMLTemplate, email))
		if err != nil {
			x.lg.Error().Err(err).Str("campaign", c.UID).Msg("pdf conversion failed")
		} else {
			name := tg.AttachmentFilename(c.Name, email, pdfFilename)
			out.Attachments = append(out.Attachments, domain.Attachment{Name: name, ContentType: "application/pdf", Data: data})
			names = append(names, name)
		}
	}

	if data, original, err := x.loadFile(ctx, c); err != nil {
		x.lg.Error().Err(err).Str("campaign", c.UID).Msg("failed to read attachment")
	} else if data != nil {
		name := tg.AttachmentFilename(c.Name, email, original)
		out.Attachments = append(out.Attachments, domain.Attachment{Name: name, Data: data})
		names = append(names, name)
	}

	return out, strings.Join(names, ", ")
}

// loadFile prefers the uploaded attachment over the manual path. It returns nil data when neither is set.
func (x *Dispatcher) loadFile(ctx context.Context, c *domain.Campaign) ([]byte, string, error) {
	switch {
	case c.UploadedAttachmentKey != "":
		b, err := x.d.Files.Get(ctx, c.UploadedAttachmentKey)
		return b, path.Base(c.UploadedAttachmentKey), err
	case c.ManualAttachmentPath != "":
		b, err := x.readFile(c.ManualAttachmentPath)
		return b, filepath.Base(c.ManualAttachmentPath), err
	}
	return nil, "", nil
}
