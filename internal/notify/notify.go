// Package notify delivers auto-replies as plain-text mail.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/mail"
	"os"

	"github.com/jhillyerd/enmime"
	"golang.org/x/net/html/charset"
)

// addressParser decodes RFC 2047 display names in any charset x/net knows,
// not only the utf-8/iso-8859-1/us-ascii set net/mail handles by default.
var addressParser = &mail.AddressParser{
	WordDecoder: &mime.WordDecoder{CharsetReader: charset.NewReaderLabel},
}

// Reply is a single outbound message. It only lives for one Send call.
type Reply struct {
	To      string // may be in display form, e.g. "Alice <a@x.com>"
	Subject string
	Body    string
}

// Notifier sends a Reply.
type Notifier interface {
	Send(ctx context.Context, r Reply) error
}

// Mailer composes replies with enmime and hands them to a Sender.
type Mailer struct {
	From   string
	Sender enmime.Sender
	Logger *slog.Logger
}

// NewMailer returns a Mailer sending as from.
func NewMailer(from string, sender enmime.Sender, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Mailer{From: from, Sender: sender, Logger: logger}
}

func (m *Mailer) Send(ctx context.Context, r Reply) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	to, err := addressParser.Parse(r.To)
	if err != nil {
		return fmt.Errorf("parse recipient %q: %w", r.To, err)
	}
	from, err := addressParser.Parse(m.From)
	if err != nil {
		return fmt.Errorf("parse sender %q: %w", m.From, err)
	}

	msg := enmime.Builder().
		From(from.Name, from.Address).
		To(to.Name, to.Address).
		Subject(r.Subject).
		Text([]byte(r.Body))
	if err := msg.Send(m.Sender); err != nil {
		return fmt.Errorf("send reply to %s: %w", to.Address, err)
	}
	m.Logger.InfoContext(ctx, "email sent", "to", to.Address, "subject", r.Subject)
	return nil
}

var _ Notifier = (*Mailer)(nil)
