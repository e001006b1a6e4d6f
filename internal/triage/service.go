// internal/triage/service.go
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joshsymonds/chronoreply/internal/gmail"
	"github.com/joshsymonds/chronoreply/internal/notify"
	"github.com/joshsymonds/chronoreply/internal/rate"
)

const (
	UnreadQuery        = "is:unread"
	LabelName          = "Vacation Auto-Replies"
	ReplySubjectPrefix = "Re: "
	DefaultReplyBody   = "Thank you for your email. I am currently on vacation and will respond to your message when I return."

	headerFrom      = "From"
	headerInReplyTo = "In-Reply-To"
)

// ErrNoSender is returned for messages without a From header.
var ErrNoSender = errors.New("message has no From header")

// Summary counts what one pass over the unread list did.
type Summary struct {
	Listed  int
	Replied int
	Labeled int
	Failed  int
}

// Service replies to unread mail and labels the threads it touched.
type Service struct {
	Client   gmail.Client
	Notifier notify.Notifier
	Limiter  rate.Limiter
	Logger   *slog.Logger
	Body     string
}

// NewService constructs a Service with sane defaults.
func NewService(
	client gmail.Client,
	notifier notify.Notifier,
	limiter rate.Limiter,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{
		Client:   client,
		Notifier: notifier,
		Limiter:  limiter,
		Logger:   logger,
		Body:     DefaultReplyBody,
	}
}

// ProcessUnread makes one pass over the current unread messages, in the order
// Gmail returns them. Failures are logged per message and never stop the pass.
func (s *Service) ProcessUnread(ctx context.Context) Summary {
	var sum Summary
	if err := rate.Wait(ctx, s.Limiter); err != nil {
		s.Logger.ErrorContext(ctx, "error listing emails", "error", err)
		return sum
	}
	ids, err := s.Client.ListUnread(ctx, gmail.Query{Raw: UnreadQuery})
	if err != nil {
		s.Logger.ErrorContext(ctx, "error listing emails", "error", err)
		return sum
	}
	sum.Listed = len(ids)
	if len(ids) == 0 {
		s.Logger.InfoContext(ctx, "no new emails")
		return sum
	}

	for _, id := range ids {
		replied, err := s.processMessage(ctx, id)
		if replied {
			sum.Replied++
		}
		if err != nil {
			sum.Failed++
			s.Logger.ErrorContext(ctx, "error processing email", "message", id, "error", err)
			continue
		}
		sum.Labeled++
	}
	s.Logger.InfoContext(ctx, "processed unread",
		"listed", sum.Listed, "replied", sum.Replied, "labeled", sum.Labeled, "failed", sum.Failed)
	return sum
}

// processMessage replies when the message is not itself a reply and then
// labels its thread. A failed reply is logged and still labeled; any other
// failure skips the rest of the message.
func (s *Service) processMessage(ctx context.Context, id gmail.MessageID) (bool, error) {
	if err := rate.Wait(ctx, s.Limiter); err != nil {
		return false, err
	}
	msg, err := s.Client.GetMessage(ctx, id)
	if err != nil {
		return false, fmt.Errorf("fetch message: %w", err)
	}

	replied := false
	// Only the incoming message's own headers are checked, not whether this
	// mailbox already answered the thread.
	if msg.Headers.Count(headerInReplyTo) == 0 {
		from, ok := msg.Headers.Get(headerFrom)
		if !ok {
			return false, ErrNoSender
		}
		reply := notify.Reply{
			To:      from,
			Subject: ReplySubjectPrefix + msg.Subject,
			Body:    s.Body,
		}
		if err := s.Notifier.Send(ctx, reply); err != nil {
			s.Logger.ErrorContext(ctx, "error sending email", "message", id, "to", from, "error", err)
		} else {
			replied = true
		}
	}

	if err := s.EnsureLabelAndApply(ctx, msg.ThreadID); err != nil {
		return replied, fmt.Errorf("label thread %s: %w", msg.ThreadID, err)
	}
	return replied, nil
}

// EnsureLabelAndApply adds the auto-reply label to thread, creating the label
// first when the mailbox does not have it yet. Labels are looked up on every
// call; nothing is cached between passes.
func (s *Service) EnsureLabelAndApply(ctx context.Context, thread gmail.ThreadID) error {
	id, err := s.ensureLabel(ctx)
	if err != nil {
		return err
	}
	if err := rate.Wait(ctx, s.Limiter); err != nil {
		return err
	}
	if err := s.Client.ModifyThreadLabels(ctx, thread, []gmail.LabelID{id}, nil); err != nil {
		return err
	}
	s.Logger.InfoContext(ctx, "email labeled", "thread", thread, "label", LabelName)
	return nil
}

func (s *Service) ensureLabel(ctx context.Context) (gmail.LabelID, error) {
	if err := rate.Wait(ctx, s.Limiter); err != nil {
		return "", err
	}
	labels, err := s.Client.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	for _, l := range labels {
		if l.Name == LabelName {
			return l.ID, nil
		}
	}

	if err := rate.Wait(ctx, s.Limiter); err != nil {
		return "", err
	}
	created, err := s.Client.CreateLabel(ctx, LabelName, gmail.VisibilityShown)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("create label %q: empty id in response", LabelName)
	}
	s.Logger.InfoContext(ctx, "label created", "label", LabelName, "id", created.ID)
	return created.ID, nil
}
