// Package notify delivers alert notifications over one or more channels
// (email, Telegram, Discord). Failures are isolated per sender: one channel
// failing never prevents delivery on the others.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/predictarb/predictarb/internal/domain"
)

// Sender is one delivery channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Channel returns the channel this sender serves.
	Channel() domain.AlertChannel
}

// Notifier routes notifications to the senders matching an alert's requested
// channels.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// NewNotifier creates a Notifier over the given senders.
func NewNotifier(senders []Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Channels returns the channels this notifier can deliver on.
func (n *Notifier) Channels() []domain.AlertChannel {
	out := make([]domain.AlertChannel, 0, len(n.senders))
	for _, s := range n.senders {
		out = append(out, s.Channel())
	}
	return out
}

// Dispatch sends the notification on every requested channel. An empty
// channel list means all configured channels. Errors from individual senders
// are collected into one combined error after every sender has been tried.
func (n *Notifier) Dispatch(ctx context.Context, channels []domain.AlertChannel, title, message string) error {
	wanted := make(map[domain.AlertChannel]bool, len(channels))
	for _, c := range channels {
		wanted[c] = true
	}

	var errs []string
	for _, s := range n.senders {
		if len(wanted) > 0 && !wanted[s.Channel()] {
			continue
		}
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("channel", string(s.Channel())),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Channel(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("channel", string(s.Channel())),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
