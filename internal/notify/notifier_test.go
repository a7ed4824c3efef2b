package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/predictarb/predictarb/internal/domain"
)

type stubSender struct {
	channel domain.AlertChannel
	err     error
	sent    int
}

func (s *stubSender) Send(_ context.Context, _, _ string) error {
	s.sent++
	return s.err
}

func (s *stubSender) Channel() domain.AlertChannel { return s.channel }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchRoutesByChannel(t *testing.T) {
	email := &stubSender{channel: domain.ChannelEmail}
	tg := &stubSender{channel: domain.ChannelTelegram}
	n := NewNotifier([]Sender{email, tg}, testLogger())

	if err := n.Dispatch(context.Background(), []domain.AlertChannel{domain.ChannelEmail}, "t", "m"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if email.sent != 1 || tg.sent != 0 {
		t.Errorf("sent email=%d telegram=%d, want 1/0", email.sent, tg.sent)
	}
}

func TestDispatchEmptyChannelsMeansAll(t *testing.T) {
	email := &stubSender{channel: domain.ChannelEmail}
	tg := &stubSender{channel: domain.ChannelTelegram}
	n := NewNotifier([]Sender{email, tg}, testLogger())

	if err := n.Dispatch(context.Background(), nil, "t", "m"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if email.sent != 1 || tg.sent != 1 {
		t.Errorf("sent email=%d telegram=%d, want 1/1", email.sent, tg.sent)
	}
}

func TestDispatchIsolatesSenderFailures(t *testing.T) {
	failing := &stubSender{channel: domain.ChannelEmail, err: errors.New("smtp down")}
	tg := &stubSender{channel: domain.ChannelTelegram}
	n := NewNotifier([]Sender{failing, tg}, testLogger())

	err := n.Dispatch(context.Background(), nil, "t", "m")
	if err == nil {
		t.Fatal("expected combined error")
	}
	if tg.sent != 1 {
		t.Error("healthy sender skipped after another sender failed")
	}
}
