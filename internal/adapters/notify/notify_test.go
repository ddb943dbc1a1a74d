package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedNotice() domain.TransitionNotice {
	return domain.TransitionNotice{
		RequestID: "r-1",
		Title:     "Roof repair",
		From:      domain.StatusPending,
		To:        domain.StatusActive,
		Amount:    decimal.RequireFromString("1250.5"),
		ActorID:   "u-1",
		ActorName: "Treasurer",
		At:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatNotice(t *testing.T) {
	n := approvedNotice()
	assert.Equal(t, `Approved "Roof repair": 1250.50 posted as expense (by Treasurer)`, FormatNotice(n))

	n.To, n.ActorName = domain.StatusRejected, ""
	assert.Equal(t, `Rejected "Roof repair" (by u-1)`, FormatNotice(n))

	n.From, n.To = domain.StatusDraft, domain.StatusPending
	assert.Contains(t, FormatNotice(n), "New funding request")
}

type fakeSender struct {
	channelID string
	content   string
	err       error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channelID, f.content = channelID, content
	return &discordgo.Message{}, f.err
}

func TestDiscordNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewDiscordNotifierWithSender(sender, "chan-1")

	require.NoError(t, n.Notify(context.Background(), approvedNotice()))
	assert.Equal(t, "chan-1", sender.channelID)
	assert.Contains(t, sender.content, "Roof repair")

	sender.err = errors.New("rate limited")
	assert.Error(t, n.Notify(context.Background(), approvedNotice()))
}

func TestNewDiscordNotifier_RequiresConfig(t *testing.T) {
	_, err := NewDiscordNotifier("", "chan")
	assert.Error(t, err)
}

type fakeEnqueuer struct {
	distinctID string
	event      string
	props      map[string]any
}

func (f *fakeEnqueuer) Enqueue(distinctID string, event string, properties map[string]any) error {
	f.distinctID, f.event, f.props = distinctID, event, properties
	return nil
}

func TestPosthogNotifier(t *testing.T) {
	client := &fakeEnqueuer{}
	require.NoError(t, NewPosthogNotifier(client).Notify(context.Background(), approvedNotice()))

	assert.Equal(t, "u-1", client.distinctID)
	assert.Equal(t, "project_request_transition", client.event)
	assert.Equal(t, "ACTIVE", client.props["to"])
	assert.Equal(t, "1250.50", client.props["amount"])
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "log", n.Name())
	assert.NoError(t, n.Notify(context.Background(), approvedNotice()))
}
