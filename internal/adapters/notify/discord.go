package notify

import (
	"context"
	"fmt"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/bwmarrin/discordgo"
)

// MessageSender is the part of *discordgo.Session used to post notices.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts notices to one Discord channel.
type DiscordNotifier struct {
	sender    MessageSender
	channelID string
}

var _ portssvc.Notifier = (*DiscordNotifier)(nil)

// NewDiscordNotifier creates a notifier using a bot token. No gateway connection
// is opened; messages go through the REST API.
func NewDiscordNotifier(botToken, channelID string) (*DiscordNotifier, error) {
	if botToken == "" || channelID == "" {
		return nil, fmt.Errorf("discord bot token and channel ID are required")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return NewDiscordNotifierWithSender(session, channelID), nil
}

// NewDiscordNotifierWithSender creates a notifier around an existing sender.
func NewDiscordNotifierWithSender(sender MessageSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{sender: sender, channelID: channelID}
}

func (n *DiscordNotifier) Name() string { return "discord" }

func (n *DiscordNotifier) Notify(ctx context.Context, notice domain.TransitionNotice) error {
	if _, err := n.sender.ChannelMessageSend(n.channelID, FormatNotice(notice), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post notice to discord: %w", err)
	}
	return nil
}
