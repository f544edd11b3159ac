package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"chatcore/clients"
	"chatcore/core/log"
)

// NewSession creates a bot session shared by the connector and the contact provider.
func NewSession(botToken string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return session, nil
}

// DiscordConnector feeds gateway events into a RawMessageSink as canonical envelopes.
type DiscordConnector struct {
	session *discordgo.Session
	sink    clients.RawMessageSink
}

var _ clients.Connector = (*DiscordConnector)(nil)

func NewDiscordConnector(session *discordgo.Session, sink clients.RawMessageSink) *DiscordConnector {
	connector := &DiscordConnector{
		session: session,
		sink:    sink,
	}

	session.AddHandler(connector.handleReady)
	session.AddHandler(connector.handleMessageCreatedEvent)
	session.AddHandler(connector.handleReactionAddedEvent)

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	return connector
}

// Start opens the Discord gateway connection
func (c *DiscordConnector) Start() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	log.Info("🤖 Discord bot is now running and listening for events")
	return nil
}

// Stop gracefully closes the Discord connection
func (c *DiscordConnector) Stop() {
	if err := c.session.Close(); err != nil {
		log.Warn("⚠️ Failed to close Discord session", "error", err)
	}
}

func (c *DiscordConnector) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	raw, err := ReadyToEnvelope(r, time.Now())
	if err != nil {
		log.Error("❌ Failed to map Discord ready event", "error", err)
		return
	}
	c.sink.OnRawMessage(raw)
}

func (c *DiscordConnector) handleMessageCreatedEvent(s *discordgo.Session, m *discordgo.MessageCreate) {
	if isOwnMessage(s, m.Message) {
		return
	}
	log.Debug("📨 Discord message received", "guild_id", m.GuildID, "channel_id", m.ChannelID)

	raw, err := MessageToEnvelope(m.Message)
	if err != nil {
		log.Error("❌ Failed to map Discord message event", "error", err)
		return
	}
	c.sink.OnRawMessage(raw)
}

func (c *DiscordConnector) handleReactionAddedEvent(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	raw, err := ReactionToEnvelope(r.MessageReaction, time.Now())
	if err != nil {
		log.Error("❌ Failed to map Discord reaction event", "error", err)
		return
	}
	c.sink.OnRawMessage(raw)
}

func isOwnMessage(s *discordgo.Session, m *discordgo.Message) bool {
	if m.Author == nil {
		return true
	}
	return s != nil && s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID
}
