package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tidwall/sjson"
)

type field struct {
	path  string
	value any
}

func buildEnvelope(fields []field) ([]byte, error) {
	raw := []byte(`{}`)
	for _, f := range fields {
		var err error
		raw, err = sjson.SetBytes(raw, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("failed to set envelope field %s: %w", f.path, err)
		}
	}
	return raw, nil
}

// MessageToEnvelope maps a Discord message into the canonical inbound envelope.
// Direct messages become private messages, guild messages become guild messages
// addressed by guild and channel.
func MessageToEnvelope(m *discordgo.Message) ([]byte, error) {
	if m == nil || m.Author == nil {
		return nil, fmt.Errorf("discord message has no author")
	}

	timestamp := m.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	fields := []field{
		{"post_type", "message"},
		{"user_id", m.Author.ID},
		{"message_id", m.ID},
		{"time", timestamp.Unix()},
		{"raw_message", m.Content},
		{"sender.nickname", displayName(m.Author)},
	}
	if m.GuildID == "" {
		fields = append(fields, field{"message_type", "private"})
		return buildEnvelope(fields)
	}

	fields = append(fields,
		field{"message_type", "guild"},
		field{"guild_id", m.GuildID},
		field{"channel_id", m.ChannelID},
	)
	if m.Member != nil && m.Member.Nick != "" {
		fields = append(fields, field{"sender.card", m.Member.Nick})
	}
	return buildEnvelope(fields)
}

// ReactionToEnvelope maps a reaction into a notice envelope.
func ReactionToEnvelope(r *discordgo.MessageReaction, now time.Time) ([]byte, error) {
	return buildEnvelope([]field{
		{"post_type", "notice"},
		{"notice_type", "reaction_add"},
		{"time", now.Unix()},
		{"user_id", r.UserID},
		{"guild_id", r.GuildID},
		{"channel_id", r.ChannelID},
		{"message_id", r.MessageID},
		{"emoji", r.Emoji.Name},
	})
}

// ReadyToEnvelope maps a gateway ready event into a lifecycle meta event.
func ReadyToEnvelope(r *discordgo.Ready, now time.Time) ([]byte, error) {
	selfID := ""
	if r.User != nil {
		selfID = r.User.ID
	}
	return buildEnvelope([]field{
		{"post_type", "meta_event"},
		{"meta_event_type", "lifecycle"},
		{"sub_type", "connect"},
		{"time", now.Unix()},
		{"self_id", selfID},
	})
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
