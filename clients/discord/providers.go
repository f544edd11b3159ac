package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"chatcore/clients"
	"chatcore/models"
)

// DiscordAPI is the subset of the discordgo REST surface used for contact lookups.
// *discordgo.Session satisfies it.
type DiscordAPI interface {
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

var _ DiscordAPI = (*discordgo.Session)(nil)

// ContactProvider resolves guilds, guild members and users through the Discord REST API.
// A channel is a guild; the Discord text channel is its sub-channel.
type ContactProvider struct {
	api DiscordAPI
}

var _ clients.ContactProvider = (*ContactProvider)(nil)

func NewContactProvider(api DiscordAPI) *ContactProvider {
	return &ContactProvider{api: api}
}

func (p *ContactProvider) FetchChannel(
	ctx context.Context,
	channelID string,
	subChannelID mo.Option[string],
) (*clients.ChannelInfoDTO, error) {
	guild, err := p.api.Guild(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild: %w", err)
	}
	if guild == nil {
		return nil, fmt.Errorf("guild not found")
	}

	name := guild.Name
	if sub, ok := subChannelID.Get(); ok {
		channel, err := p.api.Channel(sub, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch channel: %w", err)
		}
		if channel == nil || channel.GuildID != channelID {
			return nil, fmt.Errorf("channel %s not found in guild %s", sub, channelID)
		}
		name = fmt.Sprintf("%s #%s", guild.Name, channel.Name)
	}

	return &clients.ChannelInfoDTO{
		ChannelID:    channelID,
		SubChannelID: subChannelID,
		Name:         clients.OptionalString(name),
	}, nil
}

func (p *ContactProvider) FetchMember(
	ctx context.Context,
	channelID, userID string,
	subChannelID mo.Option[string],
) (*clients.MemberInfoDTO, error) {
	member, err := p.api.GuildMember(channelID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild member: %w", err)
	}
	if member == nil || member.User == nil {
		return nil, fmt.Errorf("member not found")
	}

	guild, err := p.api.Guild(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild: %w", err)
	}

	return &clients.MemberInfoDTO{
		ChannelID:    channelID,
		UserID:       userID,
		SubChannelID: subChannelID,
		Card:         clients.OptionalString(member.Nick),
		Nickname:     clients.OptionalString(displayName(member.User)),
		Role:         memberRole(guild, member),
	}, nil
}

func (p *ContactProvider) FetchPrivate(ctx context.Context, userID string) (*clients.PrivateInfoDTO, error) {
	user, err := p.api.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	return &clients.PrivateInfoDTO{
		UserID:   userID,
		Nickname: clients.OptionalString(displayName(user)),
		Remark:   mo.None[string](),
	}, nil
}

// memberRole maps the guild owner to owner and any administrator role to admin.
func memberRole(guild *discordgo.Guild, member *discordgo.Member) models.MemberRole {
	if guild == nil {
		return models.RoleMember
	}
	if guild.OwnerID == member.User.ID {
		return models.RoleOwner
	}

	adminRoles := make(map[string]bool)
	for _, role := range guild.Roles {
		if role.Permissions&discordgo.PermissionAdministrator != 0 {
			adminRoles[role.ID] = true
		}
	}
	for _, roleID := range member.Roles {
		if adminRoles[roleID] {
			return models.RoleAdmin
		}
	}
	return models.RoleMember
}
