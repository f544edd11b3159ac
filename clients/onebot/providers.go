package onebot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/mo"
	"github.com/tidwall/gjson"

	"chatcore/clients"
	"chatcore/models"
)

// ActionCaller sends one OneBot action and returns its response data.
type ActionCaller interface {
	CallAction(ctx context.Context, action string, params map[string]any) (gjson.Result, error)
}

// Guild role ids used by OneBot guild implementations.
const (
	guildRoleOwner        = "4"
	guildRoleAdmin        = "2"
	guildRoleChannelAdmin = "5"
)

// ContactProvider resolves contacts through OneBot actions. Groups map to channels,
// guilds map to channels with a sub-channel.
type ContactProvider struct {
	caller ActionCaller
}

var _ clients.ContactProvider = (*ContactProvider)(nil)

func NewContactProvider(caller ActionCaller) *ContactProvider {
	return &ContactProvider{caller: caller}
}

func (p *ContactProvider) FetchChannel(
	ctx context.Context,
	channelID string,
	subChannelID mo.Option[string],
) (*clients.ChannelInfoDTO, error) {
	if _, isGuild := subChannelID.Get(); isGuild {
		data, err := p.caller.CallAction(ctx, "get_guild_meta_by_guest", map[string]any{
			"guild_id": channelID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get guild meta: %w", err)
		}
		return &clients.ChannelInfoDTO{
			ChannelID:    channelID,
			SubChannelID: subChannelID,
			Name:         clients.OptionalString(data.Get("guild_name").String()),
		}, nil
	}

	data, err := p.caller.CallAction(ctx, "get_group_info", map[string]any{
		"group_id": idParam(channelID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get group info: %w", err)
	}
	if !data.Get("group_id").Exists() {
		return nil, fmt.Errorf("group %s not found", channelID)
	}
	return &clients.ChannelInfoDTO{
		ChannelID:    channelID,
		SubChannelID: mo.None[string](),
		Name:         clients.OptionalString(data.Get("group_name").String()),
	}, nil
}

func (p *ContactProvider) FetchMember(
	ctx context.Context,
	channelID, userID string,
	subChannelID mo.Option[string],
) (*clients.MemberInfoDTO, error) {
	if _, isGuild := subChannelID.Get(); isGuild {
		data, err := p.caller.CallAction(ctx, "get_guild_member_profile", map[string]any{
			"guild_id": channelID,
			"user_id":  userID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get guild member profile: %w", err)
		}
		return &clients.MemberInfoDTO{
			ChannelID:    channelID,
			UserID:       userID,
			SubChannelID: subChannelID,
			Card:         mo.None[string](),
			Nickname:     clients.OptionalString(data.Get("nickname").String()),
			Role:         guildRole(data.Get("roles")),
		}, nil
	}

	data, err := p.caller.CallAction(ctx, "get_group_member_info", map[string]any{
		"group_id": idParam(channelID),
		"user_id":  idParam(userID),
		"no_cache": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get group member info: %w", err)
	}
	if !data.Get("user_id").Exists() {
		return nil, fmt.Errorf("member %s of group %s not found", userID, channelID)
	}
	return &clients.MemberInfoDTO{
		ChannelID:    channelID,
		UserID:       userID,
		SubChannelID: mo.None[string](),
		Card:         clients.OptionalString(data.Get("card").String()),
		Nickname:     clients.OptionalString(data.Get("nickname").String()),
		Role:         models.ParseMemberRole(data.Get("role").String()),
	}, nil
}

func (p *ContactProvider) FetchPrivate(ctx context.Context, userID string) (*clients.PrivateInfoDTO, error) {
	data, err := p.caller.CallAction(ctx, "get_stranger_info", map[string]any{
		"user_id": idParam(userID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get stranger info: %w", err)
	}
	if !data.Get("user_id").Exists() {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	return &clients.PrivateInfoDTO{
		UserID:   userID,
		Nickname: clients.OptionalString(data.Get("nickname").String()),
		Remark:   clients.OptionalString(data.Get("remark").String()),
	}, nil
}

// guildRole picks the highest privilege among the member's guild roles.
func guildRole(roles gjson.Result) models.MemberRole {
	role := models.RoleMember
	for _, r := range roles.Array() {
		switch r.Get("role_id").String() {
		case guildRoleOwner:
			return models.RoleOwner
		case guildRoleAdmin, guildRoleChannelAdmin:
			role = models.RoleAdmin
		}
	}
	return role
}

// idParam sends numeric ids as numbers, which group actions require.
func idParam(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
