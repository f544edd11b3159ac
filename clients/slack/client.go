package slack

import (
	"context"
	"fmt"

	"github.com/samber/mo"
	"github.com/slack-go/slack"

	"chatcore/clients"
	"chatcore/models"
)

// SlackAPI is the subset of the slack-go client used for contact lookups
type SlackAPI interface {
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

var _ SlackAPI = (*slack.Client)(nil)

// ContactProvider resolves Slack conversations and users. Workspace owners and admins
// map to the owner and admin member roles.
type ContactProvider struct {
	api SlackAPI
}

var _ clients.ContactProvider = (*ContactProvider)(nil)

// NewSlackContactProvider creates a provider backed by a bot token
func NewSlackContactProvider(authToken string, options ...slack.Option) *ContactProvider {
	return NewContactProvider(slack.New(authToken, options...))
}

func NewContactProvider(api SlackAPI) *ContactProvider {
	return &ContactProvider{api: api}
}

func (p *ContactProvider) FetchChannel(
	ctx context.Context,
	channelID string,
	subChannelID mo.Option[string],
) (*clients.ChannelInfoDTO, error) {
	channel, err := p.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation info: %w", err)
	}

	return &clients.ChannelInfoDTO{
		ChannelID:    channelID,
		SubChannelID: subChannelID,
		Name:         clients.OptionalString(channel.Name),
	}, nil
}

func (p *ContactProvider) FetchMember(
	ctx context.Context,
	channelID, userID string,
	subChannelID mo.Option[string],
) (*clients.MemberInfoDTO, error) {
	user, err := p.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	return &clients.MemberInfoDTO{
		ChannelID:    channelID,
		UserID:       userID,
		SubChannelID: subChannelID,
		Card:         clients.OptionalString(user.Profile.DisplayName),
		Nickname:     clients.OptionalString(nickname(user)),
		Role:         workspaceRole(user),
	}, nil
}

func (p *ContactProvider) FetchPrivate(ctx context.Context, userID string) (*clients.PrivateInfoDTO, error) {
	user, err := p.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	return &clients.PrivateInfoDTO{
		UserID:   userID,
		Nickname: clients.OptionalString(nickname(user)),
		Remark:   mo.None[string](),
	}, nil
}

func nickname(user *slack.User) string {
	if user.RealName != "" {
		return user.RealName
	}
	return user.Name
}

func workspaceRole(user *slack.User) models.MemberRole {
	switch {
	case user.IsOwner || user.IsPrimaryOwner:
		return models.RoleOwner
	case user.IsAdmin:
		return models.RoleAdmin
	default:
		return models.RoleMember
	}
}
