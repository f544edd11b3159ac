package services

import (
	"context"

	"github.com/samber/mo"

	"chatcore/models"
)

// ContactCache defines the interface for resolving channels, members and private correspondents
type ContactCache interface {
	GetOrAddChannel(ctx context.Context, channelID string, subChannelID mo.Option[string]) (*models.ChannelInfo, error)
	GetOrAddMember(
		ctx context.Context,
		channelID, userID string,
		subChannelID mo.Option[string],
	) (*models.MemberInfo, error)
	GetOrAddPrivate(ctx context.Context, userID string) (*models.PrivateInfo, error)
}

// IdentityClassifier defines the interface for classifying a raw inbound payload
type IdentityClassifier interface {
	Classify(msgCtx *models.MessageContext) (models.MessageIdentity, error)
}
