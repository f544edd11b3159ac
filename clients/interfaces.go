package clients

import (
	"context"

	"github.com/samber/mo"
)

// ChannelInfoProvider fetches channel metadata from the chat platform
type ChannelInfoProvider interface {
	FetchChannel(ctx context.Context, channelID string, subChannelID mo.Option[string]) (*ChannelInfoDTO, error)
}

// MemberInfoProvider fetches a member's profile inside a channel
type MemberInfoProvider interface {
	FetchMember(
		ctx context.Context,
		channelID, userID string,
		subChannelID mo.Option[string],
	) (*MemberInfoDTO, error)
}

// PrivateInfoProvider fetches the profile of a one-to-one correspondent
type PrivateInfoProvider interface {
	FetchPrivate(ctx context.Context, userID string) (*PrivateInfoDTO, error)
}

// ContactProvider bundles the three lookups; every platform adapter implements it
type ContactProvider interface {
	ChannelInfoProvider
	MemberInfoProvider
	PrivateInfoProvider
}

// RawMessageSink receives raw inbound payloads from a connector
type RawMessageSink interface {
	OnRawMessage(raw []byte)
}

// RawMessageSinkFunc adapts a function to RawMessageSink
type RawMessageSinkFunc func(raw []byte)

func (f RawMessageSinkFunc) OnRawMessage(raw []byte) {
	f(raw)
}

// Connector is a running inbound connection to a chat platform
type Connector interface {
	Start() error
	Stop()
}
