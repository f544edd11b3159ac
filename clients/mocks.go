package clients

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"
)

// MockContactProvider is a mock implementation of ContactProvider
type MockContactProvider struct {
	mock.Mock
}

func (m *MockContactProvider) FetchChannel(
	ctx context.Context,
	channelID string,
	subChannelID mo.Option[string],
) (*ChannelInfoDTO, error) {
	args := m.Called(ctx, channelID, subChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChannelInfoDTO), args.Error(1)
}

func (m *MockContactProvider) FetchMember(
	ctx context.Context,
	channelID, userID string,
	subChannelID mo.Option[string],
) (*MemberInfoDTO, error) {
	args := m.Called(ctx, channelID, userID, subChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MemberInfoDTO), args.Error(1)
}

func (m *MockContactProvider) FetchPrivate(ctx context.Context, userID string) (*PrivateInfoDTO, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PrivateInfoDTO), args.Error(1)
}
