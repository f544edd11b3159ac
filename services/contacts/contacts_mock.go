package contacts

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"chatcore/models"
)

type MockContactsService struct {
	mock.Mock
}

func (m *MockContactsService) GetOrAddChannel(
	ctx context.Context,
	channelID string,
	subChannelID mo.Option[string],
) (*models.ChannelInfo, error) {
	args := m.Called(ctx, channelID, subChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelInfo), args.Error(1)
}

func (m *MockContactsService) GetOrAddMember(
	ctx context.Context,
	channelID, userID string,
	subChannelID mo.Option[string],
) (*models.MemberInfo, error) {
	args := m.Called(ctx, channelID, userID, subChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MemberInfo), args.Error(1)
}

func (m *MockContactsService) GetOrAddPrivate(ctx context.Context, userID string) (*models.PrivateInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PrivateInfo), args.Error(1)
}
