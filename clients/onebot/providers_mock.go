package onebot

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tidwall/gjson"
)

// MockActionCaller is a mock implementation of ActionCaller
type MockActionCaller struct {
	mock.Mock
}

func (m *MockActionCaller) CallAction(ctx context.Context, action string, params map[string]any) (gjson.Result, error) {
	args := m.Called(ctx, action, params)
	return args.Get(0).(gjson.Result), args.Error(1)
}
