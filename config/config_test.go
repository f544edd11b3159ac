package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/", cfg.CommandPrefix)
	assert.Equal(t, "parallel", cfg.Dispatcher.FanOut)
	assert.Equal(t, "drop", cfg.Dispatcher.MemberPolicy)
	assert.Equal(t, 0, cfg.Dispatcher.MaxConcurrentRuns)
	assert.Equal(t, time.Duration(0), cfg.Dispatcher.RunTimeout)
	assert.Equal(t, 10*time.Second, cfg.OneBotConfig.ActionTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Duration(0), cfg.ContactRefreshInterval)

	assert.True(t, cfg.DiscordConfig.IsConfigured())
	assert.False(t, cfg.SlackConfig.IsConfigured())
	assert.False(t, cfg.OneBotConfig.IsConfigured())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ONEBOT_WS_URL", "ws://127.0.0.1:6700")
	t.Setenv("ONEBOT_ACCESS_TOKEN", "abc")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb")
	t.Setenv("SLACK_SIGNING_SECRET", "secret")
	t.Setenv("DISPATCH_FAN_OUT", "sequential")
	t.Setenv("DISPATCH_MEMBER_POLICY", "degrade")
	t.Setenv("DISPATCH_MAX_CONCURRENT_RUNS", "8")
	t.Setenv("DISPATCH_RUN_TIMEOUT", "30s")
	t.Setenv("CONTACT_REFRESH_INTERVAL", "1h")
	t.Setenv("COMMAND_PREFIX", "!")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.True(t, cfg.OneBotConfig.IsConfigured())
	assert.True(t, cfg.SlackConfig.IsConfigured())
	assert.Equal(t, "sequential", cfg.Dispatcher.FanOut)
	assert.Equal(t, "degrade", cfg.Dispatcher.MemberPolicy)
	assert.Equal(t, 8, cfg.Dispatcher.MaxConcurrentRuns)
	assert.Equal(t, 30*time.Second, cfg.Dispatcher.RunTimeout)
	assert.Equal(t, time.Hour, cfg.ContactRefreshInterval)
	assert.Equal(t, "!", cfg.CommandPrefix)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "no integration", env: map[string]string{}},
		{name: "bad fan out", env: map[string]string{"DISCORD_BOT_TOKEN": "t", "DISPATCH_FAN_OUT": "broadcast"}},
		{name: "bad member policy", env: map[string]string{"DISCORD_BOT_TOKEN": "t", "DISPATCH_MEMBER_POLICY": "keep"}},
		{name: "negative runs", env: map[string]string{"DISCORD_BOT_TOKEN": "t", "DISPATCH_MAX_CONCURRENT_RUNS": "-1"}},
		{name: "http without websocket", env: map[string]string{"DISCORD_BOT_TOKEN": "t", "ONEBOT_HTTP_ENABLED": "true"}},
		{name: "unparsable duration", env: map[string]string{"DISCORD_BOT_TOKEN": "t", "DISPATCH_RUN_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
