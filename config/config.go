package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"chatcore/core/log"
)

type OneBotConfig struct {
	// WebSocketURL is the forward websocket endpoint of the OneBot implementation
	WebSocketURL string `env:"ONEBOT_WS_URL"`
	AccessToken  string `env:"ONEBOT_ACCESS_TOKEN"`
	// HTTPEnabled mounts POST /onebot/event for implementations that push events over HTTP
	HTTPEnabled   bool          `env:"ONEBOT_HTTP_ENABLED" envDefault:"false"`
	Secret        string        `env:"ONEBOT_SECRET"`
	ActionTimeout time.Duration `env:"ONEBOT_ACTION_TIMEOUT" envDefault:"10s"`
}

// IsConfigured returns true if the websocket endpoint is set. Actions always go over the
// websocket, so the HTTP event endpoint alone is not enough.
func (c OneBotConfig) IsConfigured() bool {
	return c.WebSocketURL != ""
}

type SlackConfig struct {
	BotToken      string `env:"SLACK_BOT_TOKEN"`
	SigningSecret string `env:"SLACK_SIGNING_SECRET"`
}

// IsConfigured returns true if all required Slack configuration is present
func (c SlackConfig) IsConfigured() bool {
	return c.BotToken != "" && c.SigningSecret != ""
}

type DiscordConfig struct {
	BotToken string `env:"DISCORD_BOT_TOKEN"`
}

// IsConfigured returns true if all required Discord configuration is present
func (c DiscordConfig) IsConfigured() bool {
	return c.BotToken != ""
}

type DispatcherConfig struct {
	FanOut            string        `env:"DISPATCH_FAN_OUT" envDefault:"parallel"`
	MemberPolicy      string        `env:"DISPATCH_MEMBER_POLICY" envDefault:"drop"`
	MaxConcurrentRuns int           `env:"DISPATCH_MAX_CONCURRENT_RUNS" envDefault:"0"`
	RunTimeout        time.Duration `env:"DISPATCH_RUN_TIMEOUT" envDefault:"0s"`
}

type AppConfig struct {
	Port          string `env:"PORT" envDefault:"8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"/"`
	// ContactRefreshInterval skips provider lookups for contacts refreshed within it; zero resolves every time
	ContactRefreshInterval time.Duration `env:"CONTACT_REFRESH_INTERVAL" envDefault:"0s"`
	ShutdownTimeout        time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	Dispatcher    DispatcherConfig
	OneBotConfig  OneBotConfig
	SlackConfig   SlackConfig
	DiscordConfig DiscordConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("⚠️ Could not load .env file, continuing with system env vars")
	}

	config := &AppConfig{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	configured := 0
	if config.OneBotConfig.IsConfigured() {
		configured++
		log.Info("✅ OneBot integration configured",
			"websocket", config.OneBotConfig.WebSocketURL != "",
			"http", config.OneBotConfig.HTTPEnabled)
	} else {
		log.Info("⚠️ OneBot integration not configured - OneBot events will be ignored")
	}

	if config.SlackConfig.IsConfigured() {
		configured++
		log.Info("✅ Slack integration configured")
	} else {
		log.Info("⚠️ Slack integration not configured - Slack events will be ignored")
	}

	if config.DiscordConfig.IsConfigured() {
		configured++
		log.Info("✅ Discord integration configured")
	} else {
		log.Info("⚠️ Discord integration not configured - Discord events will be ignored")
	}

	if configured == 0 {
		return nil, fmt.Errorf("no chat integration is configured")
	}
	return config, nil
}

// Validate checks the enumerated and bounded settings
func (c *AppConfig) Validate() error {
	if !slices.Contains([]string{"parallel", "sequential"}, c.Dispatcher.FanOut) {
		return fmt.Errorf("DISPATCH_FAN_OUT must be parallel or sequential, got %q", c.Dispatcher.FanOut)
	}
	if !slices.Contains([]string{"drop", "degrade"}, c.Dispatcher.MemberPolicy) {
		return fmt.Errorf("DISPATCH_MEMBER_POLICY must be drop or degrade, got %q", c.Dispatcher.MemberPolicy)
	}
	if c.Dispatcher.MaxConcurrentRuns < 0 {
		return fmt.Errorf("DISPATCH_MAX_CONCURRENT_RUNS cannot be negative")
	}
	if c.Dispatcher.RunTimeout < 0 || c.ContactRefreshInterval < 0 {
		return fmt.Errorf("durations cannot be negative")
	}
	if c.OneBotConfig.HTTPEnabled && c.OneBotConfig.WebSocketURL == "" {
		return fmt.Errorf("ONEBOT_HTTP_ENABLED requires ONEBOT_WS_URL for contact lookups")
	}
	if c.OneBotConfig.HTTPEnabled && c.OneBotConfig.Secret == "" {
		log.Warn("⚠️ OneBot HTTP endpoint enabled without ONEBOT_SECRET - signatures will not be checked")
	}
	return nil
}
