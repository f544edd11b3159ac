package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatcore/clients"
	discordclient "chatcore/clients/discord"
	"chatcore/clients/onebot"
	slackclient "chatcore/clients/slack"
	"chatcore/config"
	"chatcore/core/log"
	"chatcore/handlers"
	"chatcore/models"
	"chatcore/services/classifier"
	"chatcore/services/cmdline"
	"chatcore/services/commands"
	"chatcore/services/contacts"
	"chatcore/services/dispatcher"
)

func main() {
	if err := run(); err != nil {
		log.Error("❌ Fatal error", "error", err)
		os.Exit(1)
	}
}

// app holds everything that must be stopped on shutdown, in start order
type app struct {
	connectors  []clients.Connector
	dispatchers []*dispatcher.DispatcherService
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log.SetLevel(log.ParseLevel(cfg.LogLevel))

	registry := dispatcher.NewRegistry()
	commandsService := commands.NewCommandsService(cfg.CommandPrefix)
	if err := registerCommands(commandsService); err != nil {
		return err
	}
	if err := registry.SubscribeAll("commands", commandsService.Handle,
		models.CategoryPrivate, models.CategoryChannel); err != nil {
		return err
	}
	if err := registry.SubscribeAll("event-log", logEvent, models.CategoryNotice, models.CategoryMeta); err != nil {
		return err
	}

	dispatcherConfig := dispatcher.Config{
		FanOut:            dispatcher.FanOutMode(cfg.Dispatcher.FanOut),
		MemberPolicy:      dispatcher.MemberPolicy(cfg.Dispatcher.MemberPolicy),
		MaxConcurrentRuns: cfg.Dispatcher.MaxConcurrentRuns,
		RunTimeout:        cfg.Dispatcher.RunTimeout,
	}
	// Each platform gets its own contact directory since ids are only unique per platform.
	newPipeline := func(provider clients.ContactProvider) *dispatcher.DispatcherService {
		return dispatcher.NewDispatcherService(
			classifier.NewClassifierService(),
			contacts.NewContactsService(provider, cfg.ContactRefreshInterval),
			registry,
			dispatcherConfig,
		)
	}

	application := &app{}
	var endpoints []handlers.EndpointSetup

	if cfg.OneBotConfig.IsConfigured() {
		var oneBotDispatcher *dispatcher.DispatcherService
		oneBotClient := onebot.NewOneBotClient(onebot.Config{
			URL:           cfg.OneBotConfig.WebSocketURL,
			AccessToken:   cfg.OneBotConfig.AccessToken,
			ActionTimeout: cfg.OneBotConfig.ActionTimeout,
		}, clients.RawMessageSinkFunc(func(raw []byte) {
			oneBotDispatcher.OnRawMessage(raw)
		}))
		oneBotDispatcher = newPipeline(onebot.NewContactProvider(oneBotClient))
		application.dispatchers = append(application.dispatchers, oneBotDispatcher)
		application.connectors = append(application.connectors, oneBotClient)

		if cfg.OneBotConfig.HTTPEnabled {
			endpoints = append(endpoints, handlers.NewOneBotEventsHandler(cfg.OneBotConfig.Secret, oneBotDispatcher))
		}
	}

	if cfg.SlackConfig.IsConfigured() {
		slackDispatcher := newPipeline(slackclient.NewSlackContactProvider(cfg.SlackConfig.BotToken))
		application.dispatchers = append(application.dispatchers, slackDispatcher)
		endpoints = append(endpoints, handlers.NewSlackEventsHandler(cfg.SlackConfig.SigningSecret, slackDispatcher))
	}

	if cfg.DiscordConfig.IsConfigured() {
		session, err := discordclient.NewSession(cfg.DiscordConfig.BotToken)
		if err != nil {
			return err
		}
		discordDispatcher := newPipeline(discordclient.NewContactProvider(session))
		application.dispatchers = append(application.dispatchers, discordDispatcher)
		application.connectors = append(application.connectors, discordclient.NewDiscordConnector(session, discordDispatcher))
	}

	for _, connector := range application.connectors {
		if err := connector.Start(); err != nil {
			application.stop()
			return err
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(endpoints...),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server, application, cfg.ShutdownTimeout)
}

func (a *app) stop() {
	for i := len(a.connectors) - 1; i >= 0; i-- {
		a.connectors[i].Stop()
	}
	for _, d := range a.dispatchers {
		d.Close()
	}
}

func registerCommands(service *commands.CommandsService) error {
	if err := service.Register("ping", func(_ context.Context, msgCtx *models.MessageContext, _ cmdline.Result) error {
		log.Info("🏓 pong", "run_id", msgCtx.RunID, "sender", msgCtx.SenderID.OrEmpty())
		return nil
	}); err != nil {
		return err
	}

	return service.Register("whoami", func(_ context.Context, msgCtx *models.MessageContext, cmd cmdline.Result) error {
		identity := msgCtx.Identity().MustGet()
		name := msgCtx.SenderID.OrEmpty()
		role := models.RoleMember
		if member, ok := msgCtx.Member.Get(); ok {
			name = member.DisplayName()
			role = member.Role
		}
		if private, ok := msgCtx.Private.Get(); ok {
			name = private.Nickname().OrElse(name)
		}
		log.Info("🪪 whoami",
			"run_id", msgCtx.RunID,
			"identity", identity.String(),
			"name", name,
			"role", role,
			"verbose", cmd.HasOption("v"))
		return nil
	})
}

func logEvent(_ context.Context, msgCtx *models.MessageContext) error {
	detail := msgCtx.Parsed.Get("notice_type").String()
	if msgCtx.Category() == models.CategoryMeta {
		detail = msgCtx.Parsed.Get("meta_event_type").String()
	}
	log.Debug("📨 Event received",
		"run_id", msgCtx.RunID,
		"category", msgCtx.Category(),
		"post_type", msgCtx.Parsed.Get("post_type").String(),
		"detail", detail)
	return nil
}

func handleGracefulShutdown(server *http.Server, application *app, timeout time.Duration) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("✅ Listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
		log.Info("🛑 Shutdown signal received, cleaning up...")
	case err := <-serverErr:
		log.Error("❌ Server error", "error", err)
		application.stop()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop intake first, then drain in-flight runs
	shutdownErr := server.Shutdown(ctx)
	if shutdownErr != nil {
		log.Error("❌ Server shutdown error", "error", shutdownErr)
	}
	application.stop()

	if shutdownErr != nil {
		return shutdownErr
	}
	log.Info("✅ Server stopped gracefully")
	return nil
}
