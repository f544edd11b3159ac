package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"chatcore/core/log"
	"chatcore/models"
	"chatcore/services/cmdline"
	"chatcore/utils"
)

const DefaultPrefix = "/"

// CommandHandler runs one recognised command. cmd.Command() always holds the registered name.
type CommandHandler func(ctx context.Context, msgCtx *models.MessageContext, cmd cmdline.Result) error

// CommandsService detects prefixed commands in conversational messages and routes them by name.
// Its Handle method is meant to be subscribed on the dispatcher for private and channel messages.
type CommandsService struct {
	prefix string

	mu       sync.RWMutex
	handlers map[string]CommandHandler
}

func NewCommandsService(prefix string) *CommandsService {
	return &CommandsService{
		prefix:   prefix,
		handlers: make(map[string]CommandHandler),
	}
}

func (s *CommandsService) Prefix() string {
	return s.prefix
}

// Register binds handler to a command name. Names are matched case-sensitively.
func (s *CommandsService) Register(name string, handler CommandHandler) error {
	if name == "" || strings.ContainsFunc(name, isSpace) {
		return fmt.Errorf("invalid command name %q", name)
	}
	if handler == nil {
		return fmt.Errorf("handler for command %s cannot be nil", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handlers[name]; exists {
		return fmt.Errorf("command %s is already registered", name)
	}
	s.handlers[name] = handler
	return nil
}

// Names returns the registered command names in sorted order.
func (s *CommandsService) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Parse detects and tokenizes a command in text. ok is false when text is not a command.
func (s *CommandsService) Parse(text string) (cmdline.Result, bool) {
	detection := utils.DetectCommand(text, s.prefix)
	if !detection.IsCommand {
		return cmdline.Result{}, false
	}

	result := cmdline.Analyze(detection.CommandText)
	if _, ok := result.Command().Get(); !ok {
		return cmdline.Result{}, false
	}
	return result, true
}

// Handle is a dispatcher handler. Non-command and unknown-command messages are ignored.
func (s *CommandsService) Handle(ctx context.Context, msgCtx *models.MessageContext) error {
	if !msgCtx.Category().IsConversational() {
		return nil
	}
	text, ok := msgCtx.Text.Get()
	if !ok {
		return nil
	}

	cmd, ok := s.Parse(text)
	if !ok {
		return nil
	}
	name := cmd.Command().MustGet()

	s.mu.RLock()
	handler, exists := s.handlers[name]
	s.mu.RUnlock()
	if !exists {
		log.Debug("🔍 Ignoring unknown command", "run_id", msgCtx.RunID, "command", name)
		return nil
	}

	if ambiguities := cmd.Ambiguities(); len(ambiguities) > 0 {
		log.Debug("🔍 Command line has ambiguities",
			"run_id", msgCtx.RunID, "command", name, "ambiguities", len(ambiguities))
	}

	log.Info("📋 Starting to run command", "run_id", msgCtx.RunID, "command", name, "sender", msgCtx.SenderID.OrEmpty())
	if err := handler(ctx, msgCtx, cmd); err != nil {
		return fmt.Errorf("failed to run command %s: %w", name, err)
	}
	log.Info("📋 Completed successfully - ran command", "run_id", msgCtx.RunID, "command", name)
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
