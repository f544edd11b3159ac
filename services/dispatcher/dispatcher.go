package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/samber/mo"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"chatcore/core"
	"chatcore/core/log"
	"chatcore/models"
	"chatcore/services"
)

type FanOutMode string

const (
	FanOutParallel   FanOutMode = "parallel"
	FanOutSequential FanOutMode = "sequential"
)

// MemberPolicy decides what happens to a channel message whose sender cannot be resolved.
type MemberPolicy string

const (
	MemberPolicyDrop    MemberPolicy = "drop"
	MemberPolicyDegrade MemberPolicy = "degrade"
)

type Config struct {
	FanOut       FanOutMode
	MemberPolicy MemberPolicy
	// MaxConcurrentRuns bounds in-flight dispatch runs started by OnRawMessage. Zero means unbounded.
	MaxConcurrentRuns int
	// RunTimeout bounds a single run including handlers. Zero means no deadline.
	RunTimeout time.Duration
}

type Outcome string

const (
	OutcomeDropped    Outcome = "dropped"
	OutcomeDispatched Outcome = "dispatched"
)

// RunResult describes how one dispatch run ended.
type RunResult struct {
	RunID           string
	Outcome         Outcome
	Identity        mo.Option[models.MessageIdentity]
	DropReason      error
	HandlersInvoked int
	// HandlerErrors aggregates every handler failure of the run; use multierr.Errors to split it.
	HandlerErrors error
	Duration      time.Duration
}

// DispatcherService turns raw payloads into handler invocations:
// classify, resolve contacts for private and channel messages, then fan out.
// Nothing it does returns an error to the connector; failures end the run as dropped.
type DispatcherService struct {
	classifier services.IdentityClassifier
	contacts   services.ContactCache
	registry   *Registry
	cfg        Config

	baseCtx    context.Context
	cancel     context.CancelFunc
	pool       *workerpool.WorkerPool
	inFlight   sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
	onComplete atomic.Pointer[func(RunResult)]
}

func NewDispatcherService(
	classifier services.IdentityClassifier,
	contacts services.ContactCache,
	registry *Registry,
	cfg Config,
) *DispatcherService {
	if cfg.FanOut == "" {
		cfg.FanOut = FanOutParallel
	}
	if cfg.MemberPolicy == "" {
		cfg.MemberPolicy = MemberPolicyDrop
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &DispatcherService{
		classifier: classifier,
		contacts:   contacts,
		registry:   registry,
		cfg:        cfg,
		baseCtx:    ctx,
		cancel:     cancel,
	}
	if cfg.MaxConcurrentRuns > 0 {
		d.pool = workerpool.New(cfg.MaxConcurrentRuns)
	}
	return d
}

// SetRunCompleteCallback installs a hook called after every run started by OnRawMessage.
func (d *DispatcherService) SetRunCompleteCallback(callback func(RunResult)) {
	d.onComplete.Store(&callback)
}

// OnRawMessage starts a dispatch run for raw and returns immediately. It is safe to call
// from any connector goroutine.
func (d *DispatcherService) OnRawMessage(raw []byte) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Warn("⚠️ Dispatcher is closed, dropping inbound message", "bytes", len(raw))
		return
	}

	payload := bytes.Clone(raw)
	d.inFlight.Add(1)
	task := func() {
		defer d.inFlight.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("❌ Dispatch run panicked", "panic", r)
			}
		}()

		result := d.Dispatch(d.baseCtx, payload)
		if callback := d.onComplete.Load(); callback != nil && *callback != nil {
			(*callback)(result)
		}
	}

	if d.pool != nil {
		d.pool.Submit(task)
		return
	}
	go task()
}

// Close stops accepting messages and waits for in-flight runs to finish.
func (d *DispatcherService) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	log.Info("📋 Starting to stop dispatcher")
	if d.pool != nil {
		d.pool.StopWait()
	}
	d.inFlight.Wait()
	d.cancel()
	log.Info("📋 Completed successfully - stopped dispatcher")
}

// Dispatch runs one message through classification, resolution and fan-out synchronously.
func (d *DispatcherService) Dispatch(ctx context.Context, raw []byte) RunResult {
	start := time.Now()
	runID := core.NewID("run")
	logger := log.With("run_id", runID)
	result := RunResult{RunID: runID, Identity: mo.None[models.MessageIdentity]()}

	if d.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.RunTimeout)
		defer cancel()
	}

	msgCtx := models.NewMessageContext(runID, raw, start)

	identity, err := d.classifier.Classify(msgCtx)
	if err != nil {
		if identityErr, ok := core.IsUnknownIdentity(err); ok {
			logger.Warn("⚠️ Dropping unclassifiable message",
				"discriminator", identityErr.Discriminator.OrElse("<none>"))
		} else {
			logger.Warn("⚠️ Dropping message, classification failed", "error", err)
		}
		return d.finish(result, OutcomeDropped, err, start)
	}
	result.Identity = mo.Some(identity)
	logger.Debug("🔍 Classified message", "identity", identity.String(), "elapsed", time.Since(start))

	if identity.Category.IsConversational() {
		resolveStart := time.Now()
		if err := d.resolve(ctx, msgCtx, identity, logger); err != nil {
			logger.Warn("⚠️ Dropping message, contact resolution failed",
				"identity", identity.String(), "error", err)
			return d.finish(result, OutcomeDropped, err, start)
		}
		logger.Debug("🔍 Resolved contacts", "identity", identity.String(), "elapsed", time.Since(resolveStart))
	}

	subs := d.registry.Handlers(identity.Category)
	fanOutStart := time.Now()
	result.HandlersInvoked = len(subs)
	result.HandlerErrors = d.fanOut(ctx, msgCtx, subs, logger)
	logger.Debug("📤 Dispatched message",
		"identity", identity.String(),
		"handlers", len(subs),
		"failures", len(multierr.Errors(result.HandlerErrors)),
		"elapsed", time.Since(fanOutStart))

	return d.finish(result, OutcomeDispatched, nil, start)
}

func (d *DispatcherService) finish(result RunResult, outcome Outcome, reason error, start time.Time) RunResult {
	result.Outcome = outcome
	result.DropReason = reason
	result.Duration = time.Since(start)
	return result
}

func (d *DispatcherService) resolve(
	ctx context.Context,
	msgCtx *models.MessageContext,
	identity models.MessageIdentity,
	logger *slog.Logger,
) error {
	switch identity.Category {
	case models.CategoryPrivate:
		private, err := d.contacts.GetOrAddPrivate(ctx, identity.PrimaryID)
		if err != nil {
			return err
		}
		msgCtx.Private = mo.Some(private)
		return nil

	case models.CategoryChannel:
		channel, err := d.contacts.GetOrAddChannel(ctx, identity.PrimaryID, identity.SubID)
		if err != nil {
			return err
		}
		msgCtx.Channel = mo.Some(channel)

		senderID, ok := msgCtx.SenderID.Get()
		if !ok {
			err = fmt.Errorf("channel message has no sender: %w", core.ErrContactNotFound)
		} else {
			var member *models.MemberInfo
			member, err = d.contacts.GetOrAddMember(ctx, identity.PrimaryID, senderID, identity.SubID)
			if err == nil {
				msgCtx.Member = mo.Some(member)
				return nil
			}
		}

		if d.cfg.MemberPolicy == MemberPolicyDegrade {
			logger.Warn("⚠️ Member resolution failed, dispatching without member",
				"identity", identity.String(), "error", err)
			return nil
		}
		return err
	}
	return nil
}

func (d *DispatcherService) fanOut(
	ctx context.Context,
	msgCtx *models.MessageContext,
	subs []Subscription,
	logger *slog.Logger,
) error {
	if d.cfg.FanOut == FanOutSequential {
		var errs error
		for _, sub := range subs {
			errs = multierr.Append(errs, invokeHandler(ctx, sub, msgCtx, logger))
		}
		return errs
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	for _, sub := range subs {
		g.Go(func() error {
			if err := invokeHandler(ctx, sub, msgCtx, logger); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			// Never fail the group: one handler must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func invokeHandler(
	ctx context.Context,
	sub Subscription,
	msgCtx *models.MessageContext,
	logger *slog.Logger,
) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &core.HandlerError{Handler: sub.Name, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			logger.Error("❌ Handler failed", "handler", sub.Name, "category", sub.Category, "error", err)
			return
		}
		logger.Debug("✅ Handler completed", "handler", sub.Name, "elapsed", time.Since(start))
	}()

	if handlerErr := sub.Handler(ctx, msgCtx); handlerErr != nil {
		return &core.HandlerError{Handler: sub.Name, Err: handlerErr}
	}
	return nil
}
