package onebot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"chatcore/clients"
	"chatcore/core/log"
)

var (
	// ErrNotConnected is returned by CallAction while no websocket session is open.
	ErrNotConnected = errors.New("onebot websocket is not connected")
	// ErrConnectionClosed is returned to pending action calls when their session drops.
	ErrConnectionClosed = errors.New("onebot websocket connection closed")
)

var DefaultRetryIntervals = []time.Duration{
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
}

const defaultActionTimeout = 10 * time.Second

type Config struct {
	URL         string
	AccessToken string
	// RetryIntervals are the waits between reconnect attempts after a failed dial.
	// The schedule restarts after every successful connection.
	RetryIntervals []time.Duration
	ActionTimeout  time.Duration
}

// ActionError is a "failed" action response from the OneBot implementation.
type ActionError struct {
	Action  string
	Retcode int64
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("onebot action %s failed with retcode %d: %s", e.Action, e.Retcode, e.Message)
}

type actionResponse struct {
	status  string
	retcode int64
	message string
	data    gjson.Result
}

// OneBotClient is a forward websocket connector. Event frames are handed to the sink,
// action responses are matched to callers by their echo field.
type OneBotClient struct {
	cfg  Config
	sink clients.RawMessageSink

	connMu  sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan actionResponse

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

func NewOneBotClient(cfg Config, sink clients.RawMessageSink) *OneBotClient {
	if cfg.RetryIntervals == nil {
		cfg.RetryIntervals = DefaultRetryIntervals
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &OneBotClient{
		cfg:     cfg,
		sink:    sink,
		pending: make(map[string]chan actionResponse),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start validates the endpoint and runs the connection loop in the background.
func (c *OneBotClient) Start() error {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse onebot url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("onebot url must use ws or wss scheme, got %q", u.Scheme)
	}

	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("onebot connector is already started")
	}

	log.Info("📋 Starting to run onebot connector", "url", u.Redacted())
	go c.run()
	return nil
}

// Stop closes the session, fails pending calls and waits for the connection loop to exit.
func (c *OneBotClient) Stop() {
	c.cancel()
	if !c.started.Load() {
		return
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn != nil {
		c.writeMu.Lock()
		err := conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		if err != nil {
			log.Warn("⚠️ Failed to send close message", "error", err)
		}
		_ = conn.Close()
	}

	<-c.done
	log.Info("📋 Completed successfully - stopped onebot connector")
}

func (c *OneBotClient) run() {
	defer close(c.done)

	for {
		conn := c.connectWithRetry()
		if conn == nil {
			return
		}

		c.connMu.Lock()
		if c.ctx.Err() != nil {
			c.connMu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.connMu.Unlock()
		log.Info("✅ Connected to onebot websocket")

		c.readLoop(conn)

		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		_ = conn.Close()
		c.failPending(ErrConnectionClosed)

		if c.ctx.Err() != nil {
			return
		}
		log.Info("🔄 Connection lost, attempting to reconnect")
	}
}

func (c *OneBotClient) dial() (*websocket.Conn, error) {
	headers := http.Header{}
	if c.cfg.AccessToken != "" {
		headers.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.cfg.URL, headers)
	return conn, err
}

// connectWithRetry returns nil when the client is stopped or every retry failed.
func (c *OneBotClient) connectWithRetry() *websocket.Conn {
	conn, err := c.dial()
	if err == nil {
		return conn
	}
	log.Warn("❌ Initial onebot connection failed", "error", err)

	for attempt, interval := range c.cfg.RetryIntervals {
		log.Info("⏱️ Waiting before retry attempt",
			"interval", interval, "attempt", attempt+1, "max_attempts", len(c.cfg.RetryIntervals))

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
		case <-c.ctx.Done():
			timer.Stop()
			return nil
		}

		conn, err := c.dial()
		if err == nil {
			log.Info("✅ Successfully connected on retry attempt", "attempt", attempt+1)
			return conn
		}
		log.Warn("❌ Retry attempt failed", "attempt", attempt+1, "error", err)
	}

	if c.ctx.Err() == nil {
		log.Error("💀 All onebot retry attempts failed, giving up", "attempts", len(c.cfg.RetryIntervals))
	}
	return nil
}

func (c *OneBotClient) readLoop(conn *websocket.Conn) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Warn("❌ Onebot read error", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if isActionResponse(data) {
			c.resolvePending(data)
			continue
		}
		c.sink.OnRawMessage(data)
	}
}

// isActionResponse reports whether a frame answers an action call rather than carrying an event.
func isActionResponse(data []byte) bool {
	fields := gjson.GetManyBytes(data, "post_type", "echo")
	return !fields[0].Exists() && fields[1].Exists()
}

func (c *OneBotClient) resolvePending(data []byte) {
	fields := gjson.GetManyBytes(data, "echo", "status", "retcode", "message", "wording", "data")
	echo := fields[0].String()

	c.pendingMu.Lock()
	ch, ok := c.pending[echo]
	delete(c.pending, echo)
	c.pendingMu.Unlock()
	if !ok {
		log.Debug("🔍 Dropping action response without a pending call", "echo", echo)
		return
	}

	message := fields[3].String()
	if message == "" {
		message = fields[4].String()
	}
	ch <- actionResponse{
		status:  fields[1].String(),
		retcode: fields[2].Int(),
		message: message,
		data:    fields[5],
	}
}

func (c *OneBotClient) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for echo, ch := range c.pending {
		ch <- actionResponse{status: "failed", retcode: -1, message: err.Error()}
		delete(c.pending, echo)
	}
}

// CallAction sends an action over the open session and waits for its response data.
func (c *OneBotClient) CallAction(ctx context.Context, action string, params map[string]any) (gjson.Result, error) {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return gjson.Result{}, ErrNotConnected
	}

	echo := uuid.New().String()
	// Buffered so the reader never blocks on a caller that gave up.
	ch := make(chan actionResponse, 1)
	c.pendingMu.Lock()
	c.pending[echo] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, echo)
		c.pendingMu.Unlock()
	}()

	request := map[string]any{
		"action": action,
		"params": params,
		"echo":   echo,
	}
	c.writeMu.Lock()
	err := conn.WriteJSON(request)
	c.writeMu.Unlock()
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to send onebot action %s: %w", action, err)
	}

	timer := time.NewTimer(c.cfg.ActionTimeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		if resp.status != "ok" {
			return gjson.Result{}, &ActionError{Action: action, Retcode: resp.retcode, Message: resp.message}
		}
		return resp.data, nil
	case <-timer.C:
		return gjson.Result{}, fmt.Errorf("onebot action %s timed out after %s", action, c.cfg.ActionTimeout)
	case <-ctx.Done():
		return gjson.Result{}, fmt.Errorf("onebot action %s cancelled: %w", action, ctx.Err())
	}
}
