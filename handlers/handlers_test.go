package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type recordingSink struct {
	mu       sync.Mutex
	messages [][]byte
}

func (s *recordingSink) OnRawMessage(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, raw)
}

func (s *recordingSink) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

const oneBotEvent = `{"post_type":"message","message_type":"group","group_id":1,"user_id":2,"raw_message":"hi"}`

func oneBotSignature(secret, body string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestOneBotEventsHandler(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		signature  string
		wantStatus int
		wantEvents int
	}{
		{name: "no secret configured", wantStatus: http.StatusNoContent, wantEvents: 1},
		{
			name:       "valid signature",
			secret:     "s3cret",
			signature:  oneBotSignature("s3cret", oneBotEvent),
			wantStatus: http.StatusNoContent,
			wantEvents: 1,
		},
		{
			name:       "wrong secret",
			secret:     "s3cret",
			signature:  oneBotSignature("other", oneBotEvent),
			wantStatus: http.StatusUnauthorized,
		},
		{name: "missing signature", secret: "s3cret", wantStatus: http.StatusUnauthorized},
		{name: "unknown format", secret: "s3cret", signature: "md5=abc", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			router := NewRouter(NewOneBotEventsHandler(tt.secret, sink))

			req := httptest.NewRequest(http.MethodPost, "/onebot/event", strings.NewReader(oneBotEvent))
			if tt.signature != "" {
				req.Header.Set("X-Signature", tt.signature)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			require.Len(t, sink.received(), tt.wantEvents)
			if tt.wantEvents > 0 {
				assert.JSONEq(t, oneBotEvent, string(sink.received()[0]))
			}
		})
	}
}

func slackRequest(t *testing.T, secret, body string, timestamp time.Time) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(timestamp.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("v0:%s:%s", ts, body)))

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func slackCallback(event string) string {
	return `{"token":"t","team_id":"T1","api_app_id":"A1","type":"event_callback",` +
		`"event_id":"Ev1","event_time":1700000000,"event":` + event + `}`
}

func TestSlackEventsHandler(t *testing.T) {
	const secret = "slack_signing_secret"

	t.Run("url verification", func(t *testing.T) {
		sink := &recordingSink{}
		router := NewRouter(NewSlackEventsHandler(secret, sink))
		body := `{"token":"t","type":"url_verification","challenge":"test_challenge"}`

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, slackRequest(t, secret, body, time.Now()))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "test_challenge", rec.Body.String())
		assert.Empty(t, sink.received())
	})

	t.Run("channel message", func(t *testing.T) {
		sink := &recordingSink{}
		router := NewRouter(NewSlackEventsHandler(secret, sink))
		body := slackCallback(`{"type":"message","channel":"C1","user":"U1","text":"/ping",` +
			`"ts":"1700000000.000100","channel_type":"channel"}`)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, slackRequest(t, secret, body, time.Now()))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, sink.received(), 1)
		raw := sink.received()[0]
		assert.Equal(t, "group", gjson.GetBytes(raw, "message_type").String())
		assert.Equal(t, "C1", gjson.GetBytes(raw, "group_id").String())
		assert.Equal(t, "/ping", gjson.GetBytes(raw, "raw_message").String())
	})

	t.Run("bot message is skipped", func(t *testing.T) {
		sink := &recordingSink{}
		router := NewRouter(NewSlackEventsHandler(secret, sink))
		body := slackCallback(`{"type":"message","channel":"C1","bot_id":"B1","user":"U1","text":"beep",` +
			`"ts":"1700000000.000100","channel_type":"channel"}`)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, slackRequest(t, secret, body, time.Now()))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, sink.received())
	})

	t.Run("invalid signature", func(t *testing.T) {
		sink := &recordingSink{}
		router := NewRouter(NewSlackEventsHandler(secret, sink))
		body := `{"type":"url_verification","challenge":"x"}`

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, slackRequest(t, "wrong_secret", body, time.Now()))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		sink := &recordingSink{}
		router := NewRouter(NewSlackEventsHandler(secret, sink))
		body := `{"type":"url_verification","challenge":"x"}`

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, slackRequest(t, secret, body, time.Now().Add(-10*time.Minute)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing headers", func(t *testing.T) {
		router := NewRouter(NewSlackEventsHandler(secret, &recordingSink{}))
		req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(`{}`))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/onebot/event", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
