package slack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"chatcore/models"
	"chatcore/services/classifier"
)

func newSlackServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.info", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.FormValue("channel") != "C1" {
			_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"channel":{"id":"C1","name":"general","is_channel":true}}`))
	})
	mux.HandleFunc("/users.info", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.FormValue("user") {
		case "U1":
			_, _ = w.Write([]byte(`{"ok":true,"user":{"id":"U1","name":"gopher","real_name":"Go Pher",` +
				`"is_admin":true,"profile":{"display_name":"gophy"}}}`))
		case "U2":
			_, _ = w.Write([]byte(`{"ok":true,"user":{"id":"U2","name":"boss","is_owner":true,"profile":{}}}`))
		default:
			_, _ = w.Write([]byte(`{"ok":false,"error":"user_not_found"}`))
		}
	})
	return httptest.NewServer(mux)
}

func newTestProvider(t *testing.T) *ContactProvider {
	server := newSlackServer(t)
	t.Cleanup(server.Close)
	return NewSlackContactProvider("xoxb-test", slack.OptionAPIURL(server.URL+"/"))
}

func TestContactProvider_FetchChannel(t *testing.T) {
	provider := newTestProvider(t)

	dto, err := provider.FetchChannel(context.Background(), "C1", mo.None[string]())
	require.NoError(t, err)
	assert.Equal(t, "C1", dto.ChannelID)
	assert.Equal(t, mo.Some("general"), dto.Name)

	_, err = provider.FetchChannel(context.Background(), "C404", mo.None[string]())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestContactProvider_FetchMember(t *testing.T) {
	provider := newTestProvider(t)

	dto, err := provider.FetchMember(context.Background(), "C1", "U1", mo.None[string]())
	require.NoError(t, err)
	assert.Equal(t, mo.Some("gophy"), dto.Card)
	assert.Equal(t, mo.Some("Go Pher"), dto.Nickname)
	assert.Equal(t, models.RoleAdmin, dto.Role)

	dto, err = provider.FetchMember(context.Background(), "C1", "U2", mo.None[string]())
	require.NoError(t, err)
	assert.True(t, dto.Card.IsAbsent())
	assert.Equal(t, mo.Some("boss"), dto.Nickname)
	assert.Equal(t, models.RoleOwner, dto.Role)

	_, err = provider.FetchMember(context.Background(), "C1", "U404", mo.None[string]())
	assert.Error(t, err)
}

func TestContactProvider_FetchPrivate(t *testing.T) {
	provider := newTestProvider(t)

	dto, err := provider.FetchPrivate(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "U1", dto.UserID)
	assert.Equal(t, mo.Some("Go Pher"), dto.Nickname)
}

func TestMessageEventToEnvelope(t *testing.T) {
	classify := func(t *testing.T, raw []byte) models.MessageIdentity {
		msgCtx := models.NewMessageContext("run_test", raw, time.Now())
		identity, err := classifier.NewClassifierService().Classify(msgCtx)
		require.NoError(t, err)
		return identity
	}

	t.Run("channel message", func(t *testing.T) {
		raw, ok, err := MessageEventToEnvelope(&slackevents.MessageEvent{
			User:        "U1",
			Text:        "<@UBOT> /ping",
			TimeStamp:   "1700000000.000100",
			Channel:     "C1",
			ChannelType: slackevents.ChannelTypeChannel,
		})
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, int64(1700000000), gjson.GetBytes(raw, "time").Int())
		assert.Equal(t, "1700000000.000100", gjson.GetBytes(raw, "message_id").String())
		assert.Equal(t, models.NewChannelIdentity("C1", mo.None[string]()), classify(t, raw))
	})

	t.Run("direct message", func(t *testing.T) {
		raw, ok, err := MessageEventToEnvelope(&slackevents.MessageEvent{
			User:        "U1",
			Text:        "hi",
			TimeStamp:   "1700000000.000100",
			Channel:     "D1",
			ChannelType: slackevents.ChannelTypeIM,
		})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.NewPrivateIdentity("U1"), classify(t, raw))
	})

	t.Run("bot and edited messages are skipped", func(t *testing.T) {
		_, ok, err := MessageEventToEnvelope(&slackevents.MessageEvent{User: "U1", BotID: "B1"})
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = MessageEventToEnvelope(&slackevents.MessageEvent{User: "U1", SubType: "message_changed"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

}

func TestTsSeconds(t *testing.T) {
	assert.Equal(t, int64(1700000000), tsSeconds("1700000000.000100"))
	assert.Equal(t, int64(1700000000), tsSeconds("1700000000"))
	assert.Equal(t, int64(0), tsSeconds("garbage"))
}
