package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"chatcore/clients"
	slackclient "chatcore/clients/slack"
	"chatcore/core/log"
)

// SlackEventsHandler receives Events API callbacks and feeds message events to the dispatcher
type SlackEventsHandler struct {
	signingSecret string
	sink          clients.RawMessageSink
}

func NewSlackEventsHandler(signingSecret string, sink clients.RawMessageSink) *SlackEventsHandler {
	return &SlackEventsHandler{
		signingSecret: signingSecret,
		sink:          sink,
	}
}

func (h *SlackEventsHandler) SetupEndpoints(router *mux.Router) {
	router.HandleFunc("/slack/events", h.HandleSlackEvent).Methods("POST")
}

func (h *SlackEventsHandler) HandleSlackEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBodyBytes))
	if err != nil {
		log.Error("❌ Failed to read request body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		log.Warn("❌ Slack signature verification failed", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := verifier.Write(body); err != nil {
		http.Error(w, "failed to verify body", http.StatusInternalServerError)
		return
	}
	if err := verifier.Ensure(); err != nil {
		log.Warn("❌ Slack signature verification failed", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		log.Error("❌ Failed to parse Slack event", "error", err)
		http.Error(w, "failed to parse body", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		log.Info("🔐 Slack URL verification challenge received")
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil || challenge.Challenge == "" {
			http.Error(w, "challenge not found", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		if _, err := w.Write([]byte(challenge.Challenge)); err != nil {
			log.Error("❌ Failed to write challenge response", "error", err)
		}
		return

	case slackevents.CallbackEvent:
		h.handleCallbackEvent(event)
	default:
		log.Debug("🔍 Ignoring Slack event", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *SlackEventsHandler) handleCallbackEvent(event slackevents.EventsAPIEvent) {
	message, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		log.Debug("🔍 Ignoring Slack callback event", "type", event.InnerEvent.Type)
		return
	}

	raw, ok, err := slackclient.MessageEventToEnvelope(message)
	if err != nil {
		log.Error("❌ Failed to map Slack message event", "error", err)
		return
	}
	if !ok {
		return
	}
	h.sink.OnRawMessage(raw)
}
