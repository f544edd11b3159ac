package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"chatcore/clients"
	"chatcore/core/log"
)

const maxEventBodyBytes = 1 << 20

// OneBotEventsHandler receives OneBot HTTP POST events and feeds them to the dispatcher
type OneBotEventsHandler struct {
	secret string
	sink   clients.RawMessageSink
}

func NewOneBotEventsHandler(secret string, sink clients.RawMessageSink) *OneBotEventsHandler {
	return &OneBotEventsHandler{
		secret: secret,
		sink:   sink,
	}
}

func (h *OneBotEventsHandler) SetupEndpoints(router *mux.Router) {
	router.HandleFunc("/onebot/event", h.HandleOneBotEvent).Methods("POST")
}

// verifySignature checks the X-Signature header, "sha1=" followed by the hex HMAC-SHA1 of the body
func (h *OneBotEventsHandler) verifySignature(r *http.Request, body []byte) error {
	if h.secret == "" {
		return nil
	}

	signature := r.Header.Get("X-Signature")
	if signature == "" {
		return fmt.Errorf("missing X-Signature header")
	}
	digest, ok := strings.CutPrefix(signature, "sha1=")
	if !ok {
		return fmt.Errorf("unsupported signature format")
	}

	mac := hmac.New(sha1.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(digest)) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}

func (h *OneBotEventsHandler) HandleOneBotEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBodyBytes))
	if err != nil {
		log.Error("❌ Failed to read request body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.verifySignature(r, body); err != nil {
		log.Warn("❌ OneBot signature verification failed", "remote_addr", r.RemoteAddr, "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.sink.OnRawMessage(body)
	w.WriteHeader(http.StatusNoContent)
}
