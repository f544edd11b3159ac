package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatcore/core/log"
)

// EndpointSetup is implemented by handlers that register their routes on the shared router
type EndpointSetup interface {
	SetupEndpoints(router *mux.Router)
}

// NewRouter builds the HTTP surface: the health check plus whichever event endpoints are enabled
func NewRouter(endpoints ...EndpointSetup) *mux.Router {
	router := mux.NewRouter()
	for _, endpoint := range endpoints {
		endpoint.SetupEndpoints(router)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Error("❌ Failed to write health check response", "error", err)
		}
	}).Methods("GET")

	return router
}
