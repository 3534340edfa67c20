// Package ingest exposes the race-timing data interface. SmartRace posts one
// JSON event per request; delivery is fire-and-forget.
package ingest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pitwall/trackrelay/core/logger"
)

const maxBodyBytes = 1 << 20

// EventSink consumes one raw event payload.
type EventSink interface {
	HandlePayload(payload []byte) error
}

// NewHandler returns the ingestion endpoint. Any structurally-valid JSON is
// acknowledged with 200 regardless of classification; parse or processing
// failures answer 500 and never crash the endpoint.
func NewHandler(sink EventSink, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorf("ingest panic: %v", rec)
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			log.Errorf("ingest read: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if err := sink.HandlePayload(body); err != nil {
			log.Errorf("ingest payload: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			log.Errorf("ingest response: %v", err)
		}
	})
}
