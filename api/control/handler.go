// Package control exposes the operator surface: status, manual test pulses
// and pulse configuration. It carries no authentication; it is meant for the
// pit-lane LAN only.
package control

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pitwall/trackrelay/core/logger"
	"github.com/pitwall/trackrelay/core/model"
	"github.com/pitwall/trackrelay/core/relay"
	"github.com/pitwall/trackrelay/core/signal"
)

const recentEvents = 5

// ConfigSaver persists an accepted configuration change.
type ConfigSaver interface {
	Save(cfg signal.PulseConfig) error
}

// Handler serves the control surface.
type Handler struct {
	state    *signal.State
	actuator *relay.Actuator
	saver    ConfigSaver
	log      logger.Logger
}

// New builds the control mux. saver may be nil when persistence is disabled.
func New(state *signal.State, actuator *relay.Actuator, saver ConfigSaver, log logger.Logger) http.Handler {
	h := &Handler{state: state, actuator: actuator, saver: saver, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("POST /api/test/{output}", h.testPulse)
	mux.HandleFunc("POST /api/config", h.updateConfig)
	return mux
}

type windowStatus struct {
	Active           bool    `json:"active"`
	RemainingSeconds float64 `json:"remaining_seconds,omitempty"`
}

type configBody struct {
	PulseDuration *float64 `json:"pulse_duration,omitempty"`
	StartDelay    *float64 `json:"start_delay,omitempty"`
}

type statusResponse struct {
	UptimeSeconds  float64               `json:"uptime_seconds"`
	Outputs        []signal.OutputStatus `json:"outputs"`
	Window         windowStatus          `json:"window"`
	PulseDuration  float64               `json:"pulse_duration"`
	StartDelay     float64               `json:"start_delay"`
	LastEvent      *model.EventRecord    `json:"last_event,omitempty"`
	EventsReceived int                   `json:"events_received"`
	RecentEvents   []model.EventRecord   `json:"recent_events"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	resp := statusResponse{
		UptimeSeconds:  time.Since(snap.StartedAt).Seconds(),
		Outputs:        snap.Outputs,
		Window:         windowStatus{Active: snap.WindowActive},
		PulseDuration:  snap.Config.Duration.Seconds(),
		StartDelay:     snap.Config.StartDelay.Seconds(),
		LastEvent:      snap.LastEvent,
		EventsReceived: snap.EventsReceived,
		RecentEvents:   []model.EventRecord{},
	}
	if snap.WindowActive {
		if remaining := time.Until(snap.Deadline).Seconds(); remaining > 0 {
			resp.Window.RemainingSeconds = remaining
		}
	}
	for i, rec := range snap.Recent {
		if i == recentEvents {
			break
		}
		resp.RecentEvents = append(resp.RecentEvents, rec)
	}
	writeJSON(w, http.StatusOK, resp, h.log)
}

func (h *Handler) testPulse(w http.ResponseWriter, r *http.Request) {
	output := r.PathValue("output")
	if !h.state.HasOutput(output) {
		http.Error(w, "unknown output", http.StatusNotFound)
		return
	}
	cfg := h.state.Config()
	go func() {
		if err := h.actuator.Pulse(context.Background(), output, cfg.Duration, "manual"); err != nil {
			h.log.Errorf("manual pulse %s: %v", output, err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pulsing", "output": output}, h.log)
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	var body configBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	upd := signal.ConfigUpdate{}
	if body.PulseDuration != nil {
		d := time.Duration(*body.PulseDuration * float64(time.Second))
		upd.Duration = &d
	}
	if body.StartDelay != nil {
		d := time.Duration(*body.StartDelay * float64(time.Second))
		upd.StartDelay = &d
	}
	cfg, accepted := h.state.UpdateConfig(upd)
	if accepted && h.saver != nil {
		if err := h.saver.Save(cfg); err != nil {
			h.log.Errorf("config save: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accepted":       accepted,
		"pulse_duration": cfg.Duration.Seconds(),
		"start_delay":    cfg.StartDelay.Seconds(),
	}, h.log)
}

func writeJSON(w http.ResponseWriter, status int, v any, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}
