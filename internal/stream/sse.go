package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/satindergrewal/groove/internal/dispatch"
)

// PulseHandler streams sync pulses as server-sent events, one
// `data: {"step":n,"accent":b}` event per step.
type PulseHandler struct {
	pulses *Broadcaster[dispatch.Pulse]
	log    *zap.Logger
}

// NewPulseHandler creates an SSE handler over pulses.
func NewPulseHandler(pulses *Broadcaster[dispatch.Pulse], log *zap.Logger) *PulseHandler {
	return &PulseHandler{pulses: pulses, log: log}
}

func (h *PulseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	listener := h.pulses.Subscribe()
	defer h.pulses.Unsubscribe(listener)
	h.log.Debug("pulse listener connected", zap.Int("listeners", h.pulses.ListenerCount()))

	for {
		select {
		case <-r.Context().Done():
			return
		case <-listener.Done():
			return
		case p := <-listener.C:
			b, err := json.Marshal(p)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: pulse\ndata: %s\n\n", b); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
