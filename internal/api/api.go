// Package api exposes the sequencer over JSON HTTP endpoints.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/satindergrewal/groove/internal/groove"
	"github.com/satindergrewal/groove/internal/playback"
)

// Sequencer is the control surface the API drives.
type Sequencer interface {
	Start() error
	Stop()
	SetTempo(bpm float64) int
	SetGroove(name string) error
	State() playback.Snapshot
}

// ListenerFunc reports connected stream listeners by transport.
type ListenerFunc func() map[string]int

// Register mounts the /api routes on mux. listeners may be nil.
func Register(mux *http.ServeMux, seq Sequencer, listeners ListenerFunc, log *zap.Logger) {
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"state": seq.State()}
		if listeners != nil {
			resp["listeners"] = listeners()
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("/api/grooves", func(w http.ResponseWriter, r *http.Request) {
		type entry struct {
			Name  groove.Name   `json:"name"`
			Kick  groove.Ladder `json:"kick"`
			Snare groove.Ladder `json:"snare"`
			Hat   groove.Ladder `json:"hat"`
		}
		var out []entry
		for _, n := range groove.Names() {
			d, _ := groove.Lookup(n)
			out = append(out, entry{Name: n, Kick: d.Kick, Snare: d.Snare, Hat: d.Hat})
		}
		writeJSON(w, out)
	})

	mux.HandleFunc("/api/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := seq.Start(); err != nil {
			log.Warn("api start failed", zap.Error(err))
			http.Error(w, "audio output unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "state": seq.State()})
	})

	mux.HandleFunc("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		seq.Stop()
		writeJSON(w, map[string]any{"ok": true, "state": seq.State()})
	})

	mux.HandleFunc("/api/tempo", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			BPM *float64 `json:"bpm"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BPM == nil {
			http.Error(w, "invalid tempo", http.StatusBadRequest)
			return
		}
		bpm := seq.SetTempo(*req.BPM)
		writeJSON(w, map[string]any{"ok": true, "bpm": bpm})
	})

	mux.HandleFunc("/api/groove", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Groove string `json:"groove"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Groove == "" {
			http.Error(w, "invalid groove", http.StatusBadRequest)
			return
		}
		if err := seq.SetGroove(req.Groove); err != nil {
			var upe *groove.UnknownPatternError
			if errors.As(err, &upe) {
				http.Error(w, "unknown groove", http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "groove": seq.State().Groove})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}
