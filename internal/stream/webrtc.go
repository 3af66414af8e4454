package stream

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"go.uber.org/zap"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/groove/internal/audio"
	"github.com/satindergrewal/groove/internal/dispatch"
)

// PulseChannel is the label of the data channel a browser opens to receive
// sync pulses next to the audio track.
const PulseChannel = "pulses"

// WebRTCHandler serves WebRTC SDP negotiation for low-latency Opus streaming.
type WebRTCHandler struct {
	frames  *Broadcaster[[]int16]
	pulses  *Broadcaster[dispatch.Pulse]
	bitrate int
	log     *zap.Logger

	mu    sync.Mutex
	peers []*webrtc.PeerConnection
}

// NewWebRTCHandler creates a WebRTC stream handler. pulses may be nil, in
// which case data channels are ignored.
func NewWebRTCHandler(frames *Broadcaster[[]int16], pulses *Broadcaster[dispatch.Pulse], bitrate int, log *zap.Logger) *WebRTCHandler {
	return &WebRTCHandler{
		frames:  frames,
		pulses:  pulses,
		bitrate: bitrate,
		log:     log,
	}
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}

	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		"groove",
	)
	if err != nil {
		pc.Close()
		http.Error(w, "create audio track failed", http.StatusInternalServerError)
		return
	}

	if _, err := pc.AddTrack(audioTrack); err != nil {
		pc.Close()
		http.Error(w, "add track failed", http.StatusInternalServerError)
		return
	}

	if h.pulses != nil {
		pc.OnDataChannel(h.attachPulses)
	}

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		http.Error(w, "set remote description failed", http.StatusBadRequest)
		return
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		http.Error(w, "create answer failed", http.StatusInternalServerError)
		return
	}

	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		http.Error(w, "set local description failed", http.StatusInternalServerError)
		return
	}

	// Wait for ICE gathering to complete
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	<-gatherComplete

	h.mu.Lock()
	h.peers = append(h.peers, pc)
	h.mu.Unlock()

	h.log.Info("webrtc peer connected", zap.Int("peers", h.PeerCount()))

	// Stream audio in background
	go h.streamToPeer(pc, audioTrack)

	// Clean up on disconnect
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed ||
			s == webrtc.PeerConnectionStateDisconnected {
			h.removePeer(pc)
			pc.Close()
			h.log.Info("webrtc peer disconnected", zap.Int("peers", h.PeerCount()))
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

// attachPulses forwards pulses over a browser-created data channel once it
// opens.
func (h *WebRTCHandler) attachPulses(dc *webrtc.DataChannel) {
	if dc.Label() != PulseChannel {
		return
	}
	dc.OnOpen(func() {
		listener := h.pulses.Subscribe()
		dc.OnClose(func() { h.pulses.Unsubscribe(listener) })
		go func() {
			for {
				select {
				case <-listener.Done():
					return
				case p := <-listener.C:
					b, err := json.Marshal(p)
					if err != nil {
						continue
					}
					if err := dc.SendText(string(b)); err != nil {
						h.pulses.Unsubscribe(listener)
						return
					}
				}
			}
		}()
	})
}

func (h *WebRTCHandler) streamToPeer(pc *webrtc.PeerConnection, track *webrtc.TrackLocalStaticSample) {
	listener := h.frames.Subscribe()
	defer h.frames.Unsubscribe(listener)

	enc, err := opus.NewEncoder(audio.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		h.log.Error("webrtc: opus encoder", zap.Error(err))
		return
	}
	if err := enc.SetBitrate(h.bitrate); err != nil {
		h.log.Warn("webrtc: opus bitrate", zap.Int("bitrate", h.bitrate), zap.Error(err))
	}

	opusBuf := make([]byte, 4000)

	for {
		select {
		case <-listener.Done():
			return
		case frame, ok := <-listener.C:
			if !ok {
				return
			}
			n, err := enc.Encode(frame, opusBuf)
			if err != nil {
				h.log.Warn("webrtc: opus encode", zap.Error(err))
				continue
			}
			if err := track.WriteSample(media.Sample{
				Data:     opusBuf[:n],
				Duration: audio.FrameDuration,
			}); err != nil {
				return
			}
		}
	}
}

func (h *WebRTCHandler) removePeer(pc *webrtc.PeerConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, p := range h.peers {
		if p == pc {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			return
		}
	}
}
