package stream

import (
	"context"
	"io"
	"net/http"
	"os/exec"
	"strconv"

	"go.uber.org/zap"

	"github.com/satindergrewal/groove/internal/audio"
)

// HTTPHandler serves a chunked MP3 audio stream via HTTP.
// Each connection spawns an FFmpeg process to encode PCM -> MP3 in real-time.
type HTTPHandler struct {
	frames *Broadcaster[[]int16]
	log    *zap.Logger
}

// NewHTTPHandler creates an HTTP stream handler.
func NewHTTPHandler(frames *Broadcaster[[]int16], log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{frames: frames, log: log}
}

// mp3Args has ffmpeg read raw mixer PCM on stdin and write low-latency MP3
// on stdout.
func mp3Args() []string {
	return []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(audio.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", "192k",
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", mp3Args()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		h.log.Error("mp3 stream: stdin pipe", zap.Error(err))
		http.Error(w, "encoder unavailable", http.StatusInternalServerError)
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		h.log.Error("mp3 stream: stdout pipe", zap.Error(err))
		http.Error(w, "encoder unavailable", http.StatusInternalServerError)
		return
	}
	if err := cmd.Start(); err != nil {
		h.log.Error("mp3 stream: ffmpeg start", zap.Error(err))
		http.Error(w, "encoder unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", "groove")

	listener := h.frames.Subscribe()
	defer h.frames.Unsubscribe(listener)

	h.log.Info("mp3 listener connected", zap.Int("listeners", h.frames.ListenerCount()))
	defer h.log.Info("mp3 listener disconnected")

	// Feed PCM frames to FFmpeg
	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Done():
				return
			case frame, ok := <-listener.C:
				if !ok {
					return
				}
				if _, err := stdin.Write(audio.SamplesToBytes(frame)); err != nil {
					return
				}
			}
		}
	}()

	// Read MP3 from FFmpeg and write to HTTP response
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				h.log.Warn("mp3 stream: ffmpeg read", zap.Error(err))
			}
			break
		}
	}

	cancel()
	cmd.Wait()
}
