package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port      int
	AutoStart bool // start playback as soon as the server is up

	// Sequencer
	Tempo  float64 // initial BPM, clamped by the transport
	Groove string  // initial groove name

	// Audio output
	SpeakerBuffer time.Duration // device latency for local playback
	OpusBitrate   int           // WebRTC audio bitrate, bits/s

	// MIDI mirror
	MIDIPort    string // output port name substring, empty disables
	MIDIChannel int    // 1-16

	// Logging
	LogLevel string // debug, info, warn, error
	LogFile  string // empty logs to stderr
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:      envInt("GROOVE_PORT", 8080),
		AutoStart: envBool("GROOVE_AUTOSTART", false),

		Tempo:  envFloat("GROOVE_TEMPO", 100),
		Groove: envStr("GROOVE_PATTERN", "Rai"),

		SpeakerBuffer: time.Duration(envInt("GROOVE_SPEAKER_BUFFER_MS", 40)) * time.Millisecond,
		OpusBitrate:   envInt("GROOVE_OPUS_BITRATE", 128000),

		MIDIPort:    envStr("GROOVE_MIDI_PORT", ""),
		MIDIChannel: clampChannel(envInt("GROOVE_MIDI_CHANNEL", 10)),

		LogLevel: envStr("GROOVE_LOG_LEVEL", "info"),
		LogFile:  envStr("GROOVE_LOG_FILE", ""),
	}
}

func clampChannel(ch int) int {
	if ch < 1 || ch > 16 {
		return 10
	}
	return ch
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
