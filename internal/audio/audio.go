// Package audio owns the output mix. Its render position is the audio clock
// every scheduled sound is anchored to.
package audio

import (
	"time"

	"github.com/pkg/errors"
)

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

var (
	// ErrStopped is returned by a clock whose render loop is not running.
	ErrStopped = errors.New("audio output not running")
	// ErrClosed is returned by an output that has been closed.
	ErrClosed = errors.New("audio output closed")
)

// Seconds converts a count of frames (samples per channel) to seconds.
func Seconds(frames int64) float64 {
	return float64(frames) / SampleRate
}

// Frames converts seconds to the nearest frame count.
func Frames(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	return int64(seconds*SampleRate + 0.5)
}
