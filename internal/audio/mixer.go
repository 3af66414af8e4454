package audio

import (
	"sync"
)

// Mixer sums mono voice buffers into an interleaved stereo stream. Each
// buffer is placed at an absolute frame position, so a sound scheduled for
// audio time t starts on the frame nearest t no matter when Render runs.
type Mixer struct {
	mu     sync.Mutex
	pos    int64 // frames rendered so far
	voices []*scheduled
	mixBuf []float64
}

type scheduled struct {
	start   int64
	samples []float32
}

// NewMixer creates an empty mixer at audio time zero.
func NewMixer() *Mixer {
	return &Mixer{}
}

// Now returns the render position in seconds.
func (m *Mixer) Now() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Seconds(m.pos)
}

// Schedule places samples to start at audio time at. A start time that has
// already been rendered plays from the current position instead.
func (m *Mixer) Schedule(at float64, samples []float32) {
	if len(samples) == 0 {
		return
	}
	start := Frames(at)
	m.mu.Lock()
	if start < m.pos {
		start = m.pos
	}
	m.voices = append(m.voices, &scheduled{start: start, samples: samples})
	m.mu.Unlock()
}

// Active returns the number of scheduled buffers that have not finished.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voices)
}

// Render fills out with the next len(out)/Channels frames and advances the
// render position.
func (m *Mixer) Render(out []int16) {
	frames := len(out) / Channels

	m.mu.Lock()
	defer m.mu.Unlock()

	if cap(m.mixBuf) < frames {
		m.mixBuf = make([]float64, frames)
	}
	mix := m.mixBuf[:frames]
	for i := range mix {
		mix[i] = 0
	}

	end := m.pos + int64(frames)
	live := m.voices[:0]
	for _, v := range m.voices {
		vEnd := v.start + int64(len(v.samples))
		from := max(v.start, m.pos)
		to := min(vEnd, end)
		for f := from; f < to; f++ {
			mix[f-m.pos] += float64(v.samples[f-v.start])
		}
		if vEnd > end {
			live = append(live, v)
		}
	}
	for i := len(live); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = live

	for i, s := range mix {
		c := Clip16(s)
		for ch := 0; ch < Channels; ch++ {
			out[i*Channels+ch] = c
		}
	}
	m.pos = end
}

// Read renders PCM as little-endian int16 so a device player can pull from
// the mixer directly.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / (Channels * 2)
	if frames == 0 {
		return 0, nil
	}
	buf := make([]int16, frames*Channels)
	m.Render(buf)
	putSamples(p, buf)
	return len(buf) * 2, nil
}
