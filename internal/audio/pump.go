package audio

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pump renders the mixer at real-time rate without a sound device, one 20ms
// frame per tick, and publishes the frames for streaming. While Run is
// active the mixer's render position advances with wall time, so the pump
// serves as the audio clock for headless playback.
type Pump struct {
	mixer   *Mixer
	frameCh chan []int16
	ready   chan struct{}
	log     *zap.Logger

	mu      sync.RWMutex
	running bool
	dropped int
}

// NewPump creates a pump over m.
func NewPump(m *Mixer, log *zap.Logger) *Pump {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pump{
		mixer:   m,
		frameCh: make(chan []int16, 100),
		ready:   make(chan struct{}),
		log:     log,
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Pump) Frames() <-chan []int16 {
	return p.frameCh
}

// Ready is closed once Run has started rendering.
func (p *Pump) Ready() <-chan struct{} {
	return p.ready
}

// Now implements the transport clock.
func (p *Pump) Now() (float64, error) {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	if !running {
		return 0, ErrStopped
	}
	return p.mixer.Now(), nil
}

// Dropped returns how many frames were discarded because nobody was reading.
func (p *Pump) Dropped() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dropped
}

// Run starts the pump. Blocks until ctx is cancelled.
func (p *Pump) Run(ctx context.Context) {
	defer close(p.frameCh)

	p.setRunning(true)
	defer p.setRunning(false)
	close(p.ready)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame := make([]int16, FrameSamples)
		p.mixer.Render(frame)

		// The render position is the clock, so a slow reader must never
		// hold it back.
		select {
		case p.frameCh <- frame:
		default:
			p.mu.Lock()
			p.dropped++
			n := p.dropped
			p.mu.Unlock()
			if n%500 == 1 {
				p.log.Warn("frame reader behind, dropping", zap.Int("dropped", n))
			}
		}
	}
}

func (p *Pump) setRunning(v bool) {
	p.mu.Lock()
	p.running = v
	p.mu.Unlock()
}
