// Package transport is the lookahead scheduler. A coarse one-shot wake-up
// repeatedly looks ScheduleAhead seconds past the audio clock and commits
// every step that falls inside that window, so sound timing follows the
// audio clock rather than the wake-up cadence.
package transport

import (
	"io"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/satindergrewal/groove/internal/groove"
	"github.com/satindergrewal/groove/internal/tick"
)

const (
	ScheduleAhead  = 0.12 // seconds
	WakeupInterval = 25 * time.Millisecond
	StartLeadIn    = 0.05 // seconds

	MinTempo     = 60
	MaxTempo     = 180
	DefaultTempo = 100
)

// Clock reads the audio clock in seconds. An error means the clock is gone.
type Clock interface {
	Now() (float64, error)
}

// ClockSource acquires the audio clock on first start.
type ClockSource func() (Clock, error)

// Sink receives committed steps.
type Sink interface {
	// Dispatch handles one step. now is the audio time the step was
	// committed at.
	Dispatch(ev Event, now float64)
	// Halt discards anything the sink has pending for future steps.
	Halt()
}

// Transport owns the play-head.
type Transport struct {
	clocks ClockSource
	sink   Sink
	ticks  tick.Source
	log    *zap.Logger

	mu     sync.Mutex
	clock  Clock
	state  State
	timer  tick.Timer
	gen    uint64
	onHalt func(error)
}

// New creates an idle transport on groove g at tempo bpm.
func New(clocks ClockSource, sink Sink, ticks tick.Source, g groove.Definition, bpm float64, log *zap.Logger) *Transport {
	if ticks == nil {
		ticks = tick.Wall{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Transport{
		clocks: clocks,
		sink:   sink,
		ticks:  ticks,
		log:    log,
		state:  State{TempoBPM: ClampTempo(bpm, DefaultTempo), Groove: g},
	}
}

// ClampTempo rounds bpm to the nearest integer in [MinTempo, MaxTempo].
// NaN yields fallback.
func ClampTempo(bpm float64, fallback int) int {
	if math.IsNaN(bpm) {
		return fallback
	}
	r := math.Round(bpm)
	if r < MinTempo {
		return MinTempo
	}
	if r > MaxTempo {
		return MaxTempo
	}
	return int(r)
}

// OnHalt registers fn to run when the transport stops itself because the
// clock failed. fn runs without the transport lock held.
func (t *Transport) OnHalt(fn func(error)) {
	t.mu.Lock()
	t.onHalt = fn
	t.mu.Unlock()
}

// Start begins playback from step 0, StartLeadIn after the current audio
// time. It is a no-op while playing. If the clock cannot be acquired or read
// the transport stays idle.
func (t *Transport) Start() error {
	t.mu.Lock()
	if t.state.Playing {
		t.mu.Unlock()
		return nil
	}
	if t.clock == nil {
		c, err := t.clocks()
		if err != nil {
			t.mu.Unlock()
			return errors.Wrap(err, "acquire audio clock")
		}
		t.clock = c
	}
	now, err := t.clock.Now()
	if err != nil {
		t.releaseClock()
		t.mu.Unlock()
		return errors.Wrap(err, "read audio clock")
	}

	t.state.Playing = true
	t.state.CurrentStep = 0
	t.state.NextEventTime = now + StartLeadIn
	t.gen++
	gen := t.gen
	t.log.Info("transport started",
		zap.Int("bpm", t.state.TempoBPM),
		zap.String("groove", string(t.state.Groove.Name)),
		zap.Float64("first_event", t.state.NextEventTime))
	t.mu.Unlock()

	t.tick(gen)
	return nil
}

// Stop halts scheduling. Steps already committed keep their sounds.
func (t *Transport) Stop() {
	t.mu.Lock()
	if !t.state.Playing {
		t.mu.Unlock()
		return
	}
	t.halt()
	t.mu.Unlock()
	t.log.Info("transport stopped")
}

// halt must be called with mu held.
func (t *Transport) halt() {
	t.state.Playing = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.sink.Halt()
}

// releaseClock drops a failed clock so the next Start acquires a fresh one.
// mu must be held.
func (t *Transport) releaseClock() {
	if c, ok := t.clock.(io.Closer); ok {
		if err := c.Close(); err != nil {
			t.log.Warn("close audio clock", zap.Error(err))
		}
	}
	t.clock = nil
}

// SetTempo clamps and stores bpm and returns the stored value. Steps already
// committed keep their spacing.
func (t *Transport) SetTempo(bpm float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.TempoBPM = ClampTempo(bpm, t.state.TempoBPM)
	return t.state.TempoBPM
}

// SetGroove swaps the active groove from the next committed step on.
func (t *Transport) SetGroove(name groove.Name) error {
	g, err := groove.Lookup(name)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.state.Groove = g
	t.mu.Unlock()
	return nil
}

// State returns a copy of the current state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// tick commits every step inside the window and re-arms itself. gen ties the
// call to one Start so a wake-up that raced Stop cannot resume scheduling.
func (t *Transport) tick(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.state.Playing {
		t.mu.Unlock()
		return
	}

	now, err := t.clock.Now()
	if err != nil {
		t.halt()
		t.releaseClock()
		onHalt := t.onHalt
		t.mu.Unlock()
		err = errors.Wrap(err, "audio clock lost")
		t.log.Error("transport halted", zap.Error(err))
		if onHalt != nil {
			onHalt(err)
		}
		return
	}

	var events []Event
	t.state, events = Advance(t.state, now+ScheduleAhead)
	for _, ev := range events {
		t.sink.Dispatch(ev, now)
	}
	if len(events) > 1 {
		t.log.Debug("catch-up", zap.Int("steps", len(events)))
	}

	t.timer = t.ticks.AfterFunc(WakeupInterval, func() { t.tick(gen) })
	t.mu.Unlock()
}
