// Package dispatch turns committed steps into voice triggers and a
// visual-sync pulse.
package dispatch

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satindergrewal/groove/internal/groove"
	"github.com/satindergrewal/groove/internal/tick"
	"github.com/satindergrewal/groove/internal/transport"
	"github.com/satindergrewal/groove/internal/voice"
)

// VisualLead is how far ahead of its sound a pulse is delivered, in seconds.
const VisualLead = 0.01

// Pulse tells the visual layer which step is sounding.
type Pulse struct {
	Step   int  `json:"step"`
	Accent bool `json:"accent"`
}

// SyncFunc receives pulses.
type SyncFunc func(Pulse)

// Dispatcher implements transport.Sink.
type Dispatcher struct {
	kit   voice.Kit
	ticks tick.Source
	log   *zap.Logger

	mu    sync.Mutex
	sync  SyncFunc
	epoch uint64
}

// New creates a dispatcher sounding kit and arming pulses on ticks.
func New(kit voice.Kit, ticks tick.Source, log *zap.Logger) *Dispatcher {
	if ticks == nil {
		ticks = tick.Wall{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{kit: kit, ticks: ticks, log: log}
}

// SetSync registers the single pulse subscriber, replacing any previous one.
// nil unregisters.
func (d *Dispatcher) SetSync(fn SyncFunc) {
	d.mu.Lock()
	d.sync = fn
	d.mu.Unlock()
}

// Dispatch sounds every non-rest voice at ev.Time and arms one pulse
// VisualLead before it. Rest steps still pulse.
func (d *Dispatcher) Dispatch(ev transport.Event, now float64) {
	for v, lvl := range ev.Levels {
		if lvl == groove.Rest {
			continue
		}
		d.kit.Trigger(groove.Voice(v), ev.Time, lvl == groove.Accent)
	}

	delay := ev.Time - VisualLead - now
	if delay < 0 {
		delay = 0
	}
	p := Pulse{Step: ev.Step, Accent: ev.Accent}

	d.mu.Lock()
	epoch := d.epoch
	d.mu.Unlock()

	d.ticks.AfterFunc(time.Duration(delay*float64(time.Second)), func() {
		d.mu.Lock()
		fn := d.sync
		live := epoch == d.epoch
		d.mu.Unlock()
		if !live || fn == nil {
			return
		}
		fn(p)
	})
	d.log.Debug("step",
		zap.Int("step", ev.Step),
		zap.Float64("at", ev.Time),
		zap.Bool("accent", ev.Accent))
}

// Halt drops every pulse armed so far.
func (d *Dispatcher) Halt() {
	d.mu.Lock()
	d.epoch++
	d.mu.Unlock()
}
