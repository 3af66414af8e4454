// Package playback is the public face of the sequencer: start, stop, tempo,
// groove, state and the visual-sync subscription.
package playback

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/satindergrewal/groove/internal/dispatch"
	"github.com/satindergrewal/groove/internal/groove"
	"github.com/satindergrewal/groove/internal/tick"
	"github.com/satindergrewal/groove/internal/transport"
	"github.com/satindergrewal/groove/internal/voice"
)

// Snapshot is a point-in-time view of the sequencer. CurrentStep is the next
// step to be scheduled and can lead the audible step by up to
// transport.ScheduleAhead.
type Snapshot struct {
	IsPlaying   bool        `json:"is_playing"`
	BPM         int         `json:"bpm"`
	CurrentStep int         `json:"current_step"`
	Groove      groove.Name `json:"groove"`
}

// Options configure a Controller.
type Options struct {
	Logger *zap.Logger
	Ticks  tick.Source
	Tempo  float64
	Groove string
	Layers map[groove.Voice][]voice.Voice
}

// Option modifies Options.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithTickSource replaces the wall-clock wake-up source.
func WithTickSource(s tick.Source) Option {
	return func(o *Options) {
		o.Ticks = s
	}
}

// WithTempo sets the initial tempo. It is clamped like SetTempo.
func WithTempo(bpm float64) Option {
	return func(o *Options) {
		o.Tempo = bpm
	}
}

// WithGroove sets the initial groove by name.
func WithGroove(name string) Option {
	return func(o *Options) {
		o.Groove = name
	}
}

// WithLayer sounds extra alongside the synthesized voice v.
func WithLayer(v groove.Voice, extra voice.Voice) Option {
	return func(o *Options) {
		if o.Layers == nil {
			o.Layers = make(map[groove.Voice][]voice.Voice)
		}
		o.Layers[v] = append(o.Layers[v], extra)
	}
}

// Controller wires groove, synthesizer, dispatcher and transport together.
type Controller struct {
	transport  *transport.Transport
	dispatcher *dispatch.Dispatcher
	log        *zap.Logger

	mu           sync.Mutex
	onUnexpected func(error)
}

// New builds an idle controller. clocks is called on the first Start to
// acquire the audio clock, and out receives every rendered sound.
func New(clocks transport.ClockSource, out voice.Scheduler, opts ...Option) (*Controller, error) {
	o := Options{
		Logger: zap.NewNop(),
		Ticks:  tick.Wall{},
		Tempo:  transport.DefaultTempo,
		Groove: string(groove.Rai),
	}
	for _, opt := range opts {
		opt(&o)
	}

	name, err := groove.Parse(o.Groove)
	if err != nil {
		return nil, errors.Wrap(err, "initial groove")
	}
	g, err := groove.Lookup(name)
	if err != nil {
		return nil, err
	}

	kit := voice.NewKit(out)
	for v, extras := range o.Layers {
		for _, extra := range extras {
			kit = kit.Layer(v, extra)
		}
	}

	c := &Controller{log: o.Logger}
	c.dispatcher = dispatch.New(kit, o.Ticks, o.Logger.Named("dispatch"))
	c.transport = transport.New(clocks, c.dispatcher, o.Ticks, g, o.Tempo, o.Logger.Named("transport"))
	c.transport.OnHalt(c.unexpectedStop)
	return c, nil
}

// Start moves Idle to Running. It is a no-op while running. If the audio
// output cannot be acquired the controller stays idle and Start may be
// retried.
func (c *Controller) Start() error {
	if err := c.transport.Start(); err != nil {
		c.log.Error("start failed", zap.Error(err))
		return err
	}
	return nil
}

// Stop moves Running to Idle. Sounds already scheduled finish; pulses not
// yet delivered are dropped.
func (c *Controller) Stop() {
	c.transport.Stop()
}

// SetTempo clamps bpm to [60, 180], rounds it, and returns the stored tempo.
func (c *Controller) SetTempo(bpm float64) int {
	return c.transport.SetTempo(bpm)
}

// SetGroove switches groove by name. Unknown names fail with
// *groove.UnknownPatternError and leave the groove unchanged.
func (c *Controller) SetGroove(name string) error {
	n, err := groove.Parse(name)
	if err != nil {
		return err
	}
	if err := c.transport.SetGroove(n); err != nil {
		return err
	}
	c.log.Info("groove changed", zap.String("groove", string(n)))
	return nil
}

// State returns the current snapshot.
func (c *Controller) State() Snapshot {
	s := c.transport.State()
	return Snapshot{
		IsPlaying:   s.Playing,
		BPM:         s.TempoBPM,
		CurrentStep: s.CurrentStep,
		Groove:      s.Groove.Name,
	}
}

// RegisterSyncCallback sets the single pulse subscriber. cb runs on a timer
// goroutine and must not block.
func (c *Controller) RegisterSyncCallback(cb func(dispatch.Pulse)) {
	c.dispatcher.SetSync(cb)
}

// OnUnexpectedStop sets the handler called when playback stops because the
// audio clock failed.
func (c *Controller) OnUnexpectedStop(fn func(error)) {
	c.mu.Lock()
	c.onUnexpected = fn
	c.mu.Unlock()
}

func (c *Controller) unexpectedStop(err error) {
	c.mu.Lock()
	fn := c.onUnexpected
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
