// Package voice synthesizes the three percussion voices. Every trigger
// renders a fresh buffer and hands it to the output at an exact audio-clock
// time, so hits never share state.
package voice

import (
	"math"
	"math/rand/v2"

	"github.com/satindergrewal/groove/internal/audio"
	"github.com/satindergrewal/groove/internal/groove"
)

// Voice sounds once at audio time at.
type Voice interface {
	Trigger(at float64, accent bool)
}

// Scheduler accepts a mono buffer to start at an audio-clock time.
type Scheduler interface {
	Schedule(at float64, samples []float32)
}

// NoiseFunc returns white noise in [-1, 1).
type NoiseFunc func() float64

func whiteNoise() float64 {
	return rand.Float64()*2 - 1
}

// floor is the level exponential decays ramp to.
const floor = 0.001

// Kick is a sine with a falling pitch.
type Kick struct {
	out Scheduler
}

// NewKick returns a kick writing to out.
func NewKick(out Scheduler) *Kick {
	return &Kick{out: out}
}

const (
	kickFreqAccent = 140.0
	kickFreq       = 120.0
	kickFreqEnd    = 55.0
	kickSweep      = 0.09
	kickGainAccent = 1.0
	kickGain       = 0.7
	kickDecay      = 0.12
	kickLength     = 0.13
)

func (k *Kick) Trigger(at float64, accent bool) {
	k.out.Schedule(at, k.Render(accent))
}

// Render returns one kick hit.
func (k *Kick) Render(accent bool) []float32 {
	f0, g0 := kickFreq, kickGain
	if accent {
		f0, g0 = kickFreqAccent, kickGainAccent
	}
	n := int(audio.Frames(kickLength))
	buf := make([]float32, n)
	var phase float64
	for i := range buf {
		t := float64(i) / audio.SampleRate
		buf[i] = float32(math.Sin(phase) * audio.ExpRamp(g0, floor, t, kickDecay))
		phase += 2 * math.Pi * audio.ExpRamp(f0, kickFreqEnd, t, kickSweep) / audio.SampleRate
	}
	return buf
}

// burst is filtered noise under an exponential decay.
type burst struct {
	out        Scheduler
	noise      NoiseFunc
	filter     func() *biquad
	gain       float64
	gainAccent float64
	length     float64
}

func (b *burst) Trigger(at float64, accent bool) {
	b.out.Schedule(at, b.Render(accent))
}

// Render returns one hit.
func (b *burst) Render(accent bool) []float32 {
	g0 := b.gain
	if accent {
		g0 = b.gainAccent
	}
	f := b.filter()
	buf := make([]float32, int(audio.Frames(b.length)))
	for i := range buf {
		t := float64(i) / audio.SampleRate
		buf[i] = float32(f.process(b.noise()) * audio.ExpRamp(g0, floor, t, b.length))
	}
	return buf
}

// Snare is noise through a bandpass at 1800 Hz.
type Snare struct{ burst }

// NewSnare returns a snare writing to out. A nil noise uses the default
// white noise source.
func NewSnare(out Scheduler, noise NoiseFunc) *Snare {
	if noise == nil {
		noise = whiteNoise
	}
	return &Snare{burst{
		out:        out,
		noise:      noise,
		filter:     func() *biquad { return bandpass(1800, 1, audio.SampleRate) },
		gain:       0.5,
		gainAccent: 0.7,
		length:     0.12,
	}}
}

// Hat is noise through a highpass at 6000 Hz.
type Hat struct{ burst }

// NewHat returns a hat writing to out. A nil noise uses the default white
// noise source.
func NewHat(out Scheduler, noise NoiseFunc) *Hat {
	if noise == nil {
		noise = whiteNoise
	}
	return &Hat{burst{
		out:        out,
		noise:      noise,
		filter:     func() *biquad { return highpass(6000, 1, audio.SampleRate) },
		gain:       0.25,
		gainAccent: 0.35,
		length:     0.05,
	}}
}

// Kit maps each groove voice to its sound.
type Kit [groove.NumVoices]Voice

// NewKit builds the standard kit on one output.
func NewKit(out Scheduler) Kit {
	return Kit{
		groove.Kick:  NewKick(out),
		groove.Snare: NewSnare(out, nil),
		groove.Hat:   NewHat(out, nil),
	}
}

// Trigger sounds voice v. Unset slots are silent.
func (k Kit) Trigger(v groove.Voice, at float64, accent bool) {
	if v < 0 || int(v) >= len(k) || k[v] == nil {
		return
	}
	k[v].Trigger(at, accent)
}

// Layer returns a copy of the kit with extra sounding alongside slot v.
func (k Kit) Layer(v groove.Voice, extra Voice) Kit {
	k[v] = Stack(k[v], extra)
	return k
}

type stack []Voice

func (s stack) Trigger(at float64, accent bool) {
	for _, v := range s {
		v.Trigger(at, accent)
	}
}

// Stack combines voices into one. Nil entries are skipped.
func Stack(voices ...Voice) Voice {
	s := make(stack, 0, len(voices))
	for _, v := range voices {
		if v != nil {
			s = append(s, v)
		}
	}
	return s
}
