package voice

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/satindergrewal/groove/internal/audio"
	"github.com/satindergrewal/groove/internal/groove"
)

type call struct {
	at      float64
	samples []float32
}

type recorder struct {
	calls []call
}

func (r *recorder) Schedule(at float64, samples []float32) {
	r.calls = append(r.calls, call{at, samples})
}

func seeded() NoiseFunc {
	r := rand.New(rand.NewPCG(7, 11))
	return func() float64 { return r.Float64()*2 - 1 }
}

func peak(buf []float32) float64 {
	var p float64
	for _, s := range buf {
		p = math.Max(p, math.Abs(float64(s)))
	}
	return p
}

// --- Durations ---

func TestDurations(t *testing.T) {
	rec := &recorder{}
	tests := []struct {
		name string
		v    Voice
		want int
	}{
		{"kick", NewKick(rec), 6240},
		{"snare", NewSnare(rec, seeded()), 5760},
		{"hat", NewHat(rec, seeded()), 2400},
	}
	for _, tt := range tests {
		rec.calls = nil
		tt.v.Trigger(1.5, false)
		if len(rec.calls) != 1 {
			t.Fatalf("%s: %d schedules, want 1", tt.name, len(rec.calls))
		}
		if rec.calls[0].at != 1.5 {
			t.Errorf("%s scheduled at %v, want 1.5", tt.name, rec.calls[0].at)
		}
		if got := len(rec.calls[0].samples); got != tt.want {
			t.Errorf("%s length = %d samples, want %d", tt.name, got, tt.want)
		}
	}
}

// --- Kick ---

func TestKickStartsAtZeroPhase(t *testing.T) {
	buf := NewKick(&recorder{}).Render(true)
	if buf[0] != 0 {
		t.Errorf("kick first sample = %v, want 0", buf[0])
	}
}

func TestKickAccentLouder(t *testing.T) {
	k := NewKick(&recorder{})
	loud, soft := peak(k.Render(true)), peak(k.Render(false))
	if loud <= soft {
		t.Errorf("accent peak %v <= plain peak %v", loud, soft)
	}
	if loud > 1.0 || soft > 0.7 {
		t.Errorf("peaks %v/%v exceed start gains 1.0/0.7", loud, soft)
	}
}

func TestKickPitchFalls(t *testing.T) {
	// Count zero crossings in the first and last 20ms. The sweep from
	// 140 Hz to 55 Hz must leave fewer crossings at the end.
	buf := NewKick(&recorder{}).Render(true)
	win := int(audio.Frames(0.02))
	crossings := func(s []float32) int {
		n := 0
		for i := 1; i < len(s); i++ {
			if (s[i-1] < 0) != (s[i] < 0) {
				n++
			}
		}
		return n
	}
	head := crossings(buf[1:win])
	tail := crossings(buf[len(buf)-win:])
	if tail >= head {
		t.Errorf("zero crossings head=%d tail=%d, want falling pitch", head, tail)
	}
}

func TestKickDecaysToFloor(t *testing.T) {
	buf := NewKick(&recorder{}).Render(true)
	tail := buf[audio.Frames(0.12):]
	if p := peak(tail); p > floor+1e-9 {
		t.Errorf("kick tail peak = %v, want <= %v", p, floor)
	}
}

// --- Noise voices ---

func TestSnareAccentScalesGain(t *testing.T) {
	loud := NewSnare(&recorder{}, seeded()).Render(true)
	soft := NewSnare(&recorder{}, seeded()).Render(false)
	for i := 0; i < 100; i++ {
		if soft[i] == 0 {
			continue
		}
		ratio := float64(loud[i]) / float64(soft[i])
		if math.Abs(ratio-0.7/0.5) > 1e-3 {
			t.Fatalf("sample %d accent/plain = %v, want %v", i, ratio, 0.7/0.5)
		}
	}
}

func TestHatAccentScalesGain(t *testing.T) {
	loud := NewHat(&recorder{}, seeded()).Render(true)
	soft := NewHat(&recorder{}, seeded()).Render(false)
	for i := 0; i < 100; i++ {
		if soft[i] == 0 {
			continue
		}
		ratio := float64(loud[i]) / float64(soft[i])
		if math.Abs(ratio-0.35/0.25) > 1e-3 {
			t.Fatalf("sample %d accent/plain = %v, want %v", i, ratio, 0.35/0.25)
		}
	}
}

func TestHitsDoNotShareState(t *testing.T) {
	s := NewSnare(&recorder{}, func() float64 { return 1 })
	a := s.Render(false)
	b := s.Render(false)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between hits: %v vs %v", i, a[i], b[i])
		}
	}
}

// --- Filters ---

func TestBandpassResponse(t *testing.T) {
	f := bandpass(1800, 1, audio.SampleRate)
	if g := f.response(1800, audio.SampleRate); math.Abs(g-1) > 1e-6 {
		t.Errorf("bandpass gain at centre = %v, want 1", g)
	}
	if g := f.response(100, audio.SampleRate); g > 0.1 {
		t.Errorf("bandpass gain at 100 Hz = %v, want < 0.1", g)
	}
}

func TestHighpassResponse(t *testing.T) {
	f := highpass(6000, 1, audio.SampleRate)
	if g := f.response(500, audio.SampleRate); g > 0.02 {
		t.Errorf("highpass gain at 500 Hz = %v, want < 0.02", g)
	}
	if g := f.response(18000, audio.SampleRate); math.Abs(g-1) > 0.1 {
		t.Errorf("highpass gain at 18 kHz = %v, want ~1", g)
	}
	// resonance of 1 dB at the cutoff
	want := math.Pow(10, 1.0/20)
	if g := f.response(6000, audio.SampleRate); math.Abs(g-want) > 1e-6 {
		t.Errorf("highpass gain at cutoff = %v, want %v", g, want)
	}
}

// --- Kit ---

type countVoice struct {
	n      int
	accent bool
}

func (c *countVoice) Trigger(at float64, accent bool) {
	c.n++
	c.accent = accent
}

func TestKitTriggerAndLayer(t *testing.T) {
	rec := &recorder{}
	k := NewKit(rec)
	extra := &countVoice{}
	layered := k.Layer(groove.Snare, extra)

	layered.Trigger(groove.Snare, 0.5, true)
	if len(rec.calls) != 1 || extra.n != 1 || !extra.accent {
		t.Errorf("layered snare: %d schedules, extra fired %d accent=%v", len(rec.calls), extra.n, extra.accent)
	}

	k.Trigger(groove.Snare, 0.5, false)
	if extra.n != 1 {
		t.Error("Layer modified the original kit")
	}

	var empty Kit
	empty.Trigger(groove.Kick, 0, false)
	k.Trigger(groove.Voice(9), 0, false)
}

func TestStackSkipsNil(t *testing.T) {
	a := &countVoice{}
	Stack(nil, a, nil).Trigger(0, false)
	if a.n != 1 {
		t.Errorf("stacked voice fired %d times, want 1", a.n)
	}
}
