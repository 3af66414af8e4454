package stream

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/satindergrewal/groove/internal/audio"
	"github.com/satindergrewal/groove/internal/dispatch"
)

func receive[T any](t *testing.T, l *Listener[T]) T {
	t.Helper()
	select {
	case v := <-l.C:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
	var zero T
	return zero
}

// --- PCM frames ---

func TestPumpFramesReachEveryListener(t *testing.T) {
	mixer := audio.NewMixer()
	click := make([]float32, audio.FrameSize)
	for i := range click {
		click[i] = 0.5
	}
	mixer.Schedule(0, click)

	pump := audio.NewPump(mixer, zaptest.NewLogger(t))
	frames := NewBroadcaster[[]int16](150)
	a, b := frames.Subscribe(), frames.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pump.Run(ctx)
	go frames.Run(ctx, pump.Frames())

	for name, l := range map[string]*Listener[[]int16]{"a": a, "b": b} {
		frame := receive(t, l)
		if len(frame) != audio.FrameSamples {
			t.Fatalf("listener %s: frame len = %d, want %d", name, len(frame), audio.FrameSamples)
		}
		want := audio.Clip16(0.5)
		if frame[0] != want || frame[1] != want {
			t.Errorf("listener %s: first stereo sample = (%d, %d), want (%d, %d)", name, frame[0], frame[1], want, want)
		}
	}
}

func TestFramesEndWithPump(t *testing.T) {
	pump := audio.NewPump(audio.NewMixer(), zaptest.NewLogger(t))
	frames := NewBroadcaster[[]int16](150)

	pumpCtx, stopPump := context.WithCancel(context.Background())
	go pump.Run(pumpCtx)
	<-pump.Ready()

	done := make(chan struct{})
	go func() {
		frames.Run(context.Background(), pump.Frames())
		close(done)
	}()
	stopPump()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster kept running after the pump stopped")
	}
}

func TestRunStopsOnContext(t *testing.T) {
	frames := NewBroadcaster[[]int16](150)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		frames.Run(ctx, make(chan []int16))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster ignored context cancel")
	}
}

// --- Sync pulses ---

func bar() []dispatch.Pulse {
	out := make([]dispatch.Pulse, 16)
	for i := range out {
		out[i] = dispatch.Pulse{Step: i, Accent: i%4 == 0}
	}
	return out
}

func TestPulsesKeepOrder(t *testing.T) {
	pulses := NewBroadcaster[dispatch.Pulse](64)
	l := pulses.Subscribe()

	for _, p := range bar() {
		pulses.Publish(p)
	}
	for i, want := range bar() {
		if got := receive(t, l); got != want {
			t.Fatalf("pulse %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestSlowPulseListenerDrops(t *testing.T) {
	pulses := NewBroadcaster[dispatch.Pulse](4)
	slow, fast := pulses.Subscribe(), pulses.Subscribe()

	var got []dispatch.Pulse
	for _, p := range bar() {
		pulses.Publish(p) // must not block on slow
		got = append(got, receive(t, fast))
	}

	if len(got) != 16 || got[15].Step != 15 {
		t.Errorf("fast listener got %d pulses, want all 16", len(got))
	}
	if len(slow.C) != 4 {
		t.Fatalf("slow listener buffered %d, want 4", len(slow.C))
	}
	for i := 0; i < 4; i++ {
		if p := <-slow.C; p.Step != i {
			t.Errorf("slow listener pulse %d has step %d, want the oldest kept", i, p.Step)
		}
	}
}

func TestUnsubscribeEndsListener(t *testing.T) {
	pulses := NewBroadcaster[dispatch.Pulse](8)
	l := pulses.Subscribe()
	if n := pulses.ListenerCount(); n != 1 {
		t.Errorf("ListenerCount = %d, want 1", n)
	}

	pulses.Unsubscribe(l)
	pulses.Unsubscribe(l)
	if n := pulses.ListenerCount(); n != 0 {
		t.Errorf("ListenerCount = %d after unsubscribe, want 0", n)
	}
	select {
	case <-l.Done():
	default:
		t.Error("Done not closed after unsubscribe")
	}

	pulses.Publish(dispatch.Pulse{Step: 3})
	if len(l.C) != 0 {
		t.Error("unsubscribed listener still receives pulses")
	}
}
