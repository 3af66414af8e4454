package tick

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := NewManual()
	var order []int
	m.AfterFunc(30*time.Millisecond, func() { order = append(order, 3) })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, 1) })
	m.AfterFunc(20*time.Millisecond, func() { order = append(order, 2) })

	m.Advance(15 * time.Millisecond)
	if len(order) != 1 || order[0] != 1 {
		t.Fatalf("after 15ms fired = %v, want [1]", order)
	}
	m.Advance(50 * time.Millisecond)
	if len(order) != 3 || order[1] != 2 || order[2] != 3 {
		t.Errorf("fired = %v, want [1 2 3]", order)
	}
	if m.Now() != 65*time.Millisecond {
		t.Errorf("Now() = %v, want 65ms", m.Now())
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual()
	fired := false
	tm := m.AfterFunc(time.Millisecond, func() { fired = true })
	if !tm.Stop() {
		t.Error("Stop() on armed timer = false, want true")
	}
	if tm.Stop() {
		t.Error("second Stop() = true, want false")
	}
	m.Advance(time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", m.Pending())
	}
}

func TestManualRearmWithinWindow(t *testing.T) {
	m := NewManual()
	count := 0
	var rearm func()
	rearm = func() {
		count++
		m.AfterFunc(25*time.Millisecond, rearm)
	}
	m.AfterFunc(25*time.Millisecond, rearm)

	m.Advance(100 * time.Millisecond)
	if count != 4 {
		t.Errorf("re-armed callback fired %d times in 100ms, want 4", count)
	}
	if m.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", m.Pending())
	}
}

func TestManualNegativeDelay(t *testing.T) {
	m := NewManual()
	fired := false
	m.AfterFunc(-time.Second, func() { fired = true })
	m.Advance(0)
	if !fired {
		t.Error("negative delay should fire on the next Advance")
	}
}

func TestWallFires(t *testing.T) {
	var n atomic.Int32
	done := make(chan struct{})
	Wall{}.AfterFunc(time.Millisecond, func() {
		n.Add(1)
		close(done)
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("wall timer never fired")
	}
	if n.Load() != 1 {
		t.Errorf("fired %d times, want 1", n.Load())
	}
}
