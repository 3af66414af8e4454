// Package midiout mirrors sequencer hits to a MIDI output as General MIDI
// drum notes, timed against the audio clock.
package midiout

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
	"go.uber.org/zap"

	"github.com/satindergrewal/groove/internal/groove"
	"github.com/satindergrewal/groove/internal/tick"
	"github.com/satindergrewal/groove/internal/voice"
)

// General MIDI percussion keys.
var notes = [groove.NumVoices]uint8{
	groove.Kick:  36, // bass drum 1
	groove.Snare: 38, // acoustic snare
	groove.Hat:   42, // closed hi-hat
}

const (
	velocity       = 100
	velocityAccent = 127
	gate           = 100 * time.Millisecond
)

// Sender writes one MIDI message.
type Sender func(midi.Message) error

// Clock reports the audio render position in seconds.
type Clock interface {
	Now() float64
}

// Mirror sends a note for every hit it is handed.
type Mirror struct {
	send    Sender
	clock   Clock
	ticks   tick.Source
	channel uint8
	log     *zap.Logger

	mu     sync.Mutex
	closer func()
	errs   int
	struck map[uint8]uint64 // NoteOn count per key
}

// New creates a mirror on an existing sender. channel is 1-16.
func New(send Sender, channel int, clock Clock, ticks tick.Source, log *zap.Logger) *Mirror {
	if ticks == nil {
		ticks = tick.Wall{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if channel < 1 || channel > 16 {
		channel = 10
	}
	return &Mirror{
		send:    send,
		clock:   clock,
		ticks:   ticks,
		channel: uint8(channel - 1),
		log:     log,
		struck:  make(map[uint8]uint64),
	}
}

// Open finds the output port whose name contains port and mirrors to it.
func Open(port string, channel int, clock Clock, log *zap.Logger) (*Mirror, error) {
	var out drivers.Out
	for _, p := range midi.GetOutPorts() {
		if strings.Contains(p.String(), port) {
			out = p
			break
		}
	}
	if out == nil {
		return nil, errors.Errorf("no midi output matching %q", port)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "open midi port %q", out.String())
	}
	m := New(send, channel, clock, tick.Wall{}, log)
	m.closer = midi.CloseDriver
	log.Info("midi mirror open", zap.String("port", out.String()), zap.Int("channel", channel))
	return m, nil
}

// Close releases the MIDI driver if Open acquired it.
func (m *Mirror) Close() {
	m.mu.Lock()
	closer := m.closer
	m.closer = nil
	m.mu.Unlock()
	if closer != nil {
		closer()
	}
}

// Voice returns the mirror of v, suitable for layering on the kit.
func (m *Mirror) Voice(v groove.Voice) voice.Voice {
	return &noteVoice{m: m, key: notes[v]}
}

type noteVoice struct {
	m   *Mirror
	key uint8
}

// Trigger sends NoteOn when the audio clock reaches at and NoteOff one gate
// later, unless the key was struck again in between.
func (n *noteVoice) Trigger(at float64, accent bool) {
	vel := uint8(velocity)
	if accent {
		vel = velocityAccent
	}
	delay := at - n.m.clock.Now()
	if delay < 0 {
		delay = 0
	}
	ch, key := n.m.channel, n.key
	n.m.ticks.AfterFunc(time.Duration(delay*float64(time.Second)), func() {
		strike := n.m.strike(key)
		n.m.write(midi.NoteOn(ch, key, vel))
		n.m.ticks.AfterFunc(gate, func() {
			if n.m.latest(key) != strike {
				return
			}
			n.m.write(midi.NoteOff(ch, key))
		})
	})
}

func (m *Mirror) strike(key uint8) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.struck[key]++
	return m.struck[key]
}

func (m *Mirror) latest(key uint8) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.struck[key]
}

func (m *Mirror) write(msg midi.Message) {
	if err := m.send(msg); err != nil {
		m.mu.Lock()
		m.errs++
		n := m.errs
		m.mu.Unlock()
		if n == 1 || n%100 == 0 {
			m.log.Warn("midi send failed", zap.Int("failures", n), zap.Error(err))
		}
	}
}
