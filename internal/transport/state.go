package transport

import "github.com/satindergrewal/groove/internal/groove"

// State is the play-head.
type State struct {
	Playing       bool
	TempoBPM      int
	CurrentStep   int // 0..15, next step to commit
	Groove        groove.Definition
	NextEventTime float64 // audio-clock seconds of CurrentStep
}

// Event is one committed step.
type Event struct {
	Step   int
	Time   float64
	Levels [groove.NumVoices]groove.Level
	Accent bool // kick level is Accent
}

// SixteenthSeconds is the length of one step at bpm.
func SixteenthSeconds(bpm int) float64 {
	return (60 / float64(bpm)) / 4
}

// Advance commits every step whose time falls before horizon and returns
// the moved play-head along with the committed events in order. The step
// length is evaluated at each increment, so a tempo change only affects
// steps committed after it.
func Advance(s State, horizon float64) (State, []Event) {
	var events []Event
	for s.Playing && s.NextEventTime < horizon {
		levels := s.Groove.At(s.CurrentStep)
		events = append(events, Event{
			Step:   s.CurrentStep,
			Time:   s.NextEventTime,
			Levels: levels,
			Accent: levels[groove.Kick] == groove.Accent,
		})
		s.NextEventTime += SixteenthSeconds(s.TempoBPM)
		s.CurrentStep = (s.CurrentStep + 1) % groove.Steps
	}
	return s, events
}
