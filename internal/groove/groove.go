package groove

import (
	"fmt"
	"strings"
)

// Steps is the length of every groove cycle, one slot per sixteenth note.
const Steps = 16

// Name identifies a groove in the catalogue.
type Name string

const (
	Rai    Name = "Rai"
	Chaabi Name = "Chaabi"
	Kabyle Name = "Kabyle"
)

// Level is the intensity of one voice at one step.
type Level uint8

const (
	Rest   Level = 0
	Hit    Level = 1
	Accent Level = 2
)

// Voice indexes the three percussion voices.
type Voice int

const (
	Kick Voice = iota
	Snare
	Hat
)

// NumVoices is the number of percussion voices every groove drives.
const NumVoices = 3

func (v Voice) String() string {
	switch v {
	case Kick:
		return "kick"
	case Snare:
		return "snare"
	case Hat:
		return "hat"
	}
	return fmt.Sprintf("voice(%d)", int(v))
}

// Ladder is one voice's intensity per step.
type Ladder [Steps]Level

// Definition is an immutable groove: three parallel ladders.
type Definition struct {
	Name  Name
	Kick  Ladder
	Snare Ladder
	Hat   Ladder
}

// At returns the level of every voice at step, indexed by Voice.
// Steps outside [0, Steps) wrap.
func (d Definition) At(step int) [NumVoices]Level {
	i := ((step % Steps) + Steps) % Steps
	return [NumVoices]Level{d.Kick[i], d.Snare[i], d.Hat[i]}
}

// Ladder returns the ladder for v.
func (d Definition) Ladder(v Voice) Ladder {
	switch v {
	case Kick:
		return d.Kick
	case Snare:
		return d.Snare
	default:
		return d.Hat
	}
}

// UnknownPatternError is returned for a groove name outside the catalogue.
type UnknownPatternError struct {
	Name string
}

func (e *UnknownPatternError) Error() string {
	return fmt.Sprintf("unknown groove %q", e.Name)
}

var (
	raiKick     = Ladder{2, 0, 0, 0, 0, 0, 1, 0, 2, 0, 0, 0, 0, 0, 1, 0}
	backbeat    = Ladder{0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0}
	eighthHats  = Ladder{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	chaabiKick  = Ladder{2, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0}
	kabyleSnare = Ladder{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0}
)

// catalogue holds the fixed set of grooves. Ladders are arrays, so every
// Definition handed out is a copy and callers cannot mutate the source.
var catalogue = map[Name]Definition{
	Rai:    {Name: Rai, Kick: raiKick, Snare: backbeat, Hat: eighthHats},
	Chaabi: {Name: Chaabi, Kick: chaabiKick, Snare: backbeat, Hat: eighthHats},
	Kabyle: {Name: Kabyle, Kick: raiKick, Snare: kabyleSnare, Hat: eighthHats},
}

// Names returns the catalogue in display order.
func Names() []Name {
	return []Name{Rai, Chaabi, Kabyle}
}

// Lookup returns the groove called name.
func Lookup(name Name) (Definition, error) {
	d, ok := catalogue[name]
	if !ok {
		return Definition{}, &UnknownPatternError{Name: string(name)}
	}
	return d, nil
}

// Parse resolves user input to a catalogue name, ignoring case and
// surrounding space.
func Parse(s string) (Name, error) {
	s = strings.TrimSpace(s)
	for _, n := range Names() {
		if strings.EqualFold(string(n), s) {
			return n, nil
		}
	}
	return "", &UnknownPatternError{Name: s}
}

// String renders the groove as a drum-machine grid, one row per voice.
func (d Definition) String() string {
	var b strings.Builder
	for v := Kick; v <= Hat; v++ {
		fmt.Fprintf(&b, "(%d) %-5s\t", v, v)
		l := d.Ladder(v)
		for i, lvl := range l {
			if i%4 == 0 {
				b.WriteByte('|')
			}
			switch lvl {
			case Accent:
				b.WriteByte('X')
			case Hit:
				b.WriteByte('x')
			default:
				b.WriteByte('-')
			}
		}
		b.WriteString("|\n")
	}
	return b.String()
}
