package groove

import (
	"errors"
	"strings"
	"testing"
)

// --- Catalogue Data ---

func TestLookupLiteralData(t *testing.T) {
	tests := []struct {
		name  Name
		kick  Ladder
		snare Ladder
		hat   Ladder
	}{
		{Rai,
			Ladder{2, 0, 0, 0, 0, 0, 1, 0, 2, 0, 0, 0, 0, 0, 1, 0},
			Ladder{0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0},
			Ladder{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}},
		{Chaabi,
			Ladder{2, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0},
			Ladder{0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0},
			Ladder{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}},
		{Kabyle,
			Ladder{2, 0, 0, 0, 0, 0, 1, 0, 2, 0, 0, 0, 0, 0, 1, 0},
			Ladder{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
			Ladder{1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}},
	}
	for _, tt := range tests {
		d, err := Lookup(tt.name)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", tt.name, err)
		}
		if d.Name != tt.name {
			t.Errorf("Lookup(%s).Name = %s", tt.name, d.Name)
		}
		if d.Kick != tt.kick {
			t.Errorf("%s kick = %v, want %v", tt.name, d.Kick, tt.kick)
		}
		if d.Snare != tt.snare {
			t.Errorf("%s snare = %v, want %v", tt.name, d.Snare, tt.snare)
		}
		if d.Hat != tt.hat {
			t.Errorf("%s hat = %v, want %v", tt.name, d.Hat, tt.hat)
		}
	}
}

func TestLevelsInRange(t *testing.T) {
	for _, n := range Names() {
		d, _ := Lookup(n)
		for step := 0; step < Steps; step++ {
			for v, lvl := range d.At(step) {
				if lvl > Accent {
					t.Errorf("%s %s step %d = %d, out of range", n, Voice(v), step, lvl)
				}
			}
		}
	}
}

func TestNamesCoverCatalogue(t *testing.T) {
	names := Names()
	if len(names) != len(catalogue) {
		t.Fatalf("Names() = %d entries, catalogue has %d", len(names), len(catalogue))
	}
	for _, n := range names {
		if _, ok := catalogue[n]; !ok {
			t.Errorf("Names() lists %s, not in catalogue", n)
		}
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	d, _ := Lookup(Rai)
	d.Kick[0] = Rest
	again, _ := Lookup(Rai)
	if again.Kick[0] != Accent {
		t.Error("mutating a looked-up groove changed the catalogue")
	}
}

// --- Errors ---

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("Gnawa")
	var upe *UnknownPatternError
	if !errors.As(err, &upe) {
		t.Fatalf("Lookup(Gnawa) error = %v, want *UnknownPatternError", err)
	}
	if upe.Name != "Gnawa" {
		t.Errorf("UnknownPatternError.Name = %q, want Gnawa", upe.Name)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Name
		ok   bool
	}{
		{"Rai", Rai, true},
		{"rai", Rai, true},
		{" CHAABI ", Chaabi, true},
		{"kabyle", Kabyle, true},
		{"", "", false},
		{"salsa", "", false},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("Parse(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- Helpers ---

func TestAt(t *testing.T) {
	d, _ := Lookup(Rai)
	got := d.At(0)
	want := [NumVoices]Level{Accent, Rest, Hit}
	if got != want {
		t.Errorf("Rai.At(0) = %v, want %v", got, want)
	}
	if d.At(16) != d.At(0) {
		t.Error("At(16) should wrap to step 0")
	}
	if d.At(-1) != d.At(15) {
		t.Error("At(-1) should wrap to step 15")
	}
}

func TestString(t *testing.T) {
	d, _ := Lookup(Chaabi)
	s := d.String()
	if !strings.Contains(s, "|X---|x---|X---|x---|") {
		t.Errorf("Chaabi grid missing kick row:\n%s", s)
	}
	if strings.Count(s, "\n") != NumVoices {
		t.Errorf("grid has %d rows, want %d", strings.Count(s, "\n"), NumVoices)
	}
}

func TestVoiceString(t *testing.T) {
	if Kick.String() != "kick" || Snare.String() != "snare" || Hat.String() != "hat" {
		t.Errorf("voice names = %s %s %s", Kick, Snare, Hat)
	}
}
