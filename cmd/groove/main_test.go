package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestGroovesCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"grooves"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("grooves: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Rai\n", "Chaabi\n", "Kabyle\n", "|X---|--x-|X---|--x-|"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestControllerOptionsWithoutMIDI(t *testing.T) {
	saved := cfg
	defer func() { cfg = saved }()
	cfg.MIDIPort = ""

	opts, cleanup, err := controllerOptions(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	cleanup()
	if len(opts) != 3 {
		t.Errorf("options = %d, want 3 (logger, tempo, groove)", len(opts))
	}
}
