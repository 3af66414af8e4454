package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satindergrewal/groove/internal/audio"
	"github.com/satindergrewal/groove/internal/config"
	"github.com/satindergrewal/groove/internal/groove"
	"github.com/satindergrewal/groove/internal/midiout"
	"github.com/satindergrewal/groove/internal/playback"
)

// cfg starts from the environment; flags override it.
var cfg = config.Load()

var rootCmd = &cobra.Command{
	Use:           "groove",
	Short:         "16-step percussion sequencer",
	Long:          `groove plays Algerian percussion grooves (Rai, Chaabi, Kabyle) on a lookahead audio clock.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Float64Var(&cfg.Tempo, "tempo", cfg.Tempo, "initial tempo in bpm (60-180)")
	flags.StringVar(&cfg.Groove, "groove", cfg.Groove, "initial groove (Rai, Chaabi, Kabyle)")
	flags.BoolVar(&cfg.AutoStart, "autostart", cfg.AutoStart, "start playback immediately")
	flags.StringVar(&cfg.MIDIPort, "midi-port", cfg.MIDIPort, "mirror hits to the MIDI output whose name contains this")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "groove:", err)
		os.Exit(1)
	}
}

// controllerOptions collects the options shared by play and serve. The
// returned cleanup releases the MIDI mirror, if one was opened.
func controllerOptions(mixer *audio.Mixer, log *zap.Logger) ([]playback.Option, func(), error) {
	opts := []playback.Option{
		playback.WithLogger(log),
		playback.WithTempo(cfg.Tempo),
		playback.WithGroove(cfg.Groove),
	}
	if cfg.MIDIPort == "" {
		return opts, func() {}, nil
	}
	mirror, err := midiout.Open(cfg.MIDIPort, cfg.MIDIChannel, mixer, log.Named("midi"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening midi mirror")
	}
	for v := groove.Kick; v <= groove.Hat; v++ {
		opts = append(opts, playback.WithLayer(v, mirror.Voice(v)))
	}
	return opts, mirror.Close, nil
}
