package main

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satindergrewal/groove/internal/audio"
	"github.com/satindergrewal/groove/internal/dispatch"
	"github.com/satindergrewal/groove/internal/logging"
	"github.com/satindergrewal/groove/internal/playback"
	"github.com/satindergrewal/groove/internal/transport"
	"github.com/satindergrewal/groove/internal/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play through the speakers with a terminal step grid",
	RunE: func(cmd *cobra.Command, args []string) error {
		return errors.Wrap(runPlay(), "play")
	},
}

func init() {
	playCmd.Flags().DurationVar(&cfg.SpeakerBuffer, "buffer", cfg.SpeakerBuffer, "speaker buffer (output latency)")
	rootCmd.AddCommand(playCmd)
}

func runPlay() error {
	// The terminal belongs to the UI, so logs only go to a file.
	log := zap.NewNop()
	if cfg.LogFile != "" {
		l, err := logging.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}
		log = l
	}
	defer log.Sync()

	mixer := audio.NewMixer()
	speakers := &deviceClocks{open: func() (transport.Clock, error) {
		sp, err := audio.OpenSpeaker(mixer, cfg.SpeakerBuffer)
		if err != nil {
			return nil, err
		}
		return sp, nil
	}}
	defer speakers.Close()

	opts, cleanup, err := controllerOptions(mixer, log)
	if err != nil {
		return err
	}
	defer cleanup()

	ctrl, err := playback.New(speakers.acquire, mixer, opts...)
	if err != nil {
		return errors.Wrap(err, "creating controller")
	}
	defer ctrl.Stop()

	p := tea.NewProgram(tui.NewModel(ctrl))
	ctrl.RegisterSyncCallback(func(pulse dispatch.Pulse) {
		p.Send(tui.PulseMsg(pulse))
	})
	ctrl.OnUnexpectedStop(func(err error) {
		p.Send(tui.StoppedMsg{Err: err})
	})

	if cfg.AutoStart {
		if err := ctrl.Start(); err != nil {
			return errors.Wrap(err, "starting playback")
		}
	}

	log.Info("terminal ui starting")
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "running terminal ui")
	}
	return nil
}

// deviceClocks opens clocks on demand and closes every one it handed out.
type deviceClocks struct {
	open func() (transport.Clock, error)

	mu     sync.Mutex
	opened []transport.Clock
}

func (d *deviceClocks) acquire() (transport.Clock, error) {
	c, err := d.open()
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.opened = append(d.opened, c)
	d.mu.Unlock()
	return c, nil
}

// Close closes every opened clock and returns the first error.
func (d *deviceClocks) Close() error {
	d.mu.Lock()
	opened := d.opened
	d.opened = nil
	d.mu.Unlock()

	var first error
	for _, c := range opened {
		if cl, ok := c.(io.Closer); ok {
			if err := cl.Close(); err != nil && first == nil {
				first = errors.Wrap(err, "closing audio output")
			}
		}
	}
	return first
}
