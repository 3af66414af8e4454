package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/groove/internal/api"
	"github.com/satindergrewal/groove/internal/audio"
	"github.com/satindergrewal/groove/internal/dispatch"
	"github.com/satindergrewal/groove/internal/logging"
	"github.com/satindergrewal/groove/internal/playback"
	"github.com/satindergrewal/groove/internal/stream"
	"github.com/satindergrewal/groove/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream the sequencer over HTTP and WebRTC",
	Long: `Run headless on a real-time frame pump. Audio is served as MP3 on /stream
and Opus over WebRTC on /offer, sync pulses as server-sent events on /events,
and the sequencer is controlled through /api.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return errors.Wrap(serve(ctx, log), "serve")
	},
}

func init() {
	serveCmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	serveCmd.Flags().IntVar(&cfg.OpusBitrate, "bitrate", cfg.OpusBitrate, "WebRTC Opus bitrate in bits/s")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, log *zap.Logger) error {
	mixer := audio.NewMixer()
	pump := audio.NewPump(mixer, log.Named("pump"))

	frames := stream.NewBroadcaster[[]int16](150)
	pulses := stream.NewBroadcaster[dispatch.Pulse](64)

	opts, cleanup, err := controllerOptions(mixer, log)
	if err != nil {
		return err
	}
	defer cleanup()

	ctrl, err := playback.New(func() (transport.Clock, error) { return pump, nil }, mixer, opts...)
	if err != nil {
		return errors.Wrap(err, "creating controller")
	}
	ctrl.RegisterSyncCallback(pulses.Publish)
	ctrl.OnUnexpectedStop(func(err error) {
		log.Warn("playback stopped", zap.Error(err))
	})

	webrtcHandler := stream.NewWebRTCHandler(frames, pulses, cfg.OpusBitrate, log.Named("webrtc"))

	mux := http.NewServeMux()
	mux.Handle("/stream", stream.NewHTTPHandler(frames, log.Named("http")))
	mux.Handle("/offer", webrtcHandler)
	mux.Handle("/events", stream.NewPulseHandler(pulses, log.Named("sse")))
	api.Register(mux, ctrl, func() map[string]int {
		return map[string]int{
			"stream": frames.ListenerCount(),
			"webrtc": webrtcHandler.PeerCount(),
			"events": pulses.ListenerCount(),
		}
	}, log.Named("api"))

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	// The pump outlives ctx so playback can stop while its clock still runs.
	pumpCtx, stopPump := context.WithCancel(context.Background())
	defer stopPump()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pump.Run(pumpCtx)
		return nil
	})
	g.Go(func() error {
		frames.Run(pumpCtx, pump.Frames())
		return nil
	})
	g.Go(func() error {
		log.Info("groove live", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return shutdown(ctrl, stopPump, server)
	})
	if cfg.AutoStart {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			case <-pump.Ready():
			}
			if err := ctrl.Start(); err != nil {
				log.Error("autostart failed", zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// shutdown stops playback before the pump that clocks it, then the server.
func shutdown(ctrl interface{ Stop() }, stopPump context.CancelFunc, server io.Closer) error {
	ctrl.Stop()
	stopPump()
	return server.Close()
}
