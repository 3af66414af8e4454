package audio

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

// oto permits a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func otoContext(buffer time.Duration) (*oto.Context, error) {
	otoOnce.Do(func() {
		c, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   buffer,
		})
		if err != nil {
			otoErr = errors.Wrap(err, "open audio device")
			return
		}
		<-ready
		otoCtx = c
	})
	return otoCtx, otoErr
}

// Speaker plays the mixer on the default output device.
type Speaker struct {
	mixer  *Mixer
	ctx    *oto.Context
	player *oto.Player

	mu     sync.Mutex
	closed bool
}

// OpenSpeaker opens the device and starts pulling from m. buffer sets the
// device latency; zero lets the driver choose.
func OpenSpeaker(m *Mixer, buffer time.Duration) (*Speaker, error) {
	c, err := otoContext(buffer)
	if err != nil {
		return nil, err
	}
	if err := c.Err(); err != nil {
		return nil, errors.Wrap(err, "audio device")
	}
	p := c.NewPlayer(m)
	if buffer > 0 {
		p.SetBufferSize(int(Frames(buffer.Seconds())) * Channels * 2)
	}
	p.Play()
	return &Speaker{mixer: m, ctx: c, player: p}, nil
}

// Now implements the transport clock. It fails once the device or player
// reports an error, or after Close.
func (s *Speaker) Now() (float64, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	if err := s.player.Err(); err != nil {
		return 0, errors.Wrap(err, "audio player")
	}
	if err := s.ctx.Err(); err != nil {
		return 0, errors.Wrap(err, "audio device")
	}
	return s.mixer.Now(), nil
}

// Close stops playback. The process-wide device stays open.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.player.Close()
}
