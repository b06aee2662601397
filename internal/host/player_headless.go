//go:build headless

package host

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Player is a silent stand-in used in headless builds.
type Player struct {
	stream  *Stream
	playing atomic.Bool
}

// NewPlayer returns a player that never opens an audio device.
func NewPlayer(src Source, sampleRate int, logger *slog.Logger) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("host: sample rate must be > 0: %d", sampleRate)
	}

	return &Player{stream: NewStream(src)}, nil
}

func (p *Player) Start() { p.playing.Store(true) }

func (p *Player) Stop() { p.playing.Store(false) }

func (p *Player) IsPlaying() bool { return p.playing.Load() }

func (p *Player) Close() error {
	p.playing.Store(false)
	return nil
}
