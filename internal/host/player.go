//go:build !headless

package host

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Player plays a Source through the system audio device.
type Player struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	logger  *slog.Logger
	playing bool
}

// NewPlayer opens the audio device at sampleRate with two float32
// channels and attaches src.
func NewPlayer(src Source, sampleRate int, logger *slog.Logger) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("host: sample rate must be > 0: %d", sampleRate)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("host: open audio device: %w", err)
	}
	<-ready

	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(NewStream(src)),
		logger: logger,
	}, nil
}

// Start begins playback.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.player.Play()
	p.playing = true
	p.logger.Debug("playback started")
}

// Stop pauses playback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.player.Pause()
	p.playing = false
}

// IsPlaying reports whether playback is running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing && p.player.IsPlaying()
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.playing = false

	if err := p.player.Err(); err != nil {
		p.logger.Warn("audio player error", "error", err)
	}

	return p.player.Close()
}
