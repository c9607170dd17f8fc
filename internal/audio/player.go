package audio

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
)

// Player streams a Host to the system audio output.
type Player struct {
	otoCtx *oto.Context
	player *oto.Player
}

// NewPlayer opens the audio device at sampleRate and starts pulling from h.
func NewPlayer(h *Host, sampleRate int) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-readyChan

	p := &Player{
		otoCtx: otoCtx,
		player: otoCtx.NewPlayer(h),
	}
	p.player.Play()
	return p, nil
}

// Close stops playback.
func (p *Player) Close() error {
	p.player.Pause()
	if err := p.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("error suspending audio: %w", err)
	}
	return nil
}
