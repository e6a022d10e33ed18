package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// guildPlayer is the playback state for one guild. One stream at a time;
// starting a new track stops the previous one.
type guildPlayer struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	current *Track
}

// stop cancels the running stream, if any.
func (p *guildPlayer) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.current = nil
}

// start replaces any running stream with a new cancellable one and returns
// its context.
func (p *guildPlayer) start(track *Track) context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.current = track
	return ctx
}

// finish clears playback state after a stream ends on its own. When ctx is
// already cancelled the stream was replaced or stopped and the state belongs
// to someone else.
func (p *guildPlayer) finish(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.current = nil
}

// stream transcodes the track to ogg/opus with ffmpeg and feeds the opus
// packets to the voice connection until the track ends or ctx is cancelled.
func stream(ctx context.Context, vc *discordgo.VoiceConnection, track *Track) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", track.StreamURL,
		"-vn",
		"-c:a", "libopus",
		"-b:a", "96k",
		"-ar", "48000",
		"-ac", "2",
		"-f", "ogg",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	defer func() {
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.WithError(err).Debug("ffmpeg exited with error")
		}
	}()

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("failed to set speaking state: %w", err)
	}
	defer func() {
		if err := vc.Speaking(false); err != nil {
			log.WithError(err).Debug("Failed to clear speaking state")
		}
	}()

	packets := newOggPacketReader(stdout)
	for {
		packet, err := packets.ReadPacket()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read opus packet: %w", err)
		}

		select {
		case vc.OpusSend <- packet:
		case <-ctx.Done():
			return nil
		}
	}
}
