package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/domain/track"
)

// ErrPipeBusy is returned when a pipe is started while another still runs.
var ErrPipeBusy = errors.New("another audio pipe is still running")

// AudioConfig configures the transcoder.
type AudioConfig struct {
	FFmpegPath string
	Bitrate    int
}

// Gateway joins voice channels in the client's guild.
type Gateway struct {
	client *Client
	audio  AudioConfig

	mu      sync.Mutex
	session *voiceSession
}

// NewGateway creates a voice gateway.
func NewGateway(client *Client, audio AudioConfig) *Gateway {
	if audio.FFmpegPath == "" {
		audio.FFmpegPath = "ffmpeg"
	}
	if audio.Bitrate <= 0 {
		audio.Bitrate = 96000
	}
	return &Gateway{client: client, audio: audio}
}

// Connect joins channelID, or moves the existing connection there.
// The same Session is returned while the connection stays up.
func (g *Gateway) Connect(ctx context.Context, channelID string) (playback.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session != nil && g.session.IsConnected() {
		if g.session.ChannelID() == channelID {
			return g.session, nil
		}
		zlog.Info().Msgf("moving voice connection: from=%s to=%s", g.session.ChannelID(), channelID)
		if err := g.session.vc.ChangeChannel(channelID, false, true); err != nil {
			return nil, errors.Wrapf(err, "failed to move to voice channel %s", channelID)
		}
		return g.session, nil
	}

	type joinResult struct {
		vc  *discordgo.VoiceConnection
		err error
	}
	done := make(chan joinResult, 1)
	go func() {
		vc, err := g.client.dg.ChannelVoiceJoin(g.client.guildID, channelID, false, true)
		done <- joinResult{vc, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, errors.Wrapf(res.err, "failed to join voice channel %s", channelID)
		}
		zlog.Info().Msgf("joined voice channel: channel=%s guild=%s", channelID, g.client.guildID)
		g.session = &voiceSession{vc: res.vc, audio: g.audio}
		return g.session, nil
	case <-ctx.Done():
		go func() {
			// Late joins are left again so no connection leaks.
			if res := <-done; res.err == nil && res.vc != nil {
				_ = res.vc.Disconnect()
			}
		}()
		return nil, errors.Wrapf(ctx.Err(), "timed out joining voice channel %s", channelID)
	}
}

// voiceSession hosts at most one audio pipe on a voice connection.
type voiceSession struct {
	vc    *discordgo.VoiceConnection
	audio AudioConfig

	mu   sync.Mutex
	pipe *pipe
}

func (s *voiceSession) ChannelID() string {
	s.vc.RLock()
	defer s.vc.RUnlock()
	return s.vc.ChannelID
}

func (s *voiceSession) IsConnected() bool {
	s.vc.RLock()
	defer s.vc.RUnlock()
	return s.vc.Ready
}

func (s *voiceSession) Disconnect() error {
	s.mu.Lock()
	p := s.pipe
	s.pipe = nil
	s.mu.Unlock()
	if p != nil {
		p.Stop()
	}
	if err := s.vc.Disconnect(); err != nil {
		return errors.Wrap(err, "failed to disconnect voice")
	}
	zlog.Info().Msg("left voice channel")
	return nil
}

func (s *voiceSession) StartPipe(stream track.Stream, volume float64, onComplete func(error)) (playback.Pipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipe != nil && s.pipe.IsActive() {
		return nil, ErrPipeBusy
	}

	p, err := startPipe(s.vc, s.audio, stream, volume, onComplete)
	if err != nil {
		return nil, err
	}
	s.pipe = p
	return p, nil
}
