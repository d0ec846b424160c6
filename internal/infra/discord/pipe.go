package discord

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/hraban/opus"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/domain/track"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
	maxPacket  = 4000
)

// pipe transcodes one stream with ffmpeg and sends opus frames to Discord.
type pipe struct {
	vc         *discordgo.VoiceConnection
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	stderr     *bytes.Buffer
	encoder    *opus.Encoder
	onComplete func(error)

	gain    atomic.Uint64 // math.Float64bits of the current gain
	active  atomic.Bool
	stopped atomic.Bool

	mu       sync.Mutex
	paused   bool
	resumeCh chan struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func startPipe(vc *discordgo.VoiceConnection, audio AudioConfig, stream track.Stream, volume float64, onComplete func(error)) (*pipe, error) {
	encoder, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, errors.Wrap(err, "encoder error")
	}
	if err := encoder.SetBitrate(audio.Bitrate); err != nil {
		return nil, errors.Wrap(err, "failed to set bitrate")
	}

	cmd := exec.Command(audio.FFmpegPath, ffmpegArgs(stream)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdout pipe error")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start ffmpeg")
	}

	p := &pipe{
		vc:         vc,
		cmd:        cmd,
		stdout:     stdout,
		stderr:     &stderr,
		encoder:    encoder,
		onComplete: onComplete,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
	p.gain.Store(math.Float64bits(clampVolume(volume)))
	p.active.Store(true)

	zlog.Debug().Msgf("audio pipe started: live=%t volume=%.2f", stream.Live, volume)
	go p.run()
	return p, nil
}

// ffmpegArgs builds the transcoder command line: decode url to 48 kHz stereo
// s16le PCM on stdout.
func ffmpegArgs(stream track.Stream) []string {
	args := []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
	}
	if len(stream.Headers) > 0 {
		keys := make([]string, 0, len(stream.Headers))
		for k := range stream.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			b.WriteString(k + ": " + stream.Headers[k] + "\r\n")
		}
		args = append(args, "-headers", b.String())
	}
	return append(args,
		"-i", stream.URL,
		"-vn",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-loglevel", "warning",
		"pipe:1",
	)
}

func (p *pipe) run() {
	err := p.stream()

	p.active.Store(false)
	_ = p.vc.Speaking(false)
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	waitErr := p.cmd.Wait()

	if p.stopped.Load() {
		err = nil
	} else if err == nil && waitErr != nil {
		err = p.exitError(waitErr)
	}

	close(p.done)
	if err != nil {
		zlog.Warn().Msgf("audio pipe ended with error: %v", err)
	} else {
		zlog.Debug().Msg("audio pipe finished")
	}
	if p.onComplete != nil {
		p.onComplete(err)
	}
}

func (p *pipe) stream() error {
	pcmBuf := make([]byte, frameSize*channels*2)
	intBuf := make([]int16, frameSize*channels)
	packet := make([]byte, maxPacket)

	_ = p.vc.Speaking(true)
	for {
		if !p.waitIfPaused() {
			return nil
		}

		if _, err := io.ReadFull(p.stdout, pcmBuf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return errors.Wrap(err, "read error")
		}

		for i := range intBuf {
			intBuf[i] = int16(binary.LittleEndian.Uint16(pcmBuf[i*2 : i*2+2]))
		}
		applyGain(intBuf, math.Float64frombits(p.gain.Load()))

		n, err := p.encoder.Encode(intBuf, packet)
		if err != nil {
			return errors.Wrap(err, "encode error")
		}
		frame := make([]byte, n)
		copy(frame, packet[:n])

		select {
		case p.vc.OpusSend <- frame:
		case <-p.stopCh:
			return nil
		}
	}
}

// waitIfPaused blocks while paused. It returns false once the pipe is stopped.
func (p *pipe) waitIfPaused() bool {
	p.mu.Lock()
	paused, resume := p.paused, p.resumeCh
	p.mu.Unlock()

	if paused {
		_ = p.vc.Speaking(false)
		select {
		case <-resume:
			_ = p.vc.Speaking(true)
		case <-p.stopCh:
			return false
		}
	}

	select {
	case <-p.stopCh:
		return false
	default:
		return true
	}
}

func (p *pipe) exitError(err error) error {
	msg := strings.TrimSpace(p.stderr.String())
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		msg = msg[i+1:]
	}
	if msg == "" {
		return errors.Wrap(err, "ffmpeg failed")
	}
	return errors.Wrapf(err, "ffmpeg failed: %s", msg)
}

func (p *pipe) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.stopCh)
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
	})
}

func (p *pipe) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		p.paused = true
		p.resumeCh = make(chan struct{})
	}
}

func (p *pipe) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resumeCh)
	}
}

func (p *pipe) SetVolume(v float64) {
	p.gain.Store(math.Float64bits(clampVolume(v)))
}

func (p *pipe) IsActive() bool {
	return p.active.Load()
}

func (p *pipe) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *pipe) Done() <-chan struct{} {
	return p.done
}
