package audio

import (
	"context"
	"log/slog"

	"codeberg.org/snonux/lanote/internal/metrics"
)

// SpeechPlayer renders generated PCM16 speech through a SharedOutput.
type SpeechPlayer struct {
	output  *SharedOutput
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSpeechPlayer creates a player on top of output. logger and m may be nil.
func NewSpeechPlayer(output *SharedOutput, logger *slog.Logger, m *metrics.Metrics) *SpeechPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeechPlayer{output: output, logger: logger, metrics: m}
}

// Play decodes pcm at the output's format and blocks until it was written.
// Every failure is a *PlaybackError.
func (p *SpeechPlayer) Play(ctx context.Context, pcm []byte) (err error) {
	defer func() { p.metrics.Played("speech", err) }()

	wave, err := Decode(pcm, p.output.SampleRate(), p.output.Channels())
	if err != nil {
		return playbackErr("decode", err)
	}
	if wave.Frames == 0 {
		return playbackErr("decode", errEmptyAudio)
	}

	out, err := p.output.Acquire(ctx)
	if err != nil {
		return playbackErr("acquire", err)
	}

	p.logger.Debug("playing speech", "frames", wave.Frames, "duration", wave.Duration())
	if err := out.Write(ctx, wave.Interleaved()); err != nil {
		return playbackErr("write", err)
	}
	return nil
}
