package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"codeberg.org/snonux/lanote/internal/metrics"
)

const (
	// DefaultRecordSampleRate is the capture rate for the microphone.
	DefaultRecordSampleRate = 44100

	// DefaultChunk is the capture slice length.
	DefaultChunk = 200 * time.Millisecond
)

// Microphone is an open capture device.
type Microphone interface {
	// Read blocks until one chunk of interleaved samples is available.
	// The returned slice is only valid until the next call.
	Read() ([]float32, error)
	Close() error
}

// MicrophoneOpener opens the default input device.
type MicrophoneOpener func(sampleRate, channels, framesPerChunk int) (Microphone, error)

// RecorderConfig configures a Recorder. Zero values select defaults.
type RecorderConfig struct {
	SampleRate int
	Channels   int
	Chunk      time.Duration
	Formats    []string
	Encoders   Encoders
}

func (c RecorderConfig) withDefaults() RecorderConfig {
	if c.SampleRate < 1 {
		c.SampleRate = DefaultRecordSampleRate
	}
	if c.Channels < 1 {
		c.Channels = DefaultChannels
	}
	if c.Chunk <= 0 {
		c.Chunk = DefaultChunk
	}
	if len(c.Formats) == 0 {
		c.Formats = DefaultFormats
	}
	if c.Encoders == nil {
		c.Encoders = DefaultEncoders()
	}
	return c
}

// FramesPerChunk returns how many frames make up one capture slice.
func (c RecorderConfig) FramesPerChunk() int {
	c = c.withDefaults()
	n := int(int64(c.SampleRate) * int64(c.Chunk) / int64(time.Second))
	if n < 1 {
		n = 1
	}
	return n
}

// Recorder owns at most one RecordingSession at a time.
type Recorder struct {
	open    MicrophoneOpener
	cfg     RecorderConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	active *RecordingSession
	closed bool
}

// NewRecorder creates a recorder. logger and m may be nil.
func NewRecorder(open MicrophoneOpener, cfg RecorderConfig, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{open: open, cfg: cfg.withDefaults(), logger: logger, metrics: m}
}

// Start opens the microphone and begins capturing. It fails with
// ErrRecordingActive while another session runs, leaving that session alone,
// and with ErrPermissionDenied when the device cannot be opened.
func (r *Recorder) Start(ctx context.Context) (*RecordingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRecorderClosed
	}
	if r.active != nil {
		return nil, ErrRecordingActive
	}

	mic, err := r.open(r.cfg.SampleRate, r.cfg.Channels, r.cfg.FramesPerChunk())
	if err != nil {
		r.metrics.Recorded(0, err)
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &RecordingSession{
		rec:     r,
		mic:     mic,
		cancel:  cancel,
		done:    make(chan struct{}),
		started: time.Now(),
	}
	r.active = s
	go s.capture(ctx)

	r.logger.Debug("recording started", "sample_rate", r.cfg.SampleRate, "chunk", r.cfg.Chunk)
	return s, nil
}

// Active reports whether a session is running.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Close stops any running session, discarding its recording, and rejects
// further Start calls. The microphone is always released.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	s := r.active
	r.mu.Unlock()

	if s != nil {
		s.Stop()
	}
	return nil
}

func (r *Recorder) finish(s *RecordingSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == s {
		r.active = nil
	}
}

// RecordingSession is one microphone capture.
type RecordingSession struct {
	rec     *Recorder
	mic     Microphone
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time

	releaseOnce sync.Once
	stopOnce    sync.Once

	mu      sync.Mutex
	chunks  [][]float32
	readErr error

	blob *Blob
	err  error
}

func (s *RecordingSession) capture(ctx context.Context) {
	defer close(s.done)
	defer s.release()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		samples, err := s.mic.Read()
		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			s.rec.logger.Warn("microphone read failed", "error", err)
			return
		}

		s.mu.Lock()
		s.chunks = append(s.chunks, append([]float32(nil), samples...))
		s.mu.Unlock()
	}
}

func (s *RecordingSession) release() {
	s.releaseOnce.Do(func() {
		if err := s.mic.Close(); err != nil {
			s.rec.logger.Warn("failed to release microphone", "error", err)
		}
	})
}

// Chunks returns the number of slices captured so far.
func (s *RecordingSession) Chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// Elapsed returns the time since the session started.
func (s *RecordingSession) Elapsed() time.Duration {
	return time.Since(s.started)
}

// Stop ends the capture, releases the microphone and assembles the chunks
// into one container blob. Repeated calls return the same result.
func (s *RecordingSession) Stop() (*Blob, error) {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
		s.rec.finish(s)

		s.blob, s.err = s.assemble()
		size := 0
		if s.blob != nil {
			size = len(s.blob.Data)
		}
		s.rec.metrics.Recorded(size, s.err)
		s.rec.logger.Debug("recording stopped", "chunks", len(s.chunks), "bytes", size, "error", s.err)
	})
	return s.blob, s.err
}

func (s *RecordingSession) assemble() (*Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.chunks) == 0 {
		if s.readErr != nil {
			return nil, playbackErr("capture", s.readErr)
		}
		return nil, playbackErr("assemble", errEmptyAudio)
	}

	cfg := s.rec.cfg
	enc, err := cfg.Encoders.Select(cfg.Formats)
	if err != nil {
		return nil, playbackErr("assemble", err)
	}

	n := 0
	for _, c := range s.chunks {
		n += len(c)
	}
	samples := make([]float32, 0, n)
	for _, c := range s.chunks {
		samples = append(samples, c...)
	}

	data, err := enc.Encode(EncodePCM16(samples), cfg.SampleRate, cfg.Channels)
	if err != nil {
		return nil, playbackErr("assemble", err)
	}
	return &Blob{MIMEType: enc.MIMEType(), Data: data}, nil
}
