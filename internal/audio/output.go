package audio

import (
	"context"
	"fmt"
	"sync"
)

// Output is a device sink for interleaved float samples.
type Output interface {
	// Write blocks until samples have been handed to the device.
	Write(ctx context.Context, samples []float32) error
	// Suspended reports whether the device must be resumed before writing.
	Suspended() bool
	Resume() error
	Close() error
}

// OutputOpener opens a device output at the given format.
type OutputOpener func(sampleRate, channels int) (Output, error)

// SharedOutput is the process-wide speech output. The device is opened on
// first use and closed by Release; a later Acquire opens it again.
type SharedOutput struct {
	open       OutputOpener
	sampleRate int
	channels   int

	mu  sync.Mutex
	out Output
}

// NewSharedOutput creates a shared output that opens its device lazily.
func NewSharedOutput(open OutputOpener, sampleRate, channels int) *SharedOutput {
	if sampleRate < 1 {
		sampleRate = DefaultSampleRate
	}
	if channels < 1 {
		channels = DefaultChannels
	}
	return &SharedOutput{open: open, sampleRate: sampleRate, channels: channels}
}

// SampleRate returns the rate the device is opened at.
func (s *SharedOutput) SampleRate() int { return s.sampleRate }

// Channels returns the channel count the device is opened with.
func (s *SharedOutput) Channels() int { return s.channels }

// Acquire returns the output, opening it on first use and resuming it if
// the platform suspended it.
func (s *SharedOutput) Acquire(ctx context.Context) (Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out == nil {
		out, err := s.open(s.sampleRate, s.channels)
		if err != nil {
			return nil, fmt.Errorf("failed to open audio output: %w", err)
		}
		s.out = out
	}

	if s.out.Suspended() {
		if err := s.out.Resume(); err != nil {
			return nil, fmt.Errorf("failed to resume audio output: %w", err)
		}
	}

	return s.out, nil
}

// Open reports whether the device is currently held.
func (s *SharedOutput) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out != nil
}

// Release closes the device if it is open. It is safe to call repeatedly.
func (s *SharedOutput) Release() error {
	s.mu.Lock()
	out := s.out
	s.out = nil
	s.mu.Unlock()

	if out == nil {
		return nil
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close audio output: %w", err)
	}
	return nil
}
