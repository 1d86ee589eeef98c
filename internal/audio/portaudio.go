package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// DefaultFramesPerBuffer is the device buffer size for speech output.
const DefaultFramesPerBuffer = 1024

// OpenPortAudioOutput opens the default output device. The stream starts
// suspended and is resumed on first use.
func OpenPortAudioOutput(sampleRate, channels int) (Output, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	buf := make([]float32, DefaultFramesPerBuffer*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), DefaultFramesPerBuffer, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}

	return newStreamOutput(stream, buf, func() { _ = portaudio.Terminate() }), nil
}

// outputStream is the part of *portaudio.Stream used for playback.
type outputStream interface {
	Start() error
	Write() error
	Abort() error
	Close() error
}

var errOutputClosed = errors.New("output is closed")

// streamOutput writes blocking buffers to a stream. Close aborts a clip
// that is still playing instead of waiting for it.
type streamOutput struct {
	stream    outputStream
	buf       []float32
	terminate func()

	// writeMu serialises writers; Close never holds it across a buffer.
	writeMu sync.Mutex
	mu      sync.Mutex
	running bool
	closed  atomic.Bool
}

func newStreamOutput(stream outputStream, buf []float32, terminate func()) *streamOutput {
	return &streamOutput{stream: stream, buf: buf, terminate: terminate}
}

func (o *streamOutput) Write(ctx context.Context, samples []float32) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	for len(samples) > 0 {
		if o.closed.Load() {
			return errOutputClosed
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(o.buf, samples)
		clear(o.buf[n:])
		samples = samples[n:]
		if err := o.stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
			if o.closed.Load() {
				return errOutputClosed
			}
			return fmt.Errorf("failed to write to output stream: %w", err)
		}
	}
	return nil
}

func (o *streamOutput) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.running
}

func (o *streamOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed.Load() {
		return errOutputClosed
	}
	if o.running {
		return nil
	}
	if err := o.stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	o.running = true
	return nil
}

// Close stops playback within one buffer and releases the device.
func (o *streamOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed.Swap(true) {
		return nil
	}
	if o.running {
		// unblocks a writer waiting on the device
		_ = o.stream.Abort()
		o.running = false
	}

	// wait for the writer to leave the stream before closing it
	o.writeMu.Lock()
	err := o.stream.Close()
	o.writeMu.Unlock()

	if o.terminate != nil {
		o.terminate()
	}
	return err
}

// OpenPortAudioMicrophone opens the default input device.
func OpenPortAudioMicrophone(sampleRate, channels, framesPerChunk int) (Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	buf := make([]float32, framesPerChunk*channels)
	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), framesPerChunk, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	return &portaudioMicrophone{stream: stream, buf: buf}, nil
}

type portaudioMicrophone struct {
	stream    *portaudio.Stream
	buf       []float32
	closeOnce sync.Once
}

func (m *portaudioMicrophone) Read() ([]float32, error) {
	if err := m.stream.Read(); err != nil && err != portaudio.InputOverflowed {
		return nil, err
	}
	return m.buf, nil
}

func (m *portaudioMicrophone) Close() error {
	var err error
	m.closeOnce.Do(func() {
		_ = m.stream.Stop()
		err = m.stream.Close()
		_ = portaudio.Terminate()
	})
	return err
}
