package testutil

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/snonux/lanote/internal/audio"
)

// FakeOutput is an in-memory audio.Output that starts suspended.
type FakeOutput struct {
	mu        sync.Mutex
	written   []float32
	suspended bool
	resumes   int
	closed    int
}

// Written returns every sample written so far.
func (o *FakeOutput) Written() []float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]float32(nil), o.written...)
}

// Closed returns how often the output was closed.
func (o *FakeOutput) Closed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *FakeOutput) Write(ctx context.Context, samples []float32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.written = append(o.written, samples...)
	return nil
}

func (o *FakeOutput) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suspended
}

func (o *FakeOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = false
	o.resumes++
	return nil
}

func (o *FakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed++
	return nil
}

// FakeDevices opens fake speakers and microphones and remembers them.
type FakeDevices struct {
	// MicErr makes every microphone open fail.
	MicErr error

	mu      sync.Mutex
	outputs []*FakeOutput
	mics    []*FakeMicrophone
}

// OpenOutput is an audio.OutputOpener.
func (f *FakeDevices) OpenOutput(sampleRate, channels int) (audio.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := &FakeOutput{suspended: true}
	f.outputs = append(f.outputs, o)
	return o, nil
}

// OpenMicrophone is an audio.MicrophoneOpener.
func (f *FakeDevices) OpenMicrophone(sampleRate, channels, framesPerChunk int) (audio.Microphone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MicErr != nil {
		return nil, f.MicErr
	}
	m := &FakeMicrophone{frames: framesPerChunk * channels}
	f.mics = append(f.mics, m)
	return m, nil
}

// Outputs returns the outputs opened so far.
func (f *FakeDevices) Outputs() []*FakeOutput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeOutput(nil), f.outputs...)
}

// Microphones returns the microphones opened so far.
func (f *FakeDevices) Microphones() []*FakeMicrophone {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeMicrophone(nil), f.mics...)
}

var errMicClosed = errors.New("microphone closed")

// FakeMicrophone yields a constant signal until closed.
type FakeMicrophone struct {
	frames int
	closed atomic.Int32
	reads  atomic.Int32
}

func (m *FakeMicrophone) Read() ([]float32, error) {
	time.Sleep(time.Millisecond)
	if m.closed.Load() > 0 {
		return nil, errMicClosed
	}
	m.reads.Add(1)
	buf := make([]float32, m.frames)
	for i := range buf {
		buf[i] = 0.5
	}
	return buf, nil
}

func (m *FakeMicrophone) Close() error {
	m.closed.Add(1)
	return nil
}

// Released reports whether the microphone was closed.
func (m *FakeMicrophone) Released() bool { return m.closed.Load() > 0 }

// Reads returns how many chunks were read.
func (m *FakeMicrophone) Reads() int { return int(m.reads.Load()) }

// FakePlayer records the files it was asked to play.
type FakePlayer struct {
	// Err is returned by Play when set.
	Err error

	mu      sync.Mutex
	played  [][]byte
	stopped int
}

func (p *FakePlayer) Play(ctx context.Context, h *audio.BlobHandle) error {
	if p.Err != nil {
		return p.Err
	}
	data, err := os.ReadFile(h.Path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, data)
	return nil
}

func (p *FakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped++
}

// Played returns the contents of every played file.
func (p *FakePlayer) Played() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.played...)
}

// Stopped returns how often Stop was called.
func (p *FakePlayer) Stopped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}
