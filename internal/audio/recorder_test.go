package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMicrophone struct {
	frames  int
	readErr error
	closed  atomic.Int32
	reads   atomic.Int32
}

func (m *fakeMicrophone) Read() ([]float32, error) {
	time.Sleep(time.Millisecond)
	m.reads.Add(1)
	if m.readErr != nil {
		return nil, m.readErr
	}
	buf := make([]float32, m.frames)
	for i := range buf {
		buf[i] = 0.25
	}
	return buf, nil
}

func (m *fakeMicrophone) Close() error {
	m.closed.Add(1)
	return nil
}

type micFactory struct {
	mu     sync.Mutex
	mics   []*fakeMicrophone
	err    error
	frames int
}

func (f *micFactory) open(sampleRate, channels, framesPerChunk int) (Microphone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.frames = framesPerChunk
	m := &fakeMicrophone{frames: framesPerChunk * channels}
	f.mics = append(f.mics, m)
	return m, nil
}

func (f *micFactory) opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mics)
}

func newTestRecorder(f *micFactory) *Recorder {
	return NewRecorder(f.open, RecorderConfig{SampleRate: 8000, Chunk: 10 * time.Millisecond}, nil, nil)
}

func waitForChunks(t *testing.T, s *RecordingSession, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Chunks() >= n }, time.Second, time.Millisecond)
}

func TestRecorderFramesPerChunk(t *testing.T) {
	assert.Equal(t, 80, RecorderConfig{SampleRate: 8000, Chunk: 10 * time.Millisecond}.FramesPerChunk())
	assert.Equal(t, 8820, RecorderConfig{}.FramesPerChunk())
}

func TestRecorderStartStop(t *testing.T) {
	f := &micFactory{}
	rec := newTestRecorder(f)

	s, err := rec.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, rec.Active())
	assert.Equal(t, 80, f.frames)
	waitForChunks(t, s, 2)

	blob, err := s.Stop()
	require.NoError(t, err)
	assert.Equal(t, MIMEWAV, blob.MIMEType)
	assert.Equal(t, "RIFF", string(blob.Data[:4]))
	assert.Zero(t, (len(blob.Data)-wavHeaderSize)%(2*80))
	assert.Equal(t, int32(1), f.mics[0].closed.Load())
	assert.False(t, rec.Active())

	again, err2 := s.Stop()
	assert.Same(t, blob, again)
	assert.Equal(t, err, err2)
	assert.Equal(t, int32(1), f.mics[0].closed.Load())
}

func TestRecorderRejectsSecondSession(t *testing.T) {
	f := &micFactory{}
	rec := newTestRecorder(f)

	first, err := rec.Start(context.Background())
	require.NoError(t, err)
	waitForChunks(t, first, 1)

	second, err := rec.Start(context.Background())
	assert.ErrorIs(t, err, ErrRecordingActive)
	assert.Nil(t, second)
	assert.Equal(t, 1, f.opened())

	// the first session keeps capturing
	before := first.Chunks()
	waitForChunks(t, first, before+1)
	assert.Zero(t, f.mics[0].closed.Load())

	_, err = first.Stop()
	require.NoError(t, err)

	third, err := rec.Start(context.Background())
	require.NoError(t, err)
	waitForChunks(t, third, 1)
	_, err = third.Stop()
	require.NoError(t, err)
}

func TestRecorderPermissionDenied(t *testing.T) {
	f := &micFactory{err: errors.New("device unavailable")}
	rec := newTestRecorder(f)

	s, err := rec.Start(context.Background())
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.False(t, rec.Active())

	f.err = nil
	s, err = rec.Start(context.Background())
	require.NoError(t, err)
	s.Stop()
}

func TestRecorderCloseReleasesMicrophone(t *testing.T) {
	f := &micFactory{}
	rec := newTestRecorder(f)

	s, err := rec.Start(context.Background())
	require.NoError(t, err)
	waitForChunks(t, s, 1)

	require.NoError(t, rec.Close())
	assert.Equal(t, int32(1), f.mics[0].closed.Load())
	assert.False(t, rec.Active())

	_, err = rec.Start(context.Background())
	assert.ErrorIs(t, err, ErrRecorderClosed)
	assert.NoError(t, rec.Close())
}

func TestRecorderContextCancelReleasesMicrophone(t *testing.T) {
	f := &micFactory{}
	rec := newTestRecorder(f)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := rec.Start(ctx)
	require.NoError(t, err)
	waitForChunks(t, s, 1)

	cancel()
	require.Eventually(t, func() bool { return f.mics[0].closed.Load() == 1 }, time.Second, time.Millisecond)

	blob, err := s.Stop()
	require.NoError(t, err)
	assert.NotEmpty(t, blob.Data)
}

func TestRecorderReadFailure(t *testing.T) {
	f := &micFactory{}
	rec := NewRecorder(func(sampleRate, channels, frames int) (Microphone, error) {
		m, _ := f.open(sampleRate, channels, frames)
		m.(*fakeMicrophone).readErr = errors.New("stream broke")
		return m, nil
	}, RecorderConfig{SampleRate: 8000, Chunk: 10 * time.Millisecond}, nil, nil)

	s, err := rec.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.mics[0].closed.Load() == 1 }, time.Second, time.Millisecond)

	_, err = s.Stop()
	var perr *PlaybackError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "capture", perr.Op)
}

func TestRecorderNoEncoderForPreferences(t *testing.T) {
	f := &micFactory{}
	rec := NewRecorder(f.open, RecorderConfig{
		SampleRate: 8000,
		Chunk:      10 * time.Millisecond,
		Formats:    []string{MIMEOggOpus},
	}, nil, nil)

	s, err := rec.Start(context.Background())
	require.NoError(t, err)
	waitForChunks(t, s, 1)

	_, err = s.Stop()
	var perr *PlaybackError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "assemble", perr.Op)
	assert.Equal(t, int32(1), f.mics[0].closed.Load())
}
