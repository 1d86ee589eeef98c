package audio

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutput struct {
	mu        sync.Mutex
	written   []float32
	suspended bool
	resumes   int
	closed    int
	writeErr  error
}

func (o *fakeOutput) Write(ctx context.Context, samples []float32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.writeErr != nil {
		return o.writeErr
	}
	o.written = append(o.written, samples...)
	return nil
}

func (o *fakeOutput) Suspended() bool { return o.suspended }

func (o *fakeOutput) Resume() error {
	o.suspended = false
	o.resumes++
	return nil
}

func (o *fakeOutput) Close() error {
	o.closed++
	return nil
}

type outputFactory struct {
	outputs []*fakeOutput
	err     error
	rate    int
}

func (f *outputFactory) open(sampleRate, channels int) (Output, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rate = sampleRate
	o := &fakeOutput{suspended: true}
	f.outputs = append(f.outputs, o)
	return o, nil
}

func TestSharedOutputLazyLifecycle(t *testing.T) {
	f := &outputFactory{}
	shared := NewSharedOutput(f.open, 0, 0)

	assert.False(t, shared.Open())
	assert.Empty(t, f.outputs)

	out, err := shared.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, shared.Open())
	assert.Equal(t, DefaultSampleRate, f.rate)
	assert.Equal(t, 1, f.outputs[0].resumes)

	again, err := shared.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, out, again)
	assert.Len(t, f.outputs, 1)
	assert.Equal(t, 1, f.outputs[0].resumes)

	// platform suspended the device between uses
	f.outputs[0].suspended = true
	_, err = shared.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.outputs[0].resumes)

	require.NoError(t, shared.Release())
	assert.Equal(t, 1, f.outputs[0].closed)
	assert.False(t, shared.Open())
	require.NoError(t, shared.Release())

	_, err = shared.Acquire(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.outputs, 2)
}

func TestSharedOutputOpenFailure(t *testing.T) {
	f := &outputFactory{err: errors.New("no device")}
	shared := NewSharedOutput(f.open, DefaultSampleRate, DefaultChannels)

	_, err := shared.Acquire(context.Background())
	assert.Error(t, err)
	assert.False(t, shared.Open())
}

func TestSpeechPlayerPlay(t *testing.T) {
	f := &outputFactory{}
	player := NewSpeechPlayer(NewSharedOutput(f.open, DefaultSampleRate, DefaultChannels), nil, nil)

	require.NoError(t, player.Play(context.Background(), []byte{0x00, 0x40, 0x00, 0x80}))
	assert.Equal(t, []float32{0.5, -1.0}, f.outputs[0].written)
}

func TestSpeechPlayerErrors(t *testing.T) {
	tests := []struct {
		name    string
		factory *outputFactory
		pcm     []byte
		op      string
	}{
		{"empty audio", &outputFactory{}, nil, "decode"},
		{"device unavailable", &outputFactory{err: errors.New("busy")}, []byte{0, 0}, "acquire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := NewSpeechPlayer(NewSharedOutput(tt.factory.open, DefaultSampleRate, DefaultChannels), nil, nil)
			err := player.Play(context.Background(), tt.pcm)
			var perr *PlaybackError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.op, perr.Op)
		})
	}
}

func TestSpeechPlayerWriteFailureIsRecoverable(t *testing.T) {
	f := &outputFactory{}
	shared := NewSharedOutput(f.open, DefaultSampleRate, DefaultChannels)
	player := NewSpeechPlayer(shared, nil, nil)

	out, err := shared.Acquire(context.Background())
	require.NoError(t, err)
	out.(*fakeOutput).writeErr = errors.New("underrun")

	err = player.Play(context.Background(), []byte{0, 0})
	var perr *PlaybackError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "write", perr.Op)

	out.(*fakeOutput).writeErr = nil
	assert.NoError(t, player.Play(context.Background(), []byte{0, 0}))
}
