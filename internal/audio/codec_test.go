package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		channels int
		frames   int
		samples  [][]float32
	}{
		{
			name:     "even length mono",
			data:     []byte{0x00, 0x40, 0x00, 0x80}, // 16384, -32768
			channels: 1,
			frames:   2,
			samples:  [][]float32{{0.5, -1.0}},
		},
		{
			name:     "odd length is padded",
			data:     []byte{0x00, 0x40, 0x00, 0x80, 0x01},
			channels: 1,
			frames:   3,
			samples:  [][]float32{{0.5, -1.0, 1.0 / 32768.0}},
		},
		{
			name:     "stereo is deinterleaved",
			data:     []byte{0x00, 0x40, 0x00, 0xC0, 0xFF, 0x7F, 0x00, 0x00},
			channels: 2,
			frames:   2,
			samples:  [][]float32{{0.5, 32767.0 / 32768.0}, {-0.5, 0}},
		},
		{
			name:     "stereo drops a trailing partial frame",
			data:     []byte{0x00, 0x40, 0x00, 0xC0, 0xFF, 0x7F},
			channels: 2,
			frames:   1,
			samples:  [][]float32{{0.5}, {-0.5}},
		},
		{
			name:     "empty input",
			data:     nil,
			channels: 1,
			frames:   0,
			samples:  [][]float32{{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := Decode(tt.data, DefaultSampleRate, tt.channels)
			require.NoError(t, err)
			assert.Equal(t, DefaultSampleRate, buf.SampleRate)
			assert.Equal(t, tt.channels, buf.Channels)
			assert.Equal(t, tt.frames, buf.Frames)
			assert.Equal(t, tt.samples, buf.Samples)
		})
	}
}

func TestDecodeDoesNotModifyInput(t *testing.T) {
	data := []byte{0x00, 0x40, 0x01}
	_, err := Decode(data, DefaultSampleRate, DefaultChannels)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x40, 0x01}, data)
}

func TestDecodeIsDeterministic(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9A}
	a, err := Decode(data, DefaultSampleRate, DefaultChannels)
	require.NoError(t, err)
	b, err := Decode(data, DefaultSampleRate, DefaultChannels)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeRejectsBadFormat(t *testing.T) {
	_, err := Decode([]byte{0, 0}, 0, 1)
	assert.Error(t, err)
	_, err = Decode([]byte{0, 0}, DefaultSampleRate, 0)
	assert.Error(t, err)
}

func TestWaveformHelpers(t *testing.T) {
	buf, err := Decode(make([]byte, 2*2*24000), DefaultSampleRate, 2)
	require.NoError(t, err)
	assert.Equal(t, time.Second, buf.Duration())
	assert.Len(t, buf.Interleaved(), 48000)

	stereo, err := Decode([]byte{0x00, 0x40, 0x00, 0xC0}, DefaultSampleRate, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.5}, stereo.Interleaved())
}

func TestEncodePCM16RoundTrip(t *testing.T) {
	pcm := EncodePCM16([]float32{0.5, -1.0, 2.0, -3.0})
	assert.Equal(t, []byte{0x00, 0x40, 0x00, 0x80, 0xFF, 0x7F, 0x00, 0x80}, pcm)

	buf, err := Decode(pcm[:4], DefaultSampleRate, DefaultChannels)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1.0}, buf.Samples[0])
}
