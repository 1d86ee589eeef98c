package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// DefaultSampleRate is the rate generated speech is delivered at.
	DefaultSampleRate = 24000

	// DefaultChannels is the channel count of generated speech.
	DefaultChannels = 1
)

// WaveformBuffer holds decoded samples in [-1.0, 1.0], one slice per channel.
type WaveformBuffer struct {
	SampleRate int
	Channels   int
	Frames     int
	Samples    [][]float32
}

// Decode converts little-endian 16-bit signed PCM into a WaveformBuffer.
// An odd-length input is padded with one zero byte, never truncated.
func Decode(data []byte, sampleRate, channels int) (*WaveformBuffer, error) {
	if sampleRate < 1 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	if len(data)%2 != 0 {
		padded := make([]byte, len(data)+1)
		copy(padded, data)
		data = padded
	}

	frames := len(data) / 2 / channels
	buf := &WaveformBuffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Frames:     frames,
		Samples:    make([][]float32, channels),
	}
	for c := range buf.Samples {
		buf.Samples[c] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := 2 * (i*channels + c)
			v := int16(binary.LittleEndian.Uint16(data[off : off+2]))
			buf.Samples[c][i] = float32(v) / 32768.0
		}
	}

	return buf, nil
}

// Interleaved returns the samples frame by frame, channels interleaved.
func (w *WaveformBuffer) Interleaved() []float32 {
	out := make([]float32, 0, w.Frames*w.Channels)
	for i := 0; i < w.Frames; i++ {
		for c := 0; c < w.Channels; c++ {
			out = append(out, w.Samples[c][i])
		}
	}
	return out
}

// Duration returns the playback length at the buffer's sample rate.
func (w *WaveformBuffer) Duration() time.Duration {
	if w.SampleRate == 0 {
		return 0
	}
	return time.Duration(w.Frames) * time.Second / time.Duration(w.SampleRate)
}

// EncodePCM16 converts float samples to little-endian 16-bit PCM,
// clamping to the representable range.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		v := int32(s * 32768)
		if v > 32767 {
			v = 32767
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
	}
	return out
}
