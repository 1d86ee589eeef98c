package audio

import (
	"encoding/binary"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVEncoder(t *testing.T) {
	pcm := []byte{0x00, 0x40, 0x00, 0x80}
	data, err := WAVEncoder{}.Encode(pcm, 44100, 1)
	require.NoError(t, err)

	require.Len(t, data, wavHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(44100), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, pcm, data[wavHeaderSize:])
}

func TestWAVEncoderRejectsInvalidInput(t *testing.T) {
	_, err := WAVEncoder{}.Encode(nil, 44100, 1)
	assert.Error(t, err)
	_, err = WAVEncoder{}.Encode([]byte{0, 0}, 0, 1)
	assert.Error(t, err)
	_, err = WAVEncoder{}.Encode([]byte{0, 0}, 44100, 0)
	assert.Error(t, err)
}

func TestEncodersSelect(t *testing.T) {
	enc, err := DefaultEncoders().Select(DefaultFormats)
	require.NoError(t, err)
	assert.Equal(t, MIMEWAV, enc.MIMEType())

	_, err = DefaultEncoders().Select([]string{MIMEOggOpus})
	assert.Error(t, err)
}

func TestBlobExtension(t *testing.T) {
	tests := map[string]string{
		"audio/wav":               ".wav",
		"audio/ogg;codecs=opus":   ".ogg",
		"audio/webm; codecs=opus": ".webm",
		"audio/mp4":               ".m4a",
		"application/x-unknown":   ".bin",
	}
	for mime, want := range tests {
		t.Run(mime, func(t *testing.T) {
			assert.Equal(t, want, (&Blob{MIMEType: mime}).Extension())
		})
	}
}

func TestBlobOpenAndClose(t *testing.T) {
	blob := &Blob{MIMEType: MIMEWAV, Data: []byte("RIFF....")}

	h, err := blob.Open(t.TempDir())
	require.NoError(t, err)
	assert.FileExists(t, h.Path)

	got, err := os.ReadFile(h.Path)
	require.NoError(t, err)
	assert.Equal(t, blob.Data, got)

	path := h.Path
	require.NoError(t, h.Close())
	assert.NoFileExists(t, path)
	assert.NoError(t, h.Close())
}

func TestEmptyBlobOpenIsPlaybackError(t *testing.T) {
	_, err := (&Blob{MIMEType: MIMEWAV}).Open(t.TempDir())
	var perr *PlaybackError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "open", perr.Op)
}
