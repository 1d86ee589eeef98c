package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Container MIME types, most preferred first.
const (
	MIMEOggOpus = "audio/ogg;codecs=opus"
	MIMEWAV     = "audio/wav"
)

// DefaultFormats is the container preference order for recordings.
var DefaultFormats = []string{MIMEOggOpus, MIMEWAV}

// Encoder packs mono or interleaved PCM16 into a container.
type Encoder interface {
	MIMEType() string
	Encode(pcm []byte, sampleRate, channels int) ([]byte, error)
}

// Encoders maps a MIME type to the encoder producing it.
type Encoders map[string]Encoder

// DefaultEncoders returns the encoders available in every build.
func DefaultEncoders() Encoders {
	return Encoders{MIMEWAV: WAVEncoder{}}
}

// Select returns the encoder for the first preferred format that is registered.
func (e Encoders) Select(preferred []string) (Encoder, error) {
	for _, mime := range preferred {
		if enc, ok := e[mime]; ok {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("no encoder for any of %v", preferred)
}

// wavHeader is the canonical 44 byte RIFF/WAVE header for PCM.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

const wavHeaderSize = 44

// WAVEncoder writes 16-bit PCM WAV files.
type WAVEncoder struct{}

// MIMEType implements Encoder.
func (WAVEncoder) MIMEType() string { return MIMEWAV }

// Encode implements Encoder.
func (WAVEncoder) Encode(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errors.New("cannot encode empty audio")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}

	const bitsPerSample = 16
	dataSize := uint32(len(pcm))
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(channels) * bitsPerSample / 8,
		BlockAlign:    uint16(channels) * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}

// Blob is an assembled recording in a container format.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Extension returns the file extension matching the blob's container.
func (b *Blob) Extension() string {
	mime, _, _ := strings.Cut(b.MIMEType, ";")
	switch strings.TrimSpace(mime) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/mp4":
		return ".m4a"
	default:
		return ".bin"
	}
}

// BlobHandle is a playable file backed by a Blob. Close removes the file.
type BlobHandle struct {
	Path string
}

// Open writes the blob to a temporary file in dir (os.TempDir when empty).
func (b *Blob) Open(dir string) (*BlobHandle, error) {
	if len(b.Data) == 0 {
		return nil, playbackErr("open", errEmptyAudio)
	}

	f, err := os.CreateTemp(dir, "lanote-recording-*"+b.Extension())
	if err != nil {
		return nil, playbackErr("open", err)
	}
	if _, err := f.Write(b.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, playbackErr("open", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, playbackErr("open", err)
	}
	return &BlobHandle{Path: f.Name()}, nil
}

// Close removes the backing file.
func (h *BlobHandle) Close() error {
	if h == nil || h.Path == "" {
		return nil
	}
	err := os.Remove(h.Path)
	h.Path = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
