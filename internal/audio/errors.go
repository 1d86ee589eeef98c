package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied is returned when the microphone cannot be opened.
	ErrPermissionDenied = errors.New("microphone access denied, please allow permissions")

	// ErrRecordingActive is returned by Start while a session is running.
	ErrRecordingActive = errors.New("a recording is already in progress")

	// ErrRecorderClosed is returned by Start after Close.
	ErrRecorderClosed = errors.New("recorder is closed")

	errEmptyAudio = errors.New("no audio data")
)

// PlaybackError reports a decode, device or blob failure on either
// playback path. The caller may simply try again.
type PlaybackError struct {
	Op  string
	Err error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback failed during %s: %v", e.Op, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

func playbackErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PlaybackError{Op: op, Err: err}
}
