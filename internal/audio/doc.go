// Package audio decodes generated speech and captures the learner's own
// pronunciation attempts.
//
// There are two playback paths. Generated speech arrives as raw PCM16, is
// decoded into a WaveformBuffer and rendered through a SharedOutput.
// Recordings are captured from the microphone in short chunks, assembled
// into a container blob (WAV unless a better encoder is registered) and
// played back through the platform's native player.
package audio
