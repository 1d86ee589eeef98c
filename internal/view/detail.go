package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"codeberg.org/snonux/lanote/internal/audio"
	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/enrich"
	"codeberg.org/snonux/lanote/internal/metrics"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("view is closed")
	// ErrNoAudio means the card has no pronunciation yet.
	ErrNoAudio = errors.New("no pronunciation audio; enrich the card first")
	// ErrNotRecording means StopRecording was called without a session.
	ErrNotRecording = errors.New("no recording in progress")
	// ErrNoRecording means there is nothing to replay.
	ErrNoRecording = errors.New("nothing recorded yet")
)

// Player plays a recorded container blob.
type Player interface {
	Play(ctx context.Context, h *audio.BlobHandle) error
	Stop()
}

// Deps are the collaborators a view is built from. Output is shared by all
// views; a recorder is created per view from Microphone.
type Deps struct {
	Orchestrator *enrich.Orchestrator
	Output       *audio.SharedOutput
	Microphone   audio.MicrophoneOpener
	Recording    audio.RecorderConfig
	Player       Player
	// Fields is the required set; AllFields when empty.
	Fields card.FieldSet
	// TempDir holds playable recordings; the OS default when empty.
	TempDir string
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Detail is an open card detail view.
type Detail struct {
	scope    *enrich.Scope
	speech   *audio.SpeechPlayer
	output   *audio.SharedOutput
	recorder *audio.Recorder
	player   Player
	fields   card.FieldSet
	tempDir  string
	logger   *slog.Logger

	mu        sync.Mutex
	card      card.VocabCard
	session   *audio.RecordingSession
	recording *audio.Blob
	closed    bool
}

// Open opens a detail view for c.
func Open(c card.VocabCard, deps Deps) *Detail {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fields := deps.Fields
	if len(fields) == 0 {
		fields = card.AllFields
	}

	d := &Detail{
		scope:   deps.Orchestrator.NewScope(),
		output:  deps.Output,
		player:  deps.Player,
		fields:  fields,
		tempDir: deps.TempDir,
		logger:  logger.With("card", c.ID),
		card:    c,
	}
	if deps.Output != nil {
		d.speech = audio.NewSpeechPlayer(deps.Output, logger, deps.Metrics)
	}
	if deps.Microphone != nil {
		d.recorder = audio.NewRecorder(deps.Microphone, deps.Recording, logger, deps.Metrics)
	}
	return d
}

// Card returns the card as currently shown.
func (d *Detail) Card() card.VocabCard {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.card
}

// Complete reports whether every required detail is cached.
func (d *Detail) Complete() bool {
	return card.IsComplete(d.Card().Details, d.fields)
}

// Enrich fetches the missing details. It returns enrich.ErrDiscarded when
// the view was closed before the results arrived.
func (d *Detail) Enrich(ctx context.Context) (card.Details, error) {
	c := d.Card()
	details, err := d.scope.EnrichFields(ctx, c, d.fields)
	if err != nil {
		return c.Details, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return details, enrich.ErrDiscarded
	}
	d.card.Details = details
	return details, nil
}

// PlaySpeech plays the generated pronunciation.
func (d *Detail) PlaySpeech(ctx context.Context) error {
	if d.isClosed() {
		return ErrClosed
	}
	pcm, ok := d.Card().Details.Audio.Value()
	if !ok || len(pcm) == 0 {
		return ErrNoAudio
	}
	if d.speech == nil {
		return errors.New("no audio output configured")
	}
	return d.speech.Play(ctx, pcm)
}

// StartRecording starts capturing the microphone. It fails with
// audio.ErrRecordingActive while a recording runs and with
// audio.ErrPermissionDenied when the microphone cannot be opened.
func (d *Detail) StartRecording(ctx context.Context) error {
	if d.recorder == nil {
		return errors.New("no microphone configured")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	s, err := d.recorder.Start(ctx)
	if err != nil {
		return err
	}
	d.session = s
	return nil
}

// Recording reports whether a recording is in progress and for how long.
func (d *Detail) Recording() (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return 0, false
	}
	return d.session.Elapsed(), true
}

// StopRecording stops the recording and keeps the result for replay.
func (d *Detail) StopRecording() (*audio.Blob, error) {
	d.mu.Lock()
	s := d.session
	d.session = nil
	d.mu.Unlock()

	if s == nil {
		return nil, ErrNotRecording
	}

	blob, err := s.Stop()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.recording = blob
	d.mu.Unlock()
	d.logger.Debug("recording kept", "bytes", len(blob.Data), "mime", blob.MIMEType)
	return blob, nil
}

// PlayRecording replays the last recording through the platform player.
func (d *Detail) PlayRecording(ctx context.Context) error {
	d.mu.Lock()
	blob, closed := d.recording, d.closed
	d.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if blob == nil {
		return ErrNoRecording
	}
	if d.player == nil {
		return errors.New("no recording player configured")
	}

	h, err := blob.Open(d.tempDir)
	if err != nil {
		return err
	}
	defer h.Close()

	return d.player.Play(ctx, h)
}

// Close tears the view down: in-flight enrichments are discarded, an
// active recording is stopped and the microphone and speech output are
// released. Close is idempotent.
func (d *Detail) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.session = nil
	d.mu.Unlock()

	d.scope.Close()

	var errs []error
	if d.recorder != nil {
		errs = append(errs, d.recorder.Close())
	}
	if d.player != nil {
		d.player.Stop()
	}
	if d.output != nil {
		errs = append(errs, d.output.Release())
	}

	if err := errors.Join(errs...); err != nil {
		d.logger.Warn("view teardown", "error", err)
		return err
	}
	return nil
}

func (d *Detail) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
