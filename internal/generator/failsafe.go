package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/metrics"
)

// Config tunes the fail-safety of every generator call.
type Config struct {
	// Timeout bounds a single provider call.
	Timeout time.Duration
	// BreakerFailures consecutive failures open a field's breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long an open breaker rejects calls.
	BreakerCooldown time.Duration
}

// DefaultConfig returns the default fail-safety settings.
func DefaultConfig() Config {
	return Config{
		Timeout:         60 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// FailSafe implements Generators on top of a Backend. Each field has its own
// circuit breaker; a failed, timed-out or rejected call degrades:
// explanation to a placeholder text, dialogue and grammar to Empty, image
// and speech to not fetched so that a later enrichment retries them.
type FailSafe struct {
	backend  Backend
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	breakers map[card.FieldName]*gobreaker.CircuitBreaker
}

var _ Generators = (*FailSafe)(nil)

// NewFailSafe wraps backend. logger and m may be nil.
func NewFailSafe(backend Backend, cfg Config, logger *slog.Logger, m *metrics.Metrics) *FailSafe {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = def.BreakerCooldown
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &FailSafe{
		backend:  backend,
		cfg:      cfg,
		logger:   logger.With("provider", backend.Name()),
		metrics:  m,
		breakers: make(map[card.FieldName]*gobreaker.CircuitBreaker, len(card.AllFields)),
	}
	for _, name := range card.AllFields {
		f.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    backend.Name() + "/" + string(name),
			Timeout: cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				f.logger.Info("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return f
}

// Name returns the backend name.
func (f *FailSafe) Name() string { return f.backend.Name() }

// Ready implements Generators.
func (f *FailSafe) Ready() error {
	if err := f.backend.Ready(); err != nil {
		var pe *PreconditionError
		if errors.As(err, &pe) {
			return err
		}
		return &PreconditionError{Provider: f.backend.Name(), Reason: "backend not ready", Err: err}
	}
	return nil
}

// Explanation implements Generators.
func (f *FailSafe) Explanation(ctx context.Context, s Subject) (card.Field[string], error) {
	text, err := call(ctx, f, card.FieldExplanation, s, func(ctx context.Context) (string, error) {
		return f.backend.Text(ctx, explanationPrompt(s))
	})
	if errors.Is(err, errPrecondition) {
		return card.Field[string]{}, f.Ready()
	}
	if err != nil {
		return card.Of(ExplanationFailed), nil
	}
	if text = strings.TrimSpace(text); text == "" {
		return card.Of(NoExplanation), nil
	}
	return card.Of(text), nil
}

// Image implements Generators.
func (f *FailSafe) Image(ctx context.Context, s Subject) (card.Field[card.Image], error) {
	img, err := call(ctx, f, card.FieldImage, s, func(ctx context.Context) (card.Image, error) {
		img, err := f.backend.Image(ctx, imagePrompt(s))
		if err == nil && len(img.Data) == 0 {
			err = errors.New("no image data in response")
		}
		return img, err
	})
	if errors.Is(err, errPrecondition) {
		return card.Field[card.Image]{}, f.Ready()
	}
	if err != nil {
		return card.Absent[card.Image](), nil
	}
	return card.Of(img), nil
}

// Speech implements Generators.
func (f *FailSafe) Speech(ctx context.Context, s Subject) (card.Field[[]byte], error) {
	pcm, err := call(ctx, f, card.FieldAudio, s, func(ctx context.Context) ([]byte, error) {
		pcm, err := f.backend.Speech(ctx, s.Term)
		if err == nil && len(pcm) == 0 {
			err = errors.New("no audio data in response")
		}
		return pcm, err
	})
	if errors.Is(err, errPrecondition) {
		return card.Field[[]byte]{}, f.Ready()
	}
	if err != nil {
		return card.Absent[[]byte](), nil
	}
	return card.Of(pcm), nil
}

// Dialogue implements Generators.
func (f *FailSafe) Dialogue(ctx context.Context, s Subject) (card.Field[[]card.DialogueLine], error) {
	lines, err := call(ctx, f, card.FieldDialogue, s, func(ctx context.Context) ([]card.DialogueLine, error) {
		var lines []card.DialogueLine
		err := f.backend.CompleteList(ctx, dialogueRequest(s), &lines)
		return lines, err
	})
	if errors.Is(err, errPrecondition) {
		return card.Field[[]card.DialogueLine]{}, f.Ready()
	}
	if err != nil {
		return card.Empty[[]card.DialogueLine](), nil
	}
	return card.List(lines), nil
}

// Grammar implements Generators. Non-conjugating words legitimately yield Empty.
func (f *FailSafe) Grammar(ctx context.Context, s Subject) (card.Field[[]card.GrammarForm], error) {
	forms, err := call(ctx, f, card.FieldGrammar, s, func(ctx context.Context) ([]card.GrammarForm, error) {
		var forms []card.GrammarForm
		err := f.backend.CompleteList(ctx, grammarRequest(s), &forms)
		return forms, err
	})
	if errors.Is(err, errPrecondition) {
		return card.Field[[]card.GrammarForm]{}, f.Ready()
	}
	if err != nil {
		return card.Empty[[]card.GrammarForm](), nil
	}
	return card.List(forms), nil
}

var errPrecondition = errors.New("precondition failed")

// call runs fn under the field's breaker and the per-call timeout. It
// returns errPrecondition when the backend is not ready, any other error
// means the result must be degraded.
func call[T any](ctx context.Context, f *FailSafe, field card.FieldName, s Subject, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	start := time.Now()

	if err := f.backend.Ready(); err != nil {
		f.metrics.Generated(string(field), metrics.GeneratorPrecondition, time.Since(start))
		return zero, errPrecondition
	}

	res, err := f.breakers[field].Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
		return fn(ctx)
	})
	if err != nil {
		f.metrics.Generated(string(field), metrics.GeneratorDegraded, time.Since(start))
		f.logger.Warn("generation failed, using degraded default",
			"field", string(field), "term", s.Term, "error", err)
		return zero, fmt.Errorf("%s: %w", field, err)
	}

	f.metrics.Generated(string(field), metrics.GeneratorOK, time.Since(start))
	return res.(T), nil
}
