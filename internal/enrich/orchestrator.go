package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/generator"
	"codeberg.org/snonux/lanote/internal/metrics"
)

// Updater persists details. Implementations merge at field granularity and
// ignore fields that were not fetched.
type Updater interface {
	UpdateDetails(ctx context.Context, id string, details card.Details) error
}

// Loader is optionally implemented by an Updater. When present the
// orchestrator reloads a card's details under the card lock, so that a
// second enrichment of the same card sees what the first one wrote.
type Loader interface {
	LoadDetails(ctx context.Context, id string) (card.Details, error)
}

// ErrDiscarded is returned when the owning view closed before write-back.
var ErrDiscarded = errors.New("enrichment discarded: view closed")

// Orchestrator runs enrichments.
type Orchestrator struct {
	gen     generator.Generators
	updater Updater
	loader  Loader
	logger  *slog.Logger
	metrics *metrics.Metrics
	locks   keyedMutex
}

// New creates an orchestrator. logger and m may be nil.
func New(gen generator.Generators, updater Updater, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{gen: gen, updater: updater, logger: logger, metrics: m}
	if l, ok := updater.(Loader); ok {
		o.loader = l
	}
	return o
}

// Enrich fills every missing detail field of c.
func (o *Orchestrator) Enrich(ctx context.Context, c card.VocabCard) (card.Details, error) {
	return o.run(ctx, c, card.AllFields, nil)
}

// EnrichFields fills the missing fields of c among fields only.
func (o *Orchestrator) EnrichFields(ctx context.Context, c card.VocabCard, fields card.FieldSet) (card.Details, error) {
	return o.run(ctx, c, fields, nil)
}

// run returns the details as they are after the attempt. On any error the
// returned details equal the cached ones and nothing was written.
func (o *Orchestrator) run(ctx context.Context, c card.VocabCard, fields card.FieldSet, alive func() bool) (card.Details, error) {
	unlock := o.locks.Lock(c.ID)
	defer unlock()

	log := o.logger.With("card", c.ID, "term", c.Term)

	details := c.Details
	if o.loader != nil {
		latest, err := o.loader.LoadDetails(ctx, c.ID)
		if err != nil {
			o.metrics.Enrich(metrics.EnrichFailed)
			return details, fmt.Errorf("failed to load details: %w", err)
		}
		details = details.Merge(latest)
	}

	missing := card.Missing(details, fields)
	if len(missing) == 0 {
		o.metrics.Enrich(metrics.EnrichSkipped)
		log.Debug("details complete, nothing to fetch")
		return details, nil
	}

	if err := o.gen.Ready(); err != nil {
		o.metrics.Enrich(metrics.EnrichFailed)
		return details, err
	}

	start := time.Now()
	patch, err := o.fetch(ctx, generator.SubjectOf(c), missing)
	o.metrics.EnrichTook(time.Since(start))
	if err != nil {
		o.metrics.Enrich(metrics.EnrichFailed)
		return details, err
	}

	if alive != nil && !alive() {
		o.metrics.Enrich(metrics.EnrichDiscarded)
		log.Info("view closed, discarding enrichment", "fields", missing)
		return details, ErrDiscarded
	}

	merged := details.Merge(patch)
	if err := o.updater.UpdateDetails(ctx, c.ID, merged); err != nil {
		o.metrics.Enrich(metrics.EnrichFailed)
		return details, fmt.Errorf("failed to write details: %w", err)
	}

	o.metrics.Enrich(metrics.EnrichWritten)
	log.Debug("details written", "fields", missing, "took", time.Since(start))
	return merged, nil
}

// fetch issues one concurrent generator call per missing field and joins
// on all of them. Every goroutine writes a distinct field of patch.
func (o *Orchestrator) fetch(ctx context.Context, s generator.Subject, missing card.FieldSet) (card.Details, error) {
	for _, name := range missing {
		if !card.AllFields.Contains(name) {
			return card.Details{}, fmt.Errorf("unknown detail field: %q", name)
		}
	}

	var patch card.Details
	g, gctx := errgroup.WithContext(ctx)

	for _, name := range missing {
		o.metrics.Fetching(string(name))

		switch name {
		case card.FieldExplanation:
			g.Go(func() error {
				var err error
				patch.Explanation, err = o.gen.Explanation(gctx, s)
				return err
			})
		case card.FieldImage:
			g.Go(func() error {
				var err error
				patch.Image, err = o.gen.Image(gctx, s)
				return err
			})
		case card.FieldAudio:
			g.Go(func() error {
				var err error
				patch.Audio, err = o.gen.Speech(gctx, s)
				return err
			})
		case card.FieldDialogue:
			g.Go(func() error {
				var err error
				patch.Dialogue, err = o.gen.Dialogue(gctx, s)
				return err
			})
		case card.FieldGrammar:
			g.Go(func() error {
				var err error
				patch.Grammar, err = o.gen.Grammar(gctx, s)
				return err
			})
		}
	}

	if err := g.Wait(); err != nil {
		return card.Details{}, err
	}
	return patch, nil
}
