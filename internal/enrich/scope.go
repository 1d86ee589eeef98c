package enrich

import (
	"context"
	"sync/atomic"

	"codeberg.org/snonux/lanote/internal/card"
)

// Scope ties enrichments to the lifetime of one view. After Close, running
// enrichments finish their generator calls but never write back, and new
// ones are rejected.
type Scope struct {
	o      *Orchestrator
	closed atomic.Bool
}

// NewScope returns a scope for one view.
func (o *Orchestrator) NewScope() *Scope {
	return &Scope{o: o}
}

// Enrich is Orchestrator.Enrich guarded by the scope. Generator calls are
// not cancelled when ctx is, they run to completion and are discarded.
func (s *Scope) Enrich(ctx context.Context, c card.VocabCard) (card.Details, error) {
	return s.EnrichFields(ctx, c, card.AllFields)
}

// EnrichFields is Orchestrator.EnrichFields guarded by the scope.
func (s *Scope) EnrichFields(ctx context.Context, c card.VocabCard, fields card.FieldSet) (card.Details, error) {
	if s.Closed() {
		return c.Details, ErrDiscarded
	}
	return s.o.run(context.WithoutCancel(ctx), c, fields, s.alive)
}

func (s *Scope) alive() bool { return !s.closed.Load() }

// Close suppresses the write-back of every enrichment started through s.
func (s *Scope) Close() { s.closed.Store(true) }

// Closed reports whether Close was called.
func (s *Scope) Closed() bool { return s.closed.Load() }
