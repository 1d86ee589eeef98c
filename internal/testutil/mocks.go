package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/generator"
)

// FakeGenerators is a scriptable generator.Generators. By default every
// call returns a populated field derived from the subject.
type FakeGenerators struct {
	// ReadyErr is returned by Ready and by every call when set.
	ReadyErr error
	// Delay is applied to every call before it returns.
	Delay time.Duration
	// Release, when set, blocks every call until it is closed.
	Release chan struct{}

	// Results overriding the defaults. A set field replaces the default result.
	ExplanationResult *card.Field[string]
	ImageResult       *card.Field[card.Image]
	SpeechResult      *card.Field[[]byte]
	DialogueResult    *card.Field[[]card.DialogueLine]
	GrammarResult     *card.Field[[]card.GrammarForm]

	mu        sync.Mutex
	calls     map[card.FieldName]int
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

var _ generator.Generators = (*FakeGenerators)(nil)

// Calls returns how often field was requested.
func (f *FakeGenerators) Calls(field card.FieldName) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[field]
}

// TotalCalls returns the number of generator calls across all fields.
func (f *FakeGenerators) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// MaxInFlight returns the highest number of concurrently running calls.
func (f *FakeGenerators) MaxInFlight() int {
	return int(f.maxFlight.Load())
}

// InFlight returns the number of calls currently running.
func (f *FakeGenerators) InFlight() int {
	return int(f.inFlight.Load())
}

// Ready implements generator.Generators.
func (f *FakeGenerators) Ready() error { return f.ReadyErr }

func (f *FakeGenerators) enter(ctx context.Context, field card.FieldName) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[card.FieldName]int)
	}
	f.calls[field]++
	f.mu.Unlock()

	if f.ReadyErr != nil {
		return f.ReadyErr
	}

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxFlight.Load()
		if n <= peak || f.maxFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	if f.Release != nil {
		select {
		case <-f.Release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	return nil
}

// Explanation implements generator.Generators.
func (f *FakeGenerators) Explanation(ctx context.Context, s generator.Subject) (card.Field[string], error) {
	if err := f.enter(ctx, card.FieldExplanation); err != nil {
		return card.Field[string]{}, err
	}
	if f.ExplanationResult != nil {
		return *f.ExplanationResult, nil
	}
	return card.Of("About " + s.Term + ": " + s.Definition), nil
}

// Image implements generator.Generators.
func (f *FakeGenerators) Image(ctx context.Context, s generator.Subject) (card.Field[card.Image], error) {
	if err := f.enter(ctx, card.FieldImage); err != nil {
		return card.Field[card.Image]{}, err
	}
	if f.ImageResult != nil {
		return *f.ImageResult, nil
	}
	return card.Of(card.Image{Data: []byte("image of " + s.Definition), MIMEType: "image/png"}), nil
}

// Speech implements generator.Generators.
func (f *FakeGenerators) Speech(ctx context.Context, s generator.Subject) (card.Field[[]byte], error) {
	if err := f.enter(ctx, card.FieldAudio); err != nil {
		return card.Field[[]byte]{}, err
	}
	if f.SpeechResult != nil {
		return *f.SpeechResult, nil
	}
	return card.Of(PCM(16384, -32768)), nil
}

// Dialogue implements generator.Generators.
func (f *FakeGenerators) Dialogue(ctx context.Context, s generator.Subject) (card.Field[[]card.DialogueLine], error) {
	if err := f.enter(ctx, card.FieldDialogue); err != nil {
		return card.Field[[]card.DialogueLine]{}, err
	}
	if f.DialogueResult != nil {
		return *f.DialogueResult, nil
	}
	return card.Of([]card.DialogueLine{{Speaker: "A", Term: s.Term, Definition: s.Definition}}), nil
}

// Grammar implements generator.Generators.
func (f *FakeGenerators) Grammar(ctx context.Context, s generator.Subject) (card.Field[[]card.GrammarForm], error) {
	if err := f.enter(ctx, card.FieldGrammar); err != nil {
		return card.Field[[]card.GrammarForm]{}, err
	}
	if f.GrammarResult != nil {
		return *f.GrammarResult, nil
	}
	return card.Of([]card.GrammarForm{{Tense: "Present", Conjugation: s.Term, Example: s.Term + "."}}), nil
}

// ErrNotFound is returned by MemoryStore for unknown ids.
var ErrNotFound = errors.New("card not found")

// MemoryStore is an in-memory card-update collaborator that merges
// details at field granularity and records every write.
type MemoryStore struct {
	// UpdateErr fails every UpdateDetails call when set.
	UpdateErr error

	mu      sync.Mutex
	details map[string]card.Details
	writes  []card.Details
}

// NewMemoryStore creates a store seeded with cards.
func NewMemoryStore(cards ...card.VocabCard) *MemoryStore {
	m := &MemoryStore{details: make(map[string]card.Details)}
	for _, c := range cards {
		m.details[c.ID] = c.Details
	}
	return m
}

// UpdateDetails merges patch into the stored details.
func (m *MemoryStore) UpdateDetails(ctx context.Context, id string, patch card.Details) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.writes = append(m.writes, patch)
	m.details[id] = m.details[id].Merge(patch)
	return nil
}

// LoadDetails returns the stored details.
func (m *MemoryStore) LoadDetails(ctx context.Context, id string) (card.Details, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.details[id]
	if !ok {
		return card.Details{}, ErrNotFound
	}
	return d, nil
}

// Writes returns every patch written so far.
func (m *MemoryStore) Writes() []card.Details {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]card.Details(nil), m.writes...)
}

// Details returns the stored details for id.
func (m *MemoryStore) Details(id string) card.Details {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.details[id]
}
