package generator

import (
	"context"
	"fmt"

	"codeberg.org/snonux/lanote/internal/card"
)

// Subject is what a generator is asked about.
type Subject struct {
	Term       string
	Definition string
	Language   card.Language
}

// SubjectOf returns the subject for c.
func SubjectOf(c card.VocabCard) Subject {
	return Subject{Term: c.Term, Definition: c.Definition, Language: c.Language}
}

// Generators are the five fail-safe content generators. Provider failures
// come back as degraded fields; the error is reserved for precondition
// failures and is then a *PreconditionError.
type Generators interface {
	// Ready reports whether the generators can be called at all.
	Ready() error
	Explanation(ctx context.Context, s Subject) (card.Field[string], error)
	Image(ctx context.Context, s Subject) (card.Field[card.Image], error)
	// Speech only uses the subject's term.
	Speech(ctx context.Context, s Subject) (card.Field[[]byte], error)
	Dialogue(ctx context.Context, s Subject) (card.Field[[]card.DialogueLine], error)
	Grammar(ctx context.Context, s Subject) (card.Field[[]card.GrammarForm], error)
}

// ListRequest asks for a JSON array of objects whose listed string
// properties are all required.
type ListRequest struct {
	System string
	Prompt string
	Fields []string
}

// ListCompleter fills out with the decoded array for req.
type ListCompleter interface {
	CompleteList(ctx context.Context, req ListRequest, out any) error
}

// Backend is a content provider. Its errors are not fail-safe.
type Backend interface {
	ListCompleter

	Name() string
	// Ready returns a *PreconditionError when the backend lacks credentials.
	Ready() error
	Text(ctx context.Context, prompt string) (string, error)
	Image(ctx context.Context, prompt string) (card.Image, error)
	// Speech returns 24 kHz mono little-endian PCM16.
	Speech(ctx context.Context, text string) ([]byte, error)
}

// PreconditionError means generation cannot be attempted at all.
type PreconditionError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

func missingKey(provider string) error {
	return &PreconditionError{Provider: provider, Reason: "API key not found in environment or config"}
}
