package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/generator"
)

// FakeBackend is a generator.Backend that answers without a network.
// List requests are answered from Lists, keyed by the first requested
// field ("term" for notes, "speaker" for dialogues, "tense" for grammar).
type FakeBackend struct {
	// ReadyErr is returned by Ready when set.
	ReadyErr error
	// Err fails every call when set.
	Err   error
	Lists map[string]string

	mu      sync.Mutex
	prompts []string
}

var _ generator.Backend = (*FakeBackend)(nil)

func (b *FakeBackend) Name() string { return "fake" }

func (b *FakeBackend) Ready() error { return b.ReadyErr }

// Prompts returns every prompt sent so far.
func (b *FakeBackend) Prompts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.prompts...)
}

func (b *FakeBackend) seen(prompt string) error {
	b.mu.Lock()
	b.prompts = append(b.prompts, prompt)
	b.mu.Unlock()
	return b.Err
}

func (b *FakeBackend) Text(ctx context.Context, prompt string) (string, error) {
	if err := b.seen(prompt); err != nil {
		return "", err
	}
	return "Explained: " + firstLine(prompt), nil
}

func (b *FakeBackend) Image(ctx context.Context, prompt string) (card.Image, error) {
	if err := b.seen(prompt); err != nil {
		return card.Image{}, err
	}
	return card.Image{Data: []byte("png"), MIMEType: "image/png"}, nil
}

func (b *FakeBackend) Speech(ctx context.Context, text string) ([]byte, error) {
	if err := b.seen(text); err != nil {
		return nil, err
	}
	return PCM(16384, -32768), nil
}

func (b *FakeBackend) CompleteList(ctx context.Context, req generator.ListRequest, out any) error {
	if err := b.seen(req.Prompt); err != nil {
		return err
	}
	reply := "[]"
	if len(req.Fields) > 0 {
		if r, ok := b.Lists[req.Fields[0]]; ok {
			reply = r
		}
	}
	return json.Unmarshal([]byte(reply), out)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
