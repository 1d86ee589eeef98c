package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/lanote/internal/card"
)

// NewCard creates a Korean test card with empty details.
func NewCard(t *testing.T, term, definition string) card.VocabCard {
	t.Helper()
	return card.New(term, definition, "Test", card.Korean)
}

// CompleteDetails returns details where every field is fetched.
// Grammar is explicitly empty, as for a noun.
func CompleteDetails() card.Details {
	return card.Details{
		Explanation: card.Of("A small furry animal."),
		Image:       card.Of(card.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}),
		Audio:       card.Of(PCM(16384, -32768)),
		Dialogue: card.Of([]card.DialogueLine{
			{Speaker: "A", Term: "고양이 있어요?", Definition: "Do you have a cat?"},
			{Speaker: "B", Term: "네, 있어요.", Definition: "Yes, I do."},
		}),
		Grammar: card.Empty[[]card.GrammarForm](),
	}
}

// PCM encodes samples as little-endian PCM16.
func PCM(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// WriteTempFile writes content to name inside a fresh temp directory and
// returns the path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	CreateTestFile(t, path, []byte(content))
	return path
}
