package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/notes"
)

// DefaultCategory is used for entries that name no category.
const DefaultCategory = "Imported"

// Entry is one line of a batch file.
type Entry struct {
	Term       string
	Definition string
	Category   string
}

// Complete reports whether the entry can become a card without a model.
func (e Entry) Complete() bool {
	return e.Term != "" && e.Definition != ""
}

// note renders the entry as free text for the notes parser.
func (e Entry) note() string {
	if e.Term == "" {
		return e.Definition
	}
	return e.Term
}

// ReadBatchFile reads entries from filename.
// Supported line formats:
//   - "고양이 = cat | Animals": term, definition and category
//   - "고양이 = cat": category defaults to DefaultCategory
//   - "고양이": definition is looked up later
//   - "= cat": the term is translated later
//
// Blank lines and lines starting with '#' are skipped.
func ReadBatchFile(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads entries from r.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if e, ok := parseLine(line); ok {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return entries, nil
}

func parseLine(line string) (Entry, bool) {
	var e Entry
	if body, category, ok := strings.Cut(line, "|"); ok {
		line = strings.TrimSpace(body)
		e.Category = strings.TrimSpace(category)
	}

	term, definition, ok := strings.Cut(line, "=")
	e.Term = strings.TrimSpace(term)
	if ok {
		e.Definition = strings.TrimSpace(definition)
	}

	if e.Term == "" && e.Definition == "" {
		return Entry{}, false
	}
	return e, true
}

// Resolve turns entries into items. Complete entries are used as they are;
// the rest are sent to parser in one request.
func Resolve(ctx context.Context, entries []Entry, parser notes.Parser, lang card.Language) ([]notes.Item, error) {
	var (
		items   []notes.Item
		pending []string
	)
	for _, e := range entries {
		if !e.Complete() {
			pending = append(pending, e.note())
			continue
		}
		category := e.Category
		if category == "" {
			category = DefaultCategory
		}
		items = append(items, notes.Item{Term: e.Term, Definition: e.Definition, Category: category})
	}

	if len(pending) == 0 {
		return items, nil
	}
	if parser == nil {
		return nil, fmt.Errorf("%d entries need a definition or translation but no parser is configured", len(pending))
	}

	parsed, err := parser.Parse(ctx, strings.Join(pending, "\n"), lang)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve batch entries: %w", err)
	}
	return append(items, parsed...), nil
}
