package notes

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/generator"
)

// Item is a vocabulary candidate extracted from notes.
type Item struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Category   string `json:"category"`
}

// Card returns a new card for the item.
func (i Item) Card(lang card.Language) card.VocabCard {
	return card.New(i.Term, i.Definition, i.Category, lang)
}

// Parser extracts vocabulary from raw notes.
type Parser interface {
	Parse(ctx context.Context, text string, lang card.Language) ([]Item, error)
}

var itemFields = []string{"term", "definition", "category"}

// ModelParser extracts vocabulary with a language model.
type ModelParser struct {
	llm generator.ListCompleter
}

// NewParser returns a parser backed by llm.
func NewParser(llm generator.ListCompleter) *ModelParser {
	return &ModelParser{llm: llm}
}

// Parse returns the vocabulary found in text. English concepts are
// translated into lang. Blank input yields no items and no request.
func (p *ModelParser) Parse(ctx context.Context, text string, lang card.Language) ([]Item, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var raw []Item
	req := generator.ListRequest{
		System: systemPrompt(lang),
		Prompt: text,
		Fields: itemFields,
	}
	if err := p.llm.CompleteList(ctx, req, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse notes: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for _, it := range raw {
		it.Term = strings.TrimSpace(it.Term)
		it.Definition = strings.TrimSpace(it.Definition)
		it.Category = strings.TrimSpace(it.Category)
		if it.Term == "" {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func systemPrompt(lang card.Language) string {
	return fmt.Sprintf(`You are an expert %[1]s language teacher.
Analyze the following raw notes provided by a student.
Extract vocabulary words, their English meanings, and a suitable category (e.g., "Food", "Travel", "Grammar", "Daily Life").

Rules:
1. If the input contains %[1]s words, extract them as 'term' and their meaning as 'definition'.
2. If the input is primarily English (e.g. "Apple"), TRANSLATE the concept to %[1]s for the 'term' and keep English as 'definition'.
3. If the input is a mix, format it cleanly.
4. 'category' must be a short, capitalized string.
5. Return ONLY a JSON array. If no valid vocabulary can be extracted or translated, return an empty array.`, lang)
}
