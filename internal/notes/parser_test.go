package notes

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/generator"
)

type fakeCompleter struct {
	reply string
	err   error
	reqs  []generator.ListRequest
}

func (f *fakeCompleter) CompleteList(ctx context.Context, req generator.ListRequest, out any) error {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.reply), out)
}

func TestParse(t *testing.T) {
	llm := &fakeCompleter{reply: `[
		{"term": " 고양이 ", "definition": "cat", "category": "Animals"},
		{"term": "", "definition": "dropped", "category": "X"},
		{"term": "사과", "definition": "apple", "category": "Food"}
	]`}
	p := NewParser(llm)

	items, err := p.Parse(context.Background(), "cat\napple", card.Korean)
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{Term: "고양이", Definition: "cat", Category: "Animals"},
		{Term: "사과", Definition: "apple", Category: "Food"},
	}, items)

	require.Len(t, llm.reqs, 1)
	assert.Equal(t, "cat\napple", llm.reqs[0].Prompt)
	assert.Equal(t, []string{"term", "definition", "category"}, llm.reqs[0].Fields)
	assert.Contains(t, llm.reqs[0].System, "expert Korean language teacher")
}

func TestParseBlankInputSkipsModel(t *testing.T) {
	llm := &fakeCompleter{}
	items, err := NewParser(llm).Parse(context.Background(), "  \n\t", card.Japanese)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, llm.reqs)
}

func TestParseError(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := NewParser(&fakeCompleter{err: boom}).Parse(context.Background(), "cat", card.Korean)
	assert.ErrorIs(t, err, boom)
}

func TestItemCard(t *testing.T) {
	c := Item{Term: "猫", Definition: "cat", Category: "Animals"}.Card(card.Japanese)
	assert.Equal(t, "猫", c.Term)
	assert.Equal(t, card.Japanese, c.Language)
	assert.Equal(t, "Animals", c.Category)
	assert.NotEmpty(t, c.ID)
}
