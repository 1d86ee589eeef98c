package card

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldStates(t *testing.T) {
	tests := []struct {
		name    string
		field   Field[string]
		state   State
		fetched bool
		empty   bool
	}{
		{"zero value", Field[string]{}, StateNotFetched, false, false},
		{"absent", Absent[string](), StateNotFetched, false, false},
		{"empty", Empty[string](), StateEmpty, true, true},
		{"populated", Of("hello"), StatePopulated, true, false},
		{"populated with zero value", Of(""), StatePopulated, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.state, tt.field.State())
			assert.Equal(t, tt.fetched, tt.field.Fetched())
			assert.Equal(t, tt.empty, tt.field.IsEmpty())
		})
	}
}

func TestListConstructor(t *testing.T) {
	assert.True(t, List([]GrammarForm{}).IsEmpty())
	assert.True(t, List[GrammarForm](nil).IsEmpty())

	f := List([]GrammarForm{{Tense: "past"}})
	v, ok := f.Value()
	require.True(t, ok)
	assert.Len(t, v, 1)
}

func TestFieldOrElse(t *testing.T) {
	assert.Equal(t, "fallback", Absent[string]().OrElse("fallback"))
	assert.Equal(t, "fallback", Empty[string]().OrElse("fallback"))
	assert.Equal(t, "x", Of("x").OrElse("fallback"))
}

func TestDetailsJSONKeepsEmptyDistinctFromAbsent(t *testing.T) {
	d := Details{
		Explanation: Of("A small domesticated feline."),
		Grammar:     Empty[[]GrammarForm](),
		Audio:       Of([]byte{0x00, 0x40}),
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "explanation")
	assert.Contains(t, raw, "grammar")
	assert.Equal(t, "null", string(raw["grammar"]))
	assert.NotContains(t, raw, "image")
	assert.NotContains(t, raw, "sampleConversation")
	assert.Equal(t, `"AEA="`, string(raw["audio"]))

	var back Details
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, StatePopulated, back.Explanation.State())
	assert.Equal(t, StateEmpty, back.Grammar.State())
	assert.Equal(t, StateNotFetched, back.Image.State())
	assert.Equal(t, StateNotFetched, back.Dialogue.State())
	audio, ok := back.Audio.Value()
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x40}, audio)
}
