package generator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"codeberg.org/snonux/lanote/internal/card"
)

func TestGeminiWithoutKey(t *testing.T) {
	g, err := NewGemini(context.Background(), GeminiConfig{})
	require.NoError(t, err)

	var pe *PreconditionError
	require.True(t, errors.As(g.Ready(), &pe))
	assert.Equal(t, "gemini", pe.Provider)

	_, err = g.Text(context.Background(), "hi")
	assert.True(t, errors.As(err, &pe))
	_, err = g.Speech(context.Background(), "hi")
	assert.True(t, errors.As(err, &pe))

	assert.Equal(t, "gemini-2.5-flash", g.cfg.TextModel)
	assert.Equal(t, "Kore", g.cfg.Voice)
}

func TestListSchema(t *testing.T) {
	s := listSchema(grammarFields)
	assert.Equal(t, genai.TypeArray, s.Type)
	require.NotNil(t, s.Items)
	assert.Equal(t, genai.TypeObject, s.Items.Type)
	assert.Equal(t, grammarFields, s.Items.Required)
	for _, f := range grammarFields {
		require.Contains(t, s.Items.Properties, f)
		assert.Equal(t, genai.TypeString, s.Items.Properties[f].Type)
	}
}

func TestDecodeList(t *testing.T) {
	var forms []card.GrammarForm
	require.NoError(t, decodeList("", &forms))
	assert.Empty(t, forms)

	require.NoError(t, decodeList(` [{"tense":"Past","conjugation":"갔어요","example":"어제 갔어요."}] `, &forms))
	assert.Len(t, forms, 1)

	assert.Error(t, decodeList("not json", &forms))
}

func TestGeminiTextAgainstFakeServer(t *testing.T) {
	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case paths <- r.URL.Path:
		default:
		}
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": "A cat is 고양이."}},
				},
			}},
		})
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := g.Text(context.Background(), "explain")
	require.NoError(t, err)
	assert.Equal(t, "A cat is 고양이.", text)
	gotPath := <-paths
	assert.True(t, strings.HasSuffix(gotPath, "gemini-2.5-flash:generateContent"), gotPath)
}

// Integration test, only runs with a real key.
func TestGeminiIntegration(t *testing.T) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: key})
	require.NoError(t, err)
	f := NewFailSafe(g, Config{}, nil, nil)

	grammar, err := f.Grammar(context.Background(), cat)
	require.NoError(t, err)
	assert.True(t, grammar.Fetched())
}
