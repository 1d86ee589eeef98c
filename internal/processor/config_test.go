package processor

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/lanote/internal/audio"
	"codeberg.org/snonux/lanote/internal/card"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, card.Korean, cfg.Language)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, DefaultStorePath(), cfg.StorePath)
	assert.Equal(t, 60*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, audio.DefaultRecordSampleRate, cfg.Audio.SampleRate)
	assert.Equal(t, audio.DefaultChannels, cfg.Audio.Channels)
	assert.Equal(t, audio.DefaultChunk, cfg.Audio.Chunk)
	assert.Empty(t, cfg.Gemini.APIKey)
}

func TestLoadConfigOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	viper.Set("language", "ja")
	viper.Set("generator.provider", " OpenAI ")
	viper.Set("generator.timeout", "5s")
	viper.Set("store.path", "/tmp/cards.db")
	viper.Set("openai.voice", "nova")
	viper.Set("audio.sample_rate", 16000)
	viper.Set("metrics.addr", ":9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, card.Japanese, cfg.Language)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, "/tmp/cards.db", cfg.StorePath)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "nova", cfg.OpenAI.Voice)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown language", "language", "klingon"},
		{"unknown provider", "generator.provider", "ollama"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			viper.Set(tt.key, tt.val)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
