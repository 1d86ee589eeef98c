package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"codeberg.org/snonux/lanote/internal/audio"
	"codeberg.org/snonux/lanote/internal/card"
	"codeberg.org/snonux/lanote/internal/cli"
	"codeberg.org/snonux/lanote/internal/generator"
)

// Providers that can back the generators.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// AudioConfig configures the devices.
type AudioConfig struct {
	// SampleRate and Channels are used for microphone capture.
	SampleRate int
	Channels   int
	Chunk      time.Duration
}

// Config is the resolved application configuration.
type Config struct {
	Language    card.Language
	StorePath   string
	Provider    string
	Generator   generator.Config
	Gemini      generator.GeminiConfig
	OpenAI      generator.OpenAIConfig
	Audio       AudioConfig
	MetricsAddr string
}

// LoadConfig reads the configuration from viper. Flags bound by the cli
// package take precedence over the config file and the environment.
func LoadConfig() (Config, error) {
	name := viper.GetString("language")
	if name == "" {
		name = string(card.Korean)
	}
	lang, err := card.ParseLanguage(name)
	if err != nil {
		return Config{}, err
	}

	provider := strings.ToLower(strings.TrimSpace(viper.GetString("generator.provider")))
	if provider == "" {
		provider = ProviderGemini
	}
	if provider != ProviderGemini && provider != ProviderOpenAI {
		return Config{}, fmt.Errorf("unknown generator provider %q (use gemini or openai)", provider)
	}

	gen := generator.DefaultConfig()
	if d := viper.GetDuration("generator.timeout"); d > 0 {
		gen.Timeout = d
	}

	cfg := Config{
		Language:  lang,
		StorePath: viper.GetString("store.path"),
		Provider:  provider,
		Generator: gen,
		Gemini: generator.GeminiConfig{
			APIKey:     cli.GetGeminiKey(),
			TextModel:  viper.GetString("gemini.text_model"),
			ImageModel: viper.GetString("gemini.image_model"),
			TTSModel:   viper.GetString("gemini.tts_model"),
			Voice:      viper.GetString("gemini.voice"),
			BaseURL:    viper.GetString("gemini.base_url"),
		},
		OpenAI: generator.OpenAIConfig{
			APIKey:      cli.GetOpenAIKey(),
			ChatModel:   viper.GetString("openai.chat_model"),
			ImageModel:  viper.GetString("openai.image_model"),
			ImageSize:   viper.GetString("openai.image_size"),
			TTSModel:    viper.GetString("openai.tts_model"),
			Voice:       viper.GetString("openai.voice"),
			Speed:       viper.GetFloat64("openai.speed"),
			Instruction: viper.GetString("openai.instruction"),
			BaseURL:     viper.GetString("openai.base_url"),
		},
		Audio: AudioConfig{
			SampleRate: viper.GetInt("audio.sample_rate"),
			Channels:   viper.GetInt("audio.channels"),
			Chunk:      viper.GetDuration("audio.chunk"),
		},
		MetricsAddr: viper.GetString("metrics.addr"),
	}

	if cfg.StorePath == "" {
		cfg.StorePath = DefaultStorePath()
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = audio.DefaultRecordSampleRate
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = audio.DefaultChannels
	}
	if cfg.Audio.Chunk <= 0 {
		cfg.Audio.Chunk = audio.DefaultChunk
	}
	return cfg, nil
}

// DefaultStorePath returns ~/.local/state/lanote/lanote.db.
func DefaultStorePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "lanote", "lanote.db")
}
