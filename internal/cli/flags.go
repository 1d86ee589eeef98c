package cli

import (
	"time"

	"codeberg.org/snonux/lanote/internal/generator"
)

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile     string
	Language    string
	StorePath   string
	Provider    string
	Timeout     time.Duration
	LogLevel    string
	LogFormat   string
	MetricsAddr string

	// Command flags
	Category  string
	BatchFile string
	Save      bool
	Status    bool
	Light     bool
	Wrong     bool
	Duration  time.Duration
	OutputDir string
	NoReplay  bool

	// Gemini flags
	GeminiTextModel  string
	GeminiImageModel string
	GeminiTTSModel   string
	GeminiVoice      string

	// OpenAI flags
	OpenAIChatModel   string
	OpenAIImageModel  string
	OpenAIImageSize   string
	OpenAITTSModel    string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	gemini := generator.DefaultGeminiConfig()
	openai := generator.DefaultOpenAIConfig()

	return &Flags{
		Language:  "korean",
		Provider:  "gemini",
		Timeout:   generator.DefaultConfig().Timeout,
		LogLevel:  "info",
		LogFormat: "text",
		Duration:  3 * time.Second,

		GeminiTextModel:  gemini.TextModel,
		GeminiImageModel: gemini.ImageModel,
		GeminiTTSModel:   gemini.TTSModel,
		GeminiVoice:      gemini.Voice,

		OpenAIChatModel:  openai.ChatModel,
		OpenAIImageModel: openai.ImageModel,
		OpenAIImageSize:  openai.ImageSize,
		OpenAITTSModel:   openai.TTSModel,
		OpenAIVoice:      openai.Voice,
		OpenAISpeed:      openai.Speed,
	}
}
