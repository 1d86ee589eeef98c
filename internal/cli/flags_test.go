package cli

import (
	"reflect"
	"testing"
	"time"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Language", flags.Language, "korean"},
		{"Provider", flags.Provider, "gemini"},
		{"Timeout", flags.Timeout, 60 * time.Second},
		{"LogLevel", flags.LogLevel, "info"},
		{"LogFormat", flags.LogFormat, "text"},
		{"Duration", flags.Duration, 3 * time.Second},
		{"GeminiTextModel", flags.GeminiTextModel, "gemini-2.5-flash"},
		{"GeminiImageModel", flags.GeminiImageModel, "gemini-2.5-flash-image"},
		{"GeminiTTSModel", flags.GeminiTTSModel, "gemini-2.5-flash-preview-tts"},
		{"GeminiVoice", flags.GeminiVoice, "Kore"},
		{"OpenAIChatModel", flags.OpenAIChatModel, "gpt-4o-mini"},
		{"OpenAIImageModel", flags.OpenAIImageModel, "dall-e-3"},
		{"OpenAIImageSize", flags.OpenAIImageSize, "1024x1024"},
		{"OpenAITTSModel", flags.OpenAITTSModel, "gpt-4o-mini-tts"},
		{"OpenAIVoice", flags.OpenAIVoice, "alloy"},
		{"OpenAISpeed", flags.OpenAISpeed, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	boolTests := []struct {
		name  string
		value bool
	}{
		{"Save", flags.Save},
		{"Status", flags.Status},
		{"Light", flags.Light},
		{"Wrong", flags.Wrong},
		{"NoReplay", flags.NoReplay},
	}

	for _, tt := range boolTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value {
				t.Errorf("%s = %v, want false", tt.name, tt.value)
			}
		})
	}

	stringTests := []struct {
		name  string
		value string
	}{
		{"CfgFile", flags.CfgFile},
		{"StorePath", flags.StorePath},
		{"Category", flags.Category},
		{"BatchFile", flags.BatchFile},
		{"OutputDir", flags.OutputDir},
		{"MetricsAddr", flags.MetricsAddr},
		{"OpenAIInstruction", flags.OpenAIInstruction},
	}

	for _, tt := range stringTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Errorf("%s = %q, want empty", tt.name, tt.value)
			}
		})
	}
}
