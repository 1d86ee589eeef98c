package generator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/lanote/internal/card"
)

// OpenAIConfig configures the OpenAI backend.
type OpenAIConfig struct {
	APIKey      string
	ChatModel   string
	ImageModel  string // "dall-e-2" or "dall-e-3"
	ImageSize   string
	TTSModel    string // "tts-1", "tts-1-hd" or "gpt-4o-mini-tts"
	Voice       string // "alloy", "ash", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer"
	Speed       float64
	Instruction string // voice instructions, gpt-4o-mini-tts only
	BaseURL     string
}

// DefaultOpenAIConfig returns the default OpenAI models.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		ChatModel:   openai.GPT4oMini,
		ImageModel:  openai.CreateImageModelDallE3,
		ImageSize:   openai.CreateImageSize1024x1024,
		TTSModel:    "gpt-4o-mini-tts",
		Voice:       "alloy",
		Speed:       1.0,
		Instruction: defaultSpeechPrompt,
	}
}

// OpenAI is the OpenAI backend.
type OpenAI struct {
	cfg    OpenAIConfig
	client *openai.Client
}

var _ Backend = (*OpenAI)(nil)

// NewOpenAI creates the backend. Ready reports a missing key.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	def := DefaultOpenAIConfig()
	if cfg.ChatModel == "" {
		cfg.ChatModel = def.ChatModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = def.ImageModel
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = def.ImageSize
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = def.TTSModel
	}
	if cfg.Voice == "" {
		cfg.Voice = def.Voice
	}
	if cfg.Speed == 0 {
		cfg.Speed = def.Speed
	}
	if cfg.Instruction == "" {
		cfg.Instruction = def.Instruction
	}

	o := &OpenAI{cfg: cfg}
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		o.client = openai.NewClientWithConfig(clientCfg)
	}
	return o
}

// Name implements Backend.
func (o *OpenAI) Name() string { return "openai" }

// Ready implements Backend.
func (o *OpenAI) Ready() error {
	if o.client == nil {
		return missingKey(o.Name())
	}
	return nil
}

// Text implements Backend.
func (o *OpenAI) Text(ctx context.Context, prompt string) (string, error) {
	if err := o.Ready(); err != nil {
		return "", err
	}
	return o.chat(ctx, openai.ChatCompletionRequest{
		Model: o.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
}

// CompleteList implements ListCompleter. JSON mode only allows objects at
// the top level, so the array is requested wrapped in {"items": [...]}.
func (o *OpenAI) CompleteList(ctx context.Context, req ListRequest, out any) error {
	if err := o.Ready(); err != nil {
		return err
	}

	system := strings.TrimSpace(req.System + "\n" + fmt.Sprintf(
		`Respond with a JSON object of the form {"items": [...]} where every item is an object with the string properties %s, all required. Use {"items": []} when there is nothing to return.`,
		strings.Join(quoted(req.Fields), ", ")))

	content, err := o.chat(ctx, openai.ChatCompletionRequest{
		Model: o.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return err
	}

	var wrapper struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(content), &wrapper); err != nil {
		return fmt.Errorf("failed to decode JSON object: %w", err)
	}
	return decodeList(string(wrapper.Items), out)
}

func (o *OpenAI) chat(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Image implements Backend.
func (o *OpenAI) Image(ctx context.Context, prompt string) (card.Image, error) {
	if err := o.Ready(); err != nil {
		return card.Image{}, err
	}

	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          o.cfg.ImageModel,
		N:              1,
		Size:           o.cfg.ImageSize,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return card.Image{}, fmt.Errorf("OpenAI image API error: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return card.Image{}, errors.New("no image data in response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return card.Image{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return card.Image{Data: data, MIMEType: "image/png"}, nil
}

// Speech implements Backend using the raw pcm response format, which is
// 24 kHz mono PCM16 little-endian.
func (o *OpenAI) Speech(ctx context.Context, text string) ([]byte, error) {
	if err := o.Ready(); err != nil {
		return nil, err
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.TTSModel),
		Input:          strings.TrimSpace(text),
		Voice:          openai.SpeechVoice(o.cfg.Voice),
		Speed:          o.cfg.Speed,
		ResponseFormat: openai.SpeechResponseFormatPcm,
	}
	if o.cfg.Instruction != "" && o.cfg.TTSModel == "gpt-4o-mini-tts" {
		req.Instructions = o.cfg.Instruction
	}

	resp, err := o.client.CreateSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(pcm) == 0 {
		return nil, errors.New("no audio data received from OpenAI")
	}
	return pcm, nil
}

func quoted(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = "'" + f + "'"
	}
	return out
}
