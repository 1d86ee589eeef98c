package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/lanote/internal/card"
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
	TTSModel   string
	Voice      string
	// BaseURL overrides the API endpoint, mostly for tests.
	BaseURL string
}

// DefaultGeminiConfig returns the default Gemini models.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		TextModel:  "gemini-2.5-flash",
		ImageModel: "gemini-2.5-flash-image",
		TTSModel:   "gemini-2.5-flash-preview-tts",
		Voice:      "Kore", // works well for Asian languages in general
	}
}

// Gemini is the Google Gemini backend.
type Gemini struct {
	cfg    GeminiConfig
	client *genai.Client
}

var _ Backend = (*Gemini)(nil)

// NewGemini creates the backend. A missing API key is not an error here;
// Ready reports it so callers get a PreconditionError.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	def := DefaultGeminiConfig()
	if cfg.TextModel == "" {
		cfg.TextModel = def.TextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = def.ImageModel
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = def.TTSModel
	}
	if cfg.Voice == "" {
		cfg.Voice = def.Voice
	}

	g := &Gemini{cfg: cfg}
	if cfg.APIKey == "" {
		return g, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

// Name implements Backend.
func (g *Gemini) Name() string { return "gemini" }

// Ready implements Backend.
func (g *Gemini) Ready() error {
	if g.client == nil {
		return missingKey(g.Name())
	}
	return nil
}

// Text implements Backend.
func (g *Gemini) Text(ctx context.Context, prompt string) (string, error) {
	if err := g.Ready(); err != nil {
		return "", err
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.TextModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return resp.Text(), nil
}

// CompleteList implements ListCompleter with a JSON response schema.
func (g *Gemini) CompleteList(ctx context.Context, req ListRequest, out any) error {
	if err := g.Ready(); err != nil {
		return err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   listSchema(req.Fields),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.TextModel, genai.Text(req.Prompt), cfg)
	if err != nil {
		return fmt.Errorf("Gemini API error: %w", err)
	}
	return decodeList(resp.Text(), out)
}

// Image implements Backend.
func (g *Gemini) Image(ctx context.Context, prompt string) (card.Image, error) {
	if err := g.Ready(); err != nil {
		return card.Image{}, err
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.ImageModel, genai.Text(prompt), nil)
	if err != nil {
		return card.Image{}, fmt.Errorf("Gemini API error: %w", err)
	}
	blob := firstInlineData(resp)
	if blob == nil {
		return card.Image{}, errors.New("no image in response")
	}
	return card.Image{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}

// Speech implements Backend. Gemini TTS returns raw 24 kHz PCM16.
func (g *Gemini) Speech(ctx context.Context, text string) ([]byte, error) {
	if err := g.Ready(); err != nil {
		return nil, err
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.cfg.Voice},
			},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.TTSModel, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("Gemini TTS error: %w", err)
	}
	blob := firstInlineData(resp)
	if blob == nil {
		return nil, errors.New("no audio in response")
	}
	return blob.Data, nil
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}

// listSchema describes an array of objects with required string properties.
func listSchema(fields []string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   fields,
		},
	}
}

// decodeList decodes a JSON array, treating an empty response as an empty list.
func decodeList(text string, out any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "[]"
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("failed to decode JSON list: %w", err)
	}
	return nil
}
