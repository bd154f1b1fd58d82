package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Generation is the text of a response together with its token usage.
type Generation struct {
	Text         string
	PromptTokens int64
	OutputTokens int64
}

// Generator wraps the Google GenAI client for JSON-mode prompts.
type Generator struct {
	client *genai.Client
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{client: client}, nil
}

// GenerateJSON sends the prompt to model and returns the textual response,
// which the model is instructed to emit as JSON.
func (g *Generator) GenerateJSON(ctx context.Context, model, prompt string) (*Generation, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.3),
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return fromResponse(resp)
}

func fromResponse(resp *genai.GenerateContentResponse) (*Generation, error) {
	if resp == nil {
		return nil, errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return nil, errors.New("gemini api returned empty response")
	}

	gen := &Generation{Text: output}
	if usage := resp.UsageMetadata; usage != nil {
		gen.PromptTokens = int64(usage.PromptTokenCount)
		gen.OutputTokens = int64(usage.CandidatesTokenCount) + int64(usage.ThoughtsTokenCount)
	}
	return gen, nil
}
