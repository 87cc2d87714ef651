package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements TextGenerator using the Gemini API.
type GeminiClient struct {
	APIKey string
	Model  string
}

// NewGeminiClient creates a client for the given model.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{APIKey: apiKey, Model: model}
}

// Available reports whether the client is configured.
func (c *GeminiClient) Available() bool {
	return c.APIKey != "" && c.Model != ""
}

// Generate issues one generate-content call and returns the trimmed text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	resp, err := client.Models.GenerateContent(ctx, c.Model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
