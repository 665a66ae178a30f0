package summary

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const userAgent = "pyscribe/0.1.0"

// ErrMissingAPIKey is returned by NewGeminiClient when no key is set.
var ErrMissingAPIKey = errors.New("gemini api key is not configured")

// GeminiOptions configures NewGeminiClient.
type GeminiOptions struct {
	APIKey string
	Model  string
	// Endpoint overrides the API base URL.
	Endpoint string
}

// GeminiClient implements Summarizer with Gemini text generation.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ Summarizer = (*GeminiClient)(nil)

// NewGeminiClient creates a client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: opts.Endpoint,
			Headers: http.Header{"User-Agent": []string{userAgent}},
		},
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{client: client, model: opts.Model}, nil
}

// GenerateSection sends the framed prompt and returns the reply without
// markdown fences.
func (c *GeminiClient) GenerateSection(ctx context.Context, req Request) (string, error) {
	prompt, err := Prompt(req)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini response did not contain any text")
	}
	return cleanMarkdownOutput(text), nil
}
