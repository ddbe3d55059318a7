package vision

import (
	"context"
	"fmt"
	"strings"
)

// AnthropicProvider analyzes meal photos with Anthropic Claude.
type AnthropicProvider struct {
	httpAdapter
}

// NewAnthropicProvider creates a new Anthropic-backed provider.
func NewAnthropicProvider(opts Options) *AnthropicProvider {
	return &AnthropicProvider{
		httpAdapter: newHTTPAdapter(string(KindAnthropic), opts,
			"claude-3-5-sonnet-latest", "https://api.anthropic.com/v1"),
	}
}

// Anthropic API request/response types
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Content []anthropicContent `json:"content"`
	Model   string             `json:"model"`
}

// AnalyzeFood sends the image to the Anthropic messages API.
func (p *AnthropicProvider) AnalyzeFood(ctx context.Context, img *ProcessedImage, description string) (*AnalysisResult, error) {
	reqBody := anthropicRequest{
		Model:     p.model,
		MaxTokens: 2048,
		Messages: []anthropicMessage{{
			Role: "user",
			Content: []anthropicContent{
				{Type: "image", Source: &anthropicSource{Type: "base64", MediaType: img.MIMEType, Data: img.Base64()}},
				{Type: "text", Text: buildPrompt(description)},
			},
		}},
		Temperature: 0.1,
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var resp anthropicResponse
	if err := p.postJSON(ctx, fmt.Sprintf("%s/messages", p.baseURL), headers, reqBody, &resp); err != nil {
		return nil, err
	}

	// Extract text content
	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	return p.result(text.String())
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return p.name
}

// Model returns the model name.
func (p *AnthropicProvider) Model() string {
	return p.model
}
