package vision

import (
	"context"
	"fmt"
)

// OpenAIProvider analyzes meal photos with OpenAI chat completions.
type OpenAIProvider struct {
	httpAdapter
}

// NewOpenAIProvider creates a new OpenAI-backed provider.
func NewOpenAIProvider(opts Options) *OpenAIProvider {
	return &OpenAIProvider{
		httpAdapter: newHTTPAdapter(string(KindOpenAI), opts, "gpt-4o-mini", "https://api.openai.com/v1"),
	}
}

// OpenAI API request/response types
type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIMessage struct {
	Role    string          `json:"role"`
	Content []openAIContent `json:"content"`
}

type openAIContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// AnalyzeFood sends the image to OpenAI as an image_url data URI.
func (p *OpenAIProvider) AnalyzeFood(ctx context.Context, img *ProcessedImage, description string) (*AnalysisResult, error) {
	reqBody := openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{{
			Role: "user",
			Content: []openAIContent{
				{Type: "text", Text: buildPrompt(description)},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: img.DataURI()}},
			},
		}},
		Temperature:    0.1,
		MaxTokens:      2048,
		ResponseFormat: &openAIResponseFormat{Type: "json_object"},
	}

	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	var resp openAIResponse
	if err := p.postJSON(ctx, fmt.Sprintf("%s/chat/completions", p.baseURL), headers, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}
	return p.result(resp.Choices[0].Message.Content)
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}
