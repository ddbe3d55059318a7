package vision

import (
	"context"
	"fmt"
	"strings"
)

// GoogleProvider analyzes meal photos with Google Gemini.
type GoogleProvider struct {
	httpAdapter
}

// NewGoogleProvider creates a new Gemini-backed provider.
func NewGoogleProvider(opts Options) *GoogleProvider {
	return &GoogleProvider{
		httpAdapter: newHTTPAdapter(string(KindGoogle), opts,
			"gemini-2.5-flash", "https://generativelanguage.googleapis.com/v1beta"),
	}
}

// Google API request/response types
type googleRequest struct {
	Contents         []googleContent        `json:"contents"`
	GenerationConfig googleGenerationConfig `json:"generationConfig"`
}

type googleContent struct {
	Role  string       `json:"role"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *googleInlineData `json:"inlineData,omitempty"`
}

type googleInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type googleGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type googleResponse struct {
	Candidates []struct {
		Content      googleContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

// AnalyzeFood sends the image to Gemini generateContent.
func (p *GoogleProvider) AnalyzeFood(ctx context.Context, img *ProcessedImage, description string) (*AnalysisResult, error) {
	reqBody := googleRequest{
		Contents: []googleContent{{
			Role: "user",
			Parts: []googlePart{
				{Text: buildPrompt(description)},
				{InlineData: &googleInlineData{MimeType: img.MIMEType, Data: img.Base64()}},
			},
		}},
		GenerationConfig: googleGenerationConfig{
			Temperature:      0.1,
			MaxOutputTokens:  2048,
			ResponseMimeType: "application/json",
		},
	}

	// The key goes in a header; transport errors quote the URL.
	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	headers := map[string]string{"x-goog-api-key": p.apiKey}

	var resp googleResponse
	if err := p.postJSON(ctx, url, headers, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return p.result(text.String())
}

// Name returns the provider name.
func (p *GoogleProvider) Name() string {
	return p.name
}

// Model returns the model name.
func (p *GoogleProvider) Model() string {
	return p.model
}
