// Package vision provides food-photo analysis providers.
package vision

import (
	"context"
	"encoding/base64"
	"math"
	"time"

	"github.com/google/uuid"
)

// Provider analyzes a meal photo and returns the detected food items.
// Implementations must return provider failures un-swallowed so callers can
// classify them.
type Provider interface {
	AnalyzeFood(ctx context.Context, img *ProcessedImage, description string) (*AnalysisResult, error)
	Name() string
}

// Kind identifies a provider implementation.
type Kind string

const (
	KindMock      Kind = "mock"
	KindGoogle    Kind = "google"
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
)

// ProcessedImage is a normalized image payload. Treat it as immutable once
// constructed.
type ProcessedImage struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
	Size     int
}

// Base64 returns the image bytes in standard base64 encoding.
func (p *ProcessedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// DataURI returns the image as a data: URI.
func (p *ProcessedImage) DataURI() string {
	return "data:" + p.MIMEType + ";base64," + p.Base64()
}

// FoodItem is a single detected food component.
type FoodItem struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Fat        float64 `json:"fat"`
	Carbs      float64 `json:"carbs"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResult is the normalized output of a provider.
type AnalysisResult struct {
	ID                string     `json:"analysisId"`
	Items             []FoodItem `json:"items"`
	TotalCalories     int        `json:"totalCalories"`
	TotalProtein      float64    `json:"totalProtein"`
	TotalFat          float64    `json:"totalFat"`
	TotalCarbs        float64    `json:"totalCarbs"`
	OverallConfidence float64    `json:"overallConfidence"`
	ProcessedAt       time.Time  `json:"processedAt"`
	Provider          string     `json:"provider"`
	Fallback          bool       `json:"fallback"`

	// raw holds the unparsed model output. It is unexported so it can never
	// cross a JSON boundary.
	raw string
}

// NewAnalysisResult builds a result from items, computing totals and overall
// confidence. Item confidences are clamped to [0,1].
func NewAnalysisResult(provider string, items []FoodItem) *AnalysisResult {
	if items == nil {
		items = []FoodItem{}
	}

	var calories, protein, fat, carbs, confidence float64
	for i := range items {
		items[i].Confidence = clamp01(items[i].Confidence)
		calories += items[i].Calories
		protein += items[i].Protein
		fat += items[i].Fat
		carbs += items[i].Carbs
		confidence += items[i].Confidence
	}

	r := &AnalysisResult{
		ID:            uuid.NewString(),
		Items:         items,
		TotalCalories: int(math.Round(calories)),
		TotalProtein:  round1(protein),
		TotalFat:      round1(fat),
		TotalCarbs:    round1(carbs),
		ProcessedAt:   time.Now().UTC(),
		Provider:      provider,
	}
	if len(items) > 0 {
		r.OverallConfidence = round2(clamp01(confidence / float64(len(items))))
	}
	return r
}

// WithRaw attaches the unparsed provider output for logging and debugging.
func (r *AnalysisResult) WithRaw(raw string) *AnalysisResult {
	r.raw = raw
	return r
}

// Raw returns the unparsed provider output, if any.
func (r *AnalysisResult) Raw() string {
	return r.raw
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
