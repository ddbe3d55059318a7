package vision

import (
	"context"
	"sync/atomic"
)

// FakeProvider is a configurable Provider for tests.
type FakeProvider struct {
	NameValue     string
	AnalyzeFoodFn func(ctx context.Context, img *ProcessedImage, description string) (*AnalysisResult, error)

	calls atomic.Int32
}

// AnalyzeFood calls the fake function, or returns a single fixed item.
func (f *FakeProvider) AnalyzeFood(ctx context.Context, img *ProcessedImage, description string) (*AnalysisResult, error) {
	f.calls.Add(1)
	if f.AnalyzeFoodFn != nil {
		return f.AnalyzeFoodFn(ctx, img, description)
	}
	return NewAnalysisResult(f.Name(), []FoodItem{
		{Name: "Apple", Quantity: 1, Unit: "pcs", Calories: 95, Protein: 0.5, Fat: 0.3, Carbs: 25, Confidence: 0.9},
	}), nil
}

// Name returns NameValue, or "fake".
func (f *FakeProvider) Name() string {
	if f.NameValue != "" {
		return f.NameValue
	}
	return "fake"
}

// Calls returns how many times AnalyzeFood was invoked.
func (f *FakeProvider) Calls() int {
	return int(f.calls.Load())
}
