package vision

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Macro split used to derive grams from calories.
const (
	proteinShare = 0.15
	fatShare     = 0.25
	carbsShare   = 0.60

	kcalPerGramProtein = 4
	kcalPerGramFat     = 9
	kcalPerGramCarbs   = 4

	minItemConfidence = 0.70
	maxItemConfidence = 0.95
	maxMockItems      = 3
)

type catalogEntry struct {
	Name        string
	Quantity    float64
	Unit        string
	Keywords    []string
	MinCalories float64
	MaxCalories float64
}

var catalog = []catalogEntry{
	{Name: "Grilled chicken breast", Quantity: 150, Unit: "g", Keywords: []string{"chicken", "poultry"}, MinCalories: 220, MaxCalories: 300},
	{Name: "Steamed white rice", Quantity: 180, Unit: "g", Keywords: []string{"rice"}, MinCalories: 200, MaxCalories: 260},
	{Name: "Mixed green salad", Quantity: 1, Unit: "bowl", Keywords: []string{"salad", "greens", "lettuce"}, MinCalories: 60, MaxCalories: 150},
	{Name: "Scrambled eggs", Quantity: 2, Unit: "pcs", Keywords: []string{"eggs", "omelet", "scrambled"}, MinCalories: 160, MaxCalories: 220},
	{Name: "Whole wheat toast", Quantity: 2, Unit: "slices", Keywords: []string{"toast", "bread", "sandwich"}, MinCalories: 140, MaxCalories: 200},
	{Name: "Spaghetti bolognese", Quantity: 1, Unit: "plate", Keywords: []string{"pasta", "spaghetti", "bolognese"}, MinCalories: 450, MaxCalories: 650},
	{Name: "Baked salmon fillet", Quantity: 140, Unit: "g", Keywords: []string{"salmon", "fish"}, MinCalories: 250, MaxCalories: 340},
	{Name: "Banana", Quantity: 1, Unit: "pcs", Keywords: []string{"banana", "fruit"}, MinCalories: 90, MaxCalories: 120},
	{Name: "Greek yogurt", Quantity: 170, Unit: "g", Keywords: []string{"yogurt", "yoghurt"}, MinCalories: 100, MaxCalories: 150},
	{Name: "Roasted vegetables", Quantity: 150, Unit: "g", Keywords: []string{"vegetable", "veggie", "broccoli", "carrot"}, MinCalories: 80, MaxCalories: 160},
	{Name: "Cheeseburger", Quantity: 1, Unit: "pcs", Keywords: []string{"burger", "hamburger"}, MinCalories: 450, MaxCalories: 600},
	{Name: "Oatmeal with berries", Quantity: 1, Unit: "bowl", Keywords: []string{"oat", "porridge", "berries"}, MinCalories: 250, MaxCalories: 350},
}

// MockProvider is a deterministic-shape estimator used when no real provider
// is configured and as the fallback target. It picks 1-3 items from a fixed
// catalog and derives macros from calories.
type MockProvider struct {
	mu      sync.Mutex
	rng     *rand.Rand
	latency time.Duration
}

// MockOption configures a MockProvider.
type MockOption func(*MockProvider)

// WithRand sets the random source, for reproducible output.
func WithRand(src rand.Source) MockOption {
	return func(m *MockProvider) { m.rng = rand.New(src) }
}

// WithLatency makes every call wait d before answering, simulating a real
// upstream.
func WithLatency(d time.Duration) MockOption {
	return func(m *MockProvider) { m.latency = d }
}

// NewMockProvider creates a mock estimator.
func NewMockProvider(opts ...MockOption) *MockProvider {
	m := &MockProvider{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AnalyzeFood synthesizes a plausible result. Catalog entries whose keywords
// appear in description are picked first.
func (m *MockProvider) AnalyzeFood(ctx context.Context, img *ProcessedImage, description string) (*AnalysisResult, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, errors.New("mock: image is required")
	}

	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	picked := m.pick(description)
	items := make([]FoodItem, 0, len(picked))
	for _, entry := range picked {
		items = append(items, m.estimate(entry))
	}
	return NewAnalysisResult(string(KindMock), items), nil
}

// pick selects between 1 and maxMockItems distinct catalog entries.
func (m *MockProvider) pick(description string) []catalogEntry {
	count := 1 + m.rng.Intn(maxMockItems)

	desc := strings.ToLower(description)
	used := make(map[int]bool)
	var picked []catalogEntry
	if desc != "" {
		for i, entry := range catalog {
			if len(picked) == maxMockItems {
				break
			}
			if matchesAny(desc, entry.Keywords) {
				used[i] = true
				picked = append(picked, entry)
			}
		}
	}
	if len(picked) > count {
		count = len(picked)
	}

	for _, i := range m.rng.Perm(len(catalog)) {
		if len(picked) >= count {
			break
		}
		if used[i] {
			continue
		}
		used[i] = true
		picked = append(picked, catalog[i])
	}
	return picked
}

func (m *MockProvider) estimate(entry catalogEntry) FoodItem {
	calories := math.Round(entry.MinCalories + m.rng.Float64()*(entry.MaxCalories-entry.MinCalories))
	return FoodItem{
		Name:       entry.Name,
		Quantity:   entry.Quantity,
		Unit:       entry.Unit,
		Calories:   calories,
		Protein:    round1(calories * proteinShare / kcalPerGramProtein),
		Fat:        round1(calories * fatShare / kcalPerGramFat),
		Carbs:      round1(calories * carbsShare / kcalPerGramCarbs),
		Confidence: round2(minItemConfidence + m.rng.Float64()*(maxItemConfidence-minItemConfidence)),
	}
}

func matchesAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	return string(KindMock)
}
