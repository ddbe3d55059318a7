package vision

import (
	"encoding/json"
	"fmt"
	"strings"
)

const analysisPrompt = `You are a nutrition expert. Identify every food visible in this meal photo and estimate its portion and nutrition.

Respond with valid JSON only, in exactly this format:
{
  "items": [
    {
      "name": "food name",
      "quantity": [number],
      "unit": "g|ml|pcs|slices|bowl|plate|cup",
      "calories": [number, kcal],
      "protein": [number, grams],
      "fat": [number, grams],
      "carbs": [number, grams],
      "confidence": [number between 0 and 1]
    }
  ]
}

If no food is visible, return {"items": []}.`

func buildPrompt(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return analysisPrompt
	}
	return fmt.Sprintf("%s\n\nThe user describes the meal as: %q", analysisPrompt, description)
}

type modelOutput struct {
	Items []FoodItem `json:"items"`
}

// parseItems extracts food items from model text. Models sometimes wrap JSON
// in markdown fences or add prose around it.
func parseItems(text string) ([]FoodItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("failed to parse model output: no JSON object found")
	}

	var out modelOutput
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	items := make([]FoodItem, 0, len(out.Items))
	for _, it := range out.Items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		if it.Calories < 0 || it.Protein < 0 || it.Fat < 0 || it.Carbs < 0 {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
