package generator

import (
	"context"
	"encoding/json"
	"strings"
)

// MockLLM returns a canned, valid strategy for local runs without a model.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	topic := "the article"
	for _, line := range strings.Split(prompt.User, "\n") {
		if t, ok := strings.CutPrefix(line, "Topic: "); ok && strings.TrimSpace(t) != "" {
			topic = strings.TrimSpace(t)
			break
		}
	}
	summary := "Lead with the core problem behind " + topic + " and close on a reproducible result."
	if _, fb, ok := strings.Cut(prompt.User, "Feedback: "); ok {
		fb, _, _ = strings.Cut(fb, "\n")
		summary += " Revised for: " + strings.TrimSpace(fb)
	}

	doc := map[string]any{
		"strategy_summary": summary,
		"source_quality":   "moderate",
		"narrative_arc": map[string]any{
			"formula":            "PAS",
			"the_villain":        "Guesswork",
			"the_epiphany":       "Measure first",
			"the_transformation": "Predictable results",
		},
		"platform_strategies": map[string]any{
			"twitter": map[string]any{
				"hashtags":          []string{"#golang"},
				"content_breakdown": []string{"hook", "insight", "call to action"},
				"thread": []string{
					"Here is what we learned about " + topic + ".",
					"The short version: measure before you optimize.",
				},
			},
			"linkedin": map[string]any{"tone": "professional", "format": "story"},
		},
		"image_strategy": map[string]any{
			"needs_images":     false,
			"rationale":        "Text carries the argument.",
			"specific_prompts": []any{},
		},
	}
	// Wrapped in prose the way chat models often answer.
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return "Here is the strategy:\n```json\n" + string(raw) + "\n```", nil
}
