package generator

import (
	"fmt"
	"strings"

	"auto_content_syndicator/strategy"
)

// Prompt is the message set sent to the model.
type Prompt struct {
	System  string
	User    string
	History []Message
}

// Message is one prior chat message.
type Message struct {
	Role    string
	Content string
}

// sourceLimit caps how much source content is inlined into a prompt.
const sourceLimit = 12000

const strategySchema = `Return a single JSON object and nothing else, with these fields:
- strategy_summary (string, required)
- source_quality: "strong" | "moderate" | "thin"
- quality_warning (string, required when source_quality is "thin")
- narrative_arc: {formula: "PAS" | "BAB" | "BUT_THEREFORE", the_villain, the_epiphany, the_transformation}
- psychological_triggers: {stop_trigger_type, save_trigger, share_trigger, authenticity_signal, emotional_arc}
- platform_strategies (required): {twitter: {hashtags: [], content_breakdown: [], thread: []}, linkedin: {...} (required)}
- image_strategy: {needs_images (boolean), rationale, specific_prompts: [{purpose, asset_type: "real_asset" | "generative_ai", description, fallback_prompt, position, marker: "<<IMAGE_n>>"}]}`

// BuildStrategyPrompt asks for a first content strategy.
func BuildStrategyPrompt(b Brief) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a content strategist planning how one piece of writing is syndicated to Dev.to, Hashnode, a blog, Twitter and LinkedIn.\n")
	sb.WriteString(strategySchema)
	sb.WriteString("\nRequirements:\n")
	if b.Audience != "" {
		sb.WriteString(fmt.Sprintf("- Audience: %s.\n", b.Audience))
	}
	for _, g := range b.Goals {
		sb.WriteString(fmt.Sprintf("- Goal: %s\n", g))
	}
	for _, c := range b.Constraints {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}
	if len(b.Platforms) > 0 {
		sb.WriteString(fmt.Sprintf("- Target platforms: %s.\n", strings.Join(b.Platforms, ", ")))
	}
	sb.WriteString("- Rate source_quality honestly; do not invent facts the source does not support.\n")

	var user strings.Builder
	user.WriteString(fmt.Sprintf("Topic: %s\n", b.Topic))
	if b.Author != "" {
		user.WriteString(fmt.Sprintf("Author: %s\n", b.Author))
	}
	user.WriteString("\nSource content:\n")
	user.WriteString(clip(b.SourceContent, sourceLimit))
	user.WriteString("\n\nReturn the strategy JSON.")

	return Prompt{
		System: sb.String(),
		User:   user.String(),
	}
}

// BuildRevisionPrompt asks for a revised strategy given reviewer feedback.
func BuildRevisionPrompt(b Brief, prev *strategy.ContentStrategy, comment string, history []Turn) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a content strategist revising an existing strategy. Apply the smallest change that addresses the feedback and keep every other field as it was.\n")
	sb.WriteString(strategySchema)
	sb.WriteString("\n- If the feedback is unclear or unreasonable, return the previous strategy unchanged.\n")
	for _, c := range b.Constraints {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}

	prevJSON := "{}"
	if prev != nil {
		if raw, err := prev.MarshalJSON(); err == nil {
			prevJSON = string(raw)
		}
	}
	user := fmt.Sprintf("Topic: %s\n\nCurrent strategy:\n%s\n\nFeedback: %s\nReturn the full revised strategy JSON.", b.Topic, prevJSON, comment)

	var msgs []Message
	for _, t := range history {
		if t.Comment == "" {
			continue
		}
		msgs = append(msgs, Message{Role: "user", Content: t.Comment})
	}

	return Prompt{
		System:  sb.String(),
		User:    user,
		History: msgs,
	}
}

func clip(s string, limit int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit])
}
