package strategy

import "encoding/json"

// SourceQuality grades how much usable material the source gave the strategist.
type SourceQuality string

const (
	QualityStrong   SourceQuality = "strong"
	QualityModerate SourceQuality = "moderate"
	QualityThin     SourceQuality = "thin"
)

// Valid reports whether q is one of the recognized grades.
func (q SourceQuality) Valid() bool {
	switch q {
	case QualityStrong, QualityModerate, QualityThin:
		return true
	}
	return false
}

// Narrative formulas. Other values are carried through untouched.
const (
	FormulaPAS          = "PAS"
	FormulaBAB          = "BAB"
	FormulaButTherefore = "BUT_THEREFORE"
)

// Asset types for ImagePrompt.
const (
	AssetReal       = "real_asset"
	AssetGenerative = "generative_ai"
)

// ContentStrategy is the validated strategy. The typed fields are a view over
// Document, which keeps every key the model produced plus the repairs.
type ContentStrategy struct {
	StrategySummary       string
	SourceQuality         SourceQuality
	QualityWarning        string
	NarrativeArc          NarrativeArc
	PsychologicalTriggers PsychologicalTriggers
	Twitter               TwitterStrategy
	LinkedIn              map[string]any
	ImageStrategy         ImageStrategy

	// Document is the repaired strategy object.
	Document map[string]any
	// Repairs lists the self-healing steps applied during validation.
	Repairs []string
}

// MarshalJSON emits the repaired document so unmodeled fields survive.
func (s *ContentStrategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document)
}

type NarrativeArc struct {
	Formula           string `json:"formula"`
	TheVillain        string `json:"the_villain"`
	TheEpiphany       string `json:"the_epiphany"`
	TheTransformation string `json:"the_transformation"`
}

type PsychologicalTriggers struct {
	StopTriggerType    string `json:"stop_trigger_type"`
	SaveTrigger        string `json:"save_trigger"`
	ShareTrigger       string `json:"share_trigger"`
	AuthenticitySignal string `json:"authenticity_signal"`
	EmotionalArc       string `json:"emotional_arc"`
}

type TwitterStrategy struct {
	Hashtags         []string `json:"hashtags"`
	ContentBreakdown []string `json:"content_breakdown"`
	Thread           []string `json:"thread,omitempty"`
}

type ImageStrategy struct {
	NeedsImages     bool          `json:"needs_images"`
	Rationale       string        `json:"rationale"`
	SpecificPrompts []ImagePrompt `json:"specific_prompts"`
}

type ImagePrompt struct {
	Purpose        string `json:"purpose"`
	AssetType      string `json:"asset_type"`
	Description    string `json:"description"`
	FallbackPrompt string `json:"fallback_prompt,omitempty"`
	Position       string `json:"position"`
	Marker         string `json:"marker,omitempty"`
}

// ThreadFallback returns tweet texts the strategy carries, looked up in
// platform_strategies.twitter.thread, then thread, then structured_data.thread.
// Items may be strings or objects with a text field.
func (s *ContentStrategy) ThreadFallback() []string {
	if s == nil {
		return nil
	}
	if len(s.Twitter.Thread) > 0 {
		return s.Twitter.Thread
	}
	if t := threadTexts(s.Document["thread"]); len(t) > 0 {
		return t
	}
	if sd, ok := asMap(s.Document["structured_data"]); ok {
		return threadTexts(sd["thread"])
	}
	return nil
}

func threadTexts(v any) []string {
	items, _ := v.([]any)
	var out []string
	for _, item := range items {
		text := asString(item)
		if m, ok := asMap(item); ok {
			text = asString(m["text"])
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}
