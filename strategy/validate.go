package strategy

import (
	"fmt"
	"strings"

	"auto_content_syndicator/logger"
)

const defaultQualityWarning = "Source material is thin; the strategy relies on general knowledge and should be reviewed before publishing."

// ValidationError lists every missing required field. It is fatal.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "strategy validation failed: " + strings.Join(e.Issues, ", ")
}

func defaultNarrativeArc() map[string]any {
	return map[string]any{
		"formula":            FormulaPAS,
		"the_villain":        "Unnecessary complexity and wasted effort",
		"the_epiphany":       "A simpler, repeatable approach exists",
		"the_transformation": "Clear results the reader can reproduce",
	}
}

func defaultPsychologicalTriggers() map[string]any {
	return map[string]any{
		"stop_trigger_type":   "curiosity",
		"save_trigger":        "Actionable takeaway worth revisiting",
		"share_trigger":       "Relatable problem the reader's peers face",
		"authenticity_signal": "First-hand experience and concrete numbers",
		"emotional_arc":       "frustration to relief",
	}
}

func defaultImageStrategy() map[string]any {
	return map[string]any{
		"needs_images":     false,
		"rationale":        "Default fallback (AI strategy missing)",
		"specific_prompts": []any{},
	}
}

// Validator applies the strategy schema-with-defaults.
type Validator struct {
	log *logger.Logger
}

func NewValidator(log *logger.Logger) *Validator {
	return &Validator{log: logger.OrNop(log)}
}

// Validate is NewValidator(nil).Validate.
func Validate(doc map[string]any) (*ContentStrategy, error) {
	return NewValidator(nil).Validate(doc)
}

// Validate repairs optional fields in a copy of doc and fails only when
// strategy_summary, platform_strategies or platform_strategies.linkedin is
// missing. All missing required fields are reported together.
func (v *Validator) Validate(doc map[string]any) (*ContentStrategy, error) {
	d, _ := deepCopy(doc).(map[string]any)
	if d == nil {
		d = map[string]any{}
	}
	var issues, repairs []string
	repair := func(msg string, kv ...interface{}) {
		repairs = append(repairs, msg)
		v.log.Warn("strategy repaired: "+msg, kv...)
	}

	if !present(d["strategy_summary"]) {
		issues = append(issues, "missing strategy_summary")
	}
	platforms, hasPlatforms := asMap(d["platform_strategies"])
	if !hasPlatforms {
		issues = append(issues, "missing platform_strategies")
	}

	quality := SourceQuality(asString(d["source_quality"]))
	if !quality.Valid() {
		repair("source_quality defaulted to moderate", "got", d["source_quality"])
		quality = QualityModerate
		d["source_quality"] = string(quality)
	}

	if quality == QualityThin && !present(d["quality_warning"]) {
		repair("quality_warning synthesized for thin source")
		d["quality_warning"] = defaultQualityWarning
	}

	if arc, ok := asMap(d["narrative_arc"]); !ok {
		repair("narrative_arc defaulted")
		d["narrative_arc"] = defaultNarrativeArc()
	} else {
		switch f := asString(arc["formula"]); f {
		case "":
			repair("narrative_arc.formula defaulted to PAS")
			arc["formula"] = FormulaPAS
		case FormulaPAS, FormulaBAB, FormulaButTherefore:
		default:
			v.log.Warn("unrecognized narrative formula kept as-is", "formula", f)
		}
	}

	if _, ok := asMap(d["psychological_triggers"]); !ok {
		repair("psychological_triggers defaulted")
		d["psychological_triggers"] = defaultPsychologicalTriggers()
	}

	if hasPlatforms {
		if tw, ok := asMap(platforms["twitter"]); !ok {
			repair("platform_strategies.twitter synthesized")
			platforms["twitter"] = map[string]any{
				"hashtags":          []any{},
				"content_breakdown": []any{"General Strategy Update"},
			}
		} else if _, isArr := tw["hashtags"].([]any); !isArr {
			repair("platform_strategies.twitter.hashtags coerced to array", "got", tw["hashtags"])
			tw["hashtags"] = []any{}
		}
	}

	if _, ok := asMap(platforms["linkedin"]); !ok {
		issues = append(issues, "missing platform_strategies.linkedin")
	}

	if img, ok := asMap(d["image_strategy"]); !ok {
		repair("image_strategy defaulted")
		d["image_strategy"] = defaultImageStrategy()
	} else {
		if _, isArr := img["specific_prompts"].([]any); !isArr {
			repair("image_strategy.specific_prompts coerced to array", "got", img["specific_prompts"])
			img["specific_prompts"] = []any{}
		}
		if _, isBool := img["needs_images"].(bool); !isBool {
			repair("image_strategy.needs_images coerced to boolean", "got", img["needs_images"])
			img["needs_images"] = truthy(img["needs_images"])
		}
	}

	if len(issues) > 0 {
		v.log.Error("strategy rejected", "issues", issues)
		return nil, &ValidationError{Issues: issues}
	}

	out := view(d)
	out.Repairs = repairs
	if len(repairs) > 0 {
		v.log.Info("strategy validated with repairs", "repairs", len(repairs))
	}
	return out, nil
}

// view builds the typed projection of an already repaired document.
func view(d map[string]any) *ContentStrategy {
	s := &ContentStrategy{
		StrategySummary: asString(d["strategy_summary"]),
		SourceQuality:   SourceQuality(asString(d["source_quality"])),
		QualityWarning:  asString(d["quality_warning"]),
		Document:        d,
	}

	arc, _ := asMap(d["narrative_arc"])
	s.NarrativeArc = NarrativeArc{
		Formula:           asString(arc["formula"]),
		TheVillain:        asString(arc["the_villain"]),
		TheEpiphany:       asString(arc["the_epiphany"]),
		TheTransformation: asString(arc["the_transformation"]),
	}

	pt, _ := asMap(d["psychological_triggers"])
	s.PsychologicalTriggers = PsychologicalTriggers{
		StopTriggerType:    asString(pt["stop_trigger_type"]),
		SaveTrigger:        asString(pt["save_trigger"]),
		ShareTrigger:       asString(pt["share_trigger"]),
		AuthenticitySignal: asString(pt["authenticity_signal"]),
		EmotionalArc:       asString(pt["emotional_arc"]),
	}

	platforms, _ := asMap(d["platform_strategies"])
	tw, _ := asMap(platforms["twitter"])
	s.Twitter = TwitterStrategy{
		Hashtags:         nonNil(asStringSlice(tw["hashtags"])),
		ContentBreakdown: nonNil(asStringSlice(tw["content_breakdown"])),
		Thread:           threadTexts(tw["thread"]),
	}
	s.LinkedIn, _ = asMap(platforms["linkedin"])

	img, _ := asMap(d["image_strategy"])
	s.ImageStrategy = ImageStrategy{
		NeedsImages:     truthy(img["needs_images"]),
		Rationale:       asString(img["rationale"]),
		SpecificPrompts: []ImagePrompt{},
	}
	prompts, _ := img["specific_prompts"].([]any)
	for i, p := range prompts {
		pm, ok := asMap(p)
		if !ok {
			continue
		}
		prompt := ImagePrompt{
			Purpose:        asString(pm["purpose"]),
			AssetType:      asString(pm["asset_type"]),
			Description:    asString(pm["description"]),
			FallbackPrompt: asString(pm["fallback_prompt"]),
			Position:       asString(pm["position"]),
			Marker:         asString(pm["marker"]),
		}
		if prompt.AssetType != AssetReal && prompt.AssetType != AssetGenerative {
			prompt.AssetType = AssetGenerative
		}
		if prompt.Marker == "" {
			prompt.Marker = fmt.Sprintf("<<IMAGE_%d>>", i+1)
		}
		s.ImageStrategy.SpecificPrompts = append(s.ImageStrategy.SpecificPrompts, prompt)
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
