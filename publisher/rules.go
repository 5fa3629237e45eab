package publisher

import (
	"fmt"
	"strings"

	"auto_content_syndicator/images"
	"auto_content_syndicator/masterdata"
	"auto_content_syndicator/strategy"
)

// Minimum meaningful draft lengths.
const (
	minLongForm = 100
	minSocial   = 20
)

// MarkerMode selects how <<IMAGE_n>> markers are resolved.
type MarkerMode int

const (
	// MarkersNone leaves markers to the shape function.
	MarkersNone MarkerMode = iota
	// MarkersInline substitutes markdown images and drops unresolved markers.
	MarkersInline
	// MarkersAttach strips markers per unit and attaches one image per unit.
	MarkersAttach
)

// Input is the read-only data shared by every builder of one content item.
type Input struct {
	Master   *masterdata.MasterData
	Images   images.ImageReferenceMap
	Strategy *strategy.ContentStrategy
}

func (in Input) meta() masterdata.SharedMeta {
	if in.Master == nil {
		return masterdata.SharedMeta{}
	}
	return in.Master.SharedMeta
}

// Rules is one row of the platform table. Build applies the shared steps
// (draft selection, skip check, sanitizers, marker mode) and Shape assembles
// the platform payload from the prepared text.
type Rules struct {
	Platform  Platform
	MinChars  int
	Markers   MarkerMode
	// UploadAlt lets inline images use the upload's alt text over the title.
	UploadAlt bool
	Sanitize  []func(string) string

	Selected func(masterdata.Platforms) bool
	Draft    func(Input) string
	// Fallback supplies text when the draft is missing or too short.
	Fallback func(Input) string
	Shape    func(text string, in Input) (payload any, warnings []string, err error)
}

// fromDrafts adapts a DraftSet field selector to Rules.Draft.
func fromDrafts(pick func(masterdata.DraftSet) string) func(Input) string {
	return func(in Input) string {
		if in.Master == nil {
			return ""
		}
		return pick(in.Master.Drafts)
	}
}

// DefaultRules is the platform table used by the Compiler, in result order.
func DefaultRules() []Rules {
	return []Rules{
		devToRules(),
		hashnodeRules(),
		blogRules(),
		twitterRules(),
		linkedInRules(),
	}
}

// Build runs one platform row. It never panics and never returns an error:
// failures become StatusError results and short drafts StatusSkipped.
func Build(r Rules, in Input) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = failed(r.Platform, fmt.Errorf("%s builder panicked: %v", r.Platform, p))
		}
	}()

	var text string
	if r.Draft != nil {
		text = r.Draft(in)
	}
	var warnings []string
	if runeLen(strings.TrimSpace(text)) < r.MinChars && r.Fallback != nil {
		if fb := r.Fallback(in); runeLen(strings.TrimSpace(fb)) >= r.MinChars {
			text = fb
			warnings = append(warnings, "draft missing or too short, built from strategy fallback")
		}
	}
	switch n := runeLen(strings.TrimSpace(text)); {
	case n == 0:
		return skipped(r.Platform, "no %s draft", r.Platform)
	case n < r.MinChars:
		return skipped(r.Platform, "%s draft shorter than %d characters", r.Platform, r.MinChars)
	}

	for _, fn := range r.Sanitize {
		text = fn(text)
	}

	if r.Markers == MarkersInline {
		var unresolved []int
		text, unresolved = replaceMarkers(text, in.Images, in.meta().Title, r.UploadAlt)
		for _, n := range unresolved {
			warnings = append(warnings, fmt.Sprintf("%s has no uploaded image, marker removed", masterdata.Marker(n)))
		}
	}

	payload, shapeWarnings, err := r.Shape(text, in)
	if err != nil {
		return failed(r.Platform, err)
	}
	return Result{
		Platform: r.Platform,
		Status:   StatusSuccess,
		Warnings: append(warnings, shapeWarnings...),
		Payload:  payload,
	}
}
