package publisher

import (
	"strings"

	"auto_content_syndicator/masterdata"
)

const (
	devToTitleMax       = 128
	devToDescriptionMax = 155
	devToTagMax         = 30
	devToTagLimit       = 4
)

// DevToPayload is the body of POST /api/articles.
type DevToPayload struct {
	Article DevToArticle `json:"article"`
}

type DevToArticle struct {
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Published    bool     `json:"published"`
	Tags         []string `json:"tags"`
	Description  string   `json:"description"`
	CanonicalURL string   `json:"canonical_url,omitempty"`
	MainImage    string   `json:"main_image,omitempty"`
}

func devToRules() Rules {
	return Rules{
		Platform: PlatformDevTo,
		MinChars: minLongForm,
		Markers:  MarkersInline,
		Sanitize: []func(string) string{StripInvisible, StripLiquid, CollapseBlankLines},
		Selected: func(p masterdata.Platforms) bool { return p.DevTo },
		Draft:    fromDrafts(func(d masterdata.DraftSet) string { return d.DevTo }),
		Shape:    shapeDevTo,
	}
}

func shapeDevTo(body string, in Input) (any, []string, error) {
	meta := in.meta()
	var warnings []string

	title := strings.TrimSpace(firstNonEmpty(meta.SEOTitle, meta.Title))
	if runeLen(title) > devToTitleMax {
		warnings = append(warnings, "title truncated to 128 characters")
	}

	desc := firstNonEmpty(meta.Description, plainExcerpt(body))
	tags := SanitizeTags(meta.Tags, devToTagMax, devToTagLimit)
	if len(tags) < len(meta.Tags) {
		warnings = append(warnings, "tags dropped by Dev.to tag rules")
	}

	art := DevToArticle{
		Title:        Truncate(title, devToTitleMax, "..."),
		BodyMarkdown: strings.TrimSpace(body),
		Published:    true,
		Tags:         tags,
		Description:  Truncate(desc, devToDescriptionMax, "..."),
	}
	if c := strings.TrimSpace(meta.CanonicalURL); strings.HasPrefix(c, "http") {
		art.CanonicalURL = c
	} else if c != "" {
		warnings = append(warnings, "canonical url ignored, not an http(s) url")
	}
	if in.Master != nil {
		if req := in.Master.RequiredImages.DevTo; len(req) > 0 {
			art.MainImage = in.Images.URL(req[0])
		}
	}
	return DevToPayload{Article: art}, warnings, nil
}

// plainExcerpt returns the first prose paragraph of a markdown body with
// markup removed, collapsed to a single line.
func plainExcerpt(md string) string {
	for _, para := range strings.Split(md, "\n\n") {
		p := strings.TrimSpace(para)
		if p == "" || strings.HasPrefix(p, "#") || strings.HasPrefix(p, "![") ||
			strings.HasPrefix(p, "```") || strings.HasPrefix(p, ">") {
			continue
		}
		return strings.Join(strings.Fields(StripMarkdown(p)), " ")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
