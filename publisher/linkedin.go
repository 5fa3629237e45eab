package publisher

import (
	"strings"

	"auto_content_syndicator/images"
	"auto_content_syndicator/masterdata"
)

const (
	linkedInMax            = 2800
	linkedInOverflowSuffix = "\n\n[See full details in comments]"
	linkedInBlockSep       = "\n---\n"
)

// LinkedInPost is one post of a LinkedIn series.
type LinkedInPost struct {
	Order     int              `json:"order"`
	Text      string           `json:"text"`
	CharCount int              `json:"charCount"`
	HasImage  bool             `json:"hasImage"`
	Platform  Platform         `json:"platform"`
	Image     *images.ImageRef `json:"image,omitempty"`
}

func linkedInRules() Rules {
	return Rules{
		Platform: PlatformLinkedIn,
		MinChars: minSocial,
		Markers:  MarkersAttach,
		Sanitize: []func(string) string{StripInvisible},
		Selected: func(p masterdata.Platforms) bool { return p.LinkedIn },
		Draft:    fromDrafts(func(d masterdata.DraftSet) string { return d.LinkedIn }),
		Shape:    shapeLinkedIn,
	}
}

func shapeLinkedIn(text string, in Input) (any, []string, error) {
	var (
		posts    = []LinkedInPost{}
		warnings []string
	)
	for _, block := range strings.Split(text, linkedInBlockSep) {
		clean, img := attachFirst(block, in.Images)
		clean = strings.TrimSpace(CollapseBlankLines(StripMarkdown(clean)))
		if clean == "" && img == nil {
			continue
		}
		if runeLen(clean) > linkedInMax {
			clean = Truncate(clean, linkedInMax, linkedInOverflowSuffix)
			warnings = append(warnings, "post truncated to 2800 characters")
		}
		posts = append(posts, LinkedInPost{
			Order:     len(posts) + 1,
			Text:      clean,
			CharCount: runeLen(clean),
			HasImage:  img != nil,
			Platform:  PlatformLinkedIn,
			Image:     img,
		})
	}
	return posts, warnings, nil
}
