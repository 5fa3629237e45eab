package publisher

import (
	"regexp"
	"strings"

	"auto_content_syndicator/images"
	"auto_content_syndicator/masterdata"
)

const tweetMax = 280

// ThreadWarningBanner is prepended to a long single-block draft. Drafts are
// expected to separate tweets with "---" lines; a long draft without any is
// probably an unsplit thread. The check is advisory only.
const ThreadWarningBanner = "⚠️ THREAD FORMAT WARNING: this draft is longer than 280 characters and has no --- separators, so it will be posted as a single tweet.\n\n"

var threadSepRe = regexp.MustCompile(`(?m)^[ \t]*-{3,}[ \t]*$`)

// TwitterThread is an ordered reply chain.
type TwitterThread struct {
	Platform       Platform    `json:"platform"`
	Units          []TweetUnit `json:"units"`
	ThreadDetected bool        `json:"threadDetected"`
}

// TweetUnit is one tweet. InReplyTo holds the order of the tweet it answers.
type TweetUnit struct {
	Order     int              `json:"order"`
	Text      string           `json:"text"`
	CharCount int              `json:"charCount"`
	InReplyTo *int             `json:"inReplyTo,omitempty"`
	Image     *images.ImageRef `json:"image,omitempty"`
}

func twitterRules() Rules {
	return Rules{
		Platform: PlatformTwitter,
		MinChars: minSocial,
		Markers:  MarkersAttach,
		Sanitize: []func(string) string{StripInvisible},
		Selected: func(p masterdata.Platforms) bool { return p.Twitter },
		Draft:    fromDrafts(func(d masterdata.DraftSet) string { return d.Twitter }),
		Fallback: strategyThread,
		Shape:    shapeTwitter,
	}
}

// strategyThread joins the thread array the strategy may carry.
func strategyThread(in Input) string {
	if in.Strategy == nil {
		return ""
	}
	return strings.Join(in.Strategy.ThreadFallback(), "\n---\n")
}

func shapeTwitter(text string, in Input) (any, []string, error) {
	var warnings []string
	hasSeparator := threadSepRe.MatchString(text)
	if !hasSeparator && runeLen(strings.TrimSpace(text)) > tweetMax {
		text = ThreadWarningBanner + text
		warnings = append(warnings, "draft exceeds 280 characters without --- separators")
	}

	thread := TwitterThread{Platform: PlatformTwitter, ThreadDetected: hasSeparator, Units: []TweetUnit{}}
	for _, part := range threadSepRe.Split(text, -1) {
		clean, img := attachFirst(part, in.Images)
		if clean == "" && img == nil {
			continue
		}
		unit := TweetUnit{
			Order:     len(thread.Units) + 1,
			Text:      clean,
			CharCount: runeLen(clean),
			Image:     img,
		}
		if unit.Order > 1 {
			prev := unit.Order - 1
			unit.InReplyTo = &prev
		}
		thread.Units = append(thread.Units, unit)
	}
	return thread, warnings, nil
}
