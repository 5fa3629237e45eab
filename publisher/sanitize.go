package publisher

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	liquidOpenRe    = regexp.MustCompile(`\{%-?\s*([a-zA-Z_][a-zA-Z0-9_]*)[^%]*?-?%\}`)
	liquidStrayRe   = regexp.MustCompile(`(?s)\{%.*?%\}`)
	liquidOutputRe  = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)
	ghAlertRe       = regexp.MustCompile(`(?mi)^([ \t]*>[ \t]*)\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\][ \t]*$`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
)

// StripLiquid neutralizes Liquid/Jekyll template syntax, which Dev.to would
// otherwise try to render: paired {% x %}...{% endx %} blocks are removed with
// their content, stray {% ... %} tags are dropped, {{ expr }} becomes inline
// code, and GitHub alert headers become a bold blockquote label.
func StripLiquid(s string) string {
	s = removeLiquidBlocks(s)
	s = liquidStrayRe.ReplaceAllString(s, "")
	s = liquidOutputRe.ReplaceAllString(s, "`$1`")
	s = ghAlertRe.ReplaceAllStringFunc(s, func(line string) string {
		m := ghAlertRe.FindStringSubmatch(line)
		kind := strings.ToUpper(m[2][:1]) + strings.ToLower(m[2][1:])
		return m[1] + "**" + kind + ":**"
	})
	return s
}

// removeLiquidBlocks deletes every opener that has a matching end tag, along
// with everything between them. RE2 has no backreferences, so the closer is
// searched for per opener.
func removeLiquidBlocks(s string) string {
	for {
		removed := false
		for _, m := range liquidOpenRe.FindAllStringSubmatchIndex(s, -1) {
			name := s[m[2]:m[3]]
			if strings.HasPrefix(name, "end") {
				continue
			}
			closeRe := regexp.MustCompile(`\{%-?\s*end` + regexp.QuoteMeta(name) + `\s*-?%\}`)
			loc := closeRe.FindStringIndex(s[m[1]:])
			if loc == nil {
				continue
			}
			s = s[:m[0]] + s[m[1]+loc[1]:]
			removed = true
			break
		}
		if !removed {
			return s
		}
	}
}

var invisibleRunes = map[rune]bool{
	'\u200b': true, '\u200c': true, '\u200d': true, '\u2060': true, '\ufeff': true, '\u00ad': true,
}

// StripInvisible removes zero-width characters and control characters other
// than newline and tab, and normalizes CRLF line endings.
func StripInvisible(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		if invisibleRunes[r] {
			return -1
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

var (
	boldRe       = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	italicStarRe = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUndRe  = regexp.MustCompile(`\b_([^_\n]+)_\b`)
	headingRe    = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	bulletRe     = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+`)
)

// StripMarkdown turns markdown emphasis and headings into plain text and
// renders list bullets as "•", for destinations without markdown support.
func StripMarkdown(s string) string {
	s = headingRe.ReplaceAllString(s, "")
	s = bulletRe.ReplaceAllString(s, "$1• ")
	s = boldRe.ReplaceAllString(s, "$2")
	s = italicStarRe.ReplaceAllString(s, "$1")
	s = italicUndRe.ReplaceAllString(s, "$1")
	return s
}

// CollapseBlankLines limits runs of empty lines to one.
func CollapseBlankLines(s string) string {
	return blankRunRe.ReplaceAllString(s, "\n\n")
}

// Truncate shortens s to at most max runes, ending with suffix when cut.
func Truncate(s string, max int, suffix string) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	keep := max - len([]rune(suffix))
	if keep < 0 {
		keep = 0
	}
	return string(r[:keep]) + suffix
}

func runeLen(s string) int {
	return len([]rune(s))
}

// SanitizeTags applies the Dev.to tag rules: lowercase, keep [a-z0-9] only,
// drop empty and overlong results, keep the first limit tags.
func SanitizeTags(tags []string, maxLen, limit int) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		var b strings.Builder
		for _, r := range strings.ToLower(t) {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		tag := b.String()
		if tag == "" || len(tag) > maxLen || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == limit {
			break
		}
	}
	return out
}
