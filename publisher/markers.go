package publisher

import (
	"strconv"
	"strings"

	"auto_content_syndicator/images"
	"auto_content_syndicator/masterdata"
)

// replaceMarkers rewrites each <<IMAGE_n>> marker as a markdown image when the
// map resolves n, and removes it otherwise. The alt text is title unless
// uploadAlt is set and the upload carries its own. It returns the ordinals
// that had no URL.
func replaceMarkers(md string, refs images.ImageReferenceMap, title string, uploadAlt bool) (string, []int) {
	matches := masterdata.MarkerPattern.FindAllStringSubmatchIndex(md, -1)
	if len(matches) == 0 {
		return md, nil
	}

	var (
		b          strings.Builder
		unresolved []int
		last       int
	)
	for _, m := range matches {
		b.WriteString(md[last:m[0]])
		last = m[1]
		n, _ := strconv.Atoi(md[m[2]:m[3]])
		ref, ok := refs.Lookup(n)
		if !ok || ref.CDNURL == "" {
			unresolved = append(unresolved, n)
			continue
		}
		alt := title
		if (uploadAlt && ref.Alt != "") || alt == "" {
			alt = ref.Alt
		}
		b.WriteString("![")
		b.WriteString(escapeAlt(alt))
		b.WriteString("](")
		b.WriteString(ref.CDNURL)
		b.WriteString(")")
	}
	b.WriteString(md[last:])
	return b.String(), unresolved
}

// attachFirst removes every marker from text and returns the image of the
// first marker in it. A first marker without an upload attaches nothing.
func attachFirst(text string, refs images.ImageReferenceMap) (string, *images.ImageRef) {
	var attached *images.ImageRef
	if order := markerOrder(text); len(order) > 0 {
		if ref, ok := refs.Lookup(order[0]); ok {
			attached = &ref
		}
	}
	clean := masterdata.MarkerPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(trailingSpaceRe.ReplaceAllString(clean, "\n")), attached
}

// markerOrder lists ordinals in order of appearance.
func markerOrder(text string) []int {
	var out []int
	for _, m := range masterdata.MarkerPattern.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func escapeAlt(s string) string {
	return strings.NewReplacer("[", "(", "]", ")", "\n", " ").Replace(s)
}
