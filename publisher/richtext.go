package publisher

import (
	"strings"
)

const (
	richTextChunkSize = 1900
	richTextMaxChunks = 95
)

// RichTextPayload is a CMS page update writing one rich_text property.
type RichTextPayload struct {
	Properties map[string]RichTextProperty `json:"properties"`
}

type RichTextProperty struct {
	RichText []RichTextSpan `json:"rich_text"`
}

type RichTextSpan struct {
	Type string       `json:"type"`
	Text RichTextBody `json:"text"`
}

type RichTextBody struct {
	Content string `json:"content"`
}

// RichTextRules builds rows that write text into the named property.
func RichTextRules(property string, text string) Rules {
	return Rules{
		Platform: PlatformRichText,
		MinChars: 1,
		Draft:    func(Input) string { return text },
		Shape: func(s string, _ Input) (any, []string, error) {
			return shapeRichText(property, s)
		},
	}
}

// BuildRichText chunks text into a rich_text property write.
func BuildRichText(property, text string) Result {
	return Build(RichTextRules(property, text), Input{})
}

// CompiledText returns the publishable text of a successful result. Thread
// units are joined with --- lines and LinkedIn posts with blank lines.
func CompiledText(res Result) (string, bool) {
	if res.Status != StatusSuccess {
		return "", false
	}
	switch p := res.Payload.(type) {
	case DevToPayload:
		return p.Article.BodyMarkdown, true
	case HashnodePost:
		return p.ContentMarkdown, true
	case BlogPost:
		return p.Markdown, true
	case TwitterThread:
		parts := make([]string, len(p.Units))
		for i, u := range p.Units {
			parts[i] = u.Text
		}
		return strings.Join(parts, "\n---\n"), true
	case []LinkedInPost:
		parts := make([]string, len(p))
		for i, post := range p {
			parts[i] = post.Text
		}
		return strings.Join(parts, "\n\n"), true
	}
	return "", false
}

func shapeRichText(property, text string) (any, []string, error) {
	var warnings []string
	chunks := ChunkFixed(text, richTextChunkSize)
	if len(chunks) > richTextMaxChunks {
		chunks = chunks[:richTextMaxChunks]
		warnings = append(warnings, "text exceeds 95 blocks of 1900 characters, remainder dropped")
	}
	spans := make([]RichTextSpan, len(chunks))
	for i, c := range chunks {
		spans[i] = RichTextSpan{Type: "text", Text: RichTextBody{Content: c}}
	}
	name := strings.TrimSpace(property)
	return RichTextPayload{Properties: map[string]RichTextProperty{name: {RichText: spans}}}, warnings, nil
}
