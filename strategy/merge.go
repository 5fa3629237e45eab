package strategy

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"auto_content_syndicator/logger"
)

// MasterContext is the single document handed to every generation stage.
// It is built once per content item and never modified afterwards.
type MasterContext struct {
	PersonalContext  PersonalContext  `json:"personalContext"`
	SourceContent    SourceContent    `json:"sourceContent"`
	Research         Research         `json:"research"`
	WorkflowMetadata WorkflowMetadata `json:"workflowMetadata"`
	Strategy         *ContentStrategy `json:"strategy,omitempty"`
}

type PersonalContext struct {
	Author    string   `json:"author"`
	Role      string   `json:"role"`
	Voice     string   `json:"voice"`
	Audience  string   `json:"audience"`
	Expertise []string `json:"expertise"`
}

type SourceContent struct {
	Title           string    `json:"title"`
	Categories      []string  `json:"categories"`
	PrimaryCategory string    `json:"primaryCategory"`
	Summary         string    `json:"summary"`
	WordCount       int       `json:"wordCount"`
	Structure       Structure `json:"structure"`
	Complexity      string    `json:"complexity"`
	FullText        string    `json:"fullText"`
}

type Structure struct {
	HeadingCount   int  `json:"headingCount"`
	ParagraphCount int  `json:"paragraphCount"`
	HasCodeBlocks  bool `json:"hasCodeBlocks"`
	HasLists       bool `json:"hasLists"`
}

type WorkflowMetadata struct {
	PageID          string             `json:"pageId"`
	ExtractionStats map[string]float64 `json:"extractionStats"`
	HasImages       bool               `json:"hasImages"`
	ProcessedAt     string             `json:"processedAt"`
}

// Merger folds the personal/source document, the research response and the
// validated strategy into a MasterContext.
type Merger struct {
	log *logger.Logger
	now func() time.Time
}

func NewMerger(log *logger.Logger) *Merger {
	return &Merger{log: logger.OrNop(log), now: time.Now}
}

// WithClock returns a copy of m that stamps ProcessedAt from now.
func (m *Merger) WithClock(now func() time.Time) *Merger {
	cp := *m
	cp.now = now
	return &cp
}

// Merge never fails: every field falls back to a default, and an unreadable
// research response is replaced by the built-in research bundle.
func (m *Merger) Merge(previous, research []byte, validated *ContentStrategy) MasterContext {
	prev := gjson.ParseBytes(previous)
	if !prev.IsObject() {
		m.log.Warn("previous context is not a JSON object, using defaults")
		prev = gjson.Result{}
	}

	res, ok := parseResearch(research)
	if !ok {
		m.log.Warn("research response unreadable, using fallback bundle")
	}

	pc := prev.Get("personalContext")
	sc := prev.Get("sourceContent")
	wm := prev.Get("workflowMetadata")

	fullText := str(firstOf(sc, "fullText", "content"), str(prev.Get("fullText"), ""))
	categories := stringsOr(firstOf(sc, "categories", "tags"), nil)
	structure := sc.Get("structure")

	out := MasterContext{
		PersonalContext: PersonalContext{
			Author:    str(firstOf(pc, "author", "name"), "Unknown author"),
			Role:      str(pc.Get("role"), "Software engineer"),
			Voice:     str(firstOf(pc, "voice", "tone"), "conversational, practical"),
			Audience:  str(pc.Get("audience"), "developers"),
			Expertise: stringsOr(pc.Get("expertise"), []string{}),
		},
		SourceContent: SourceContent{
			Title:           str(firstOf(sc, "title"), str(prev.Get("title"), "Untitled")),
			Categories:      categories,
			PrimaryCategory: str(sc.Get("primaryCategory"), firstOrDefault(categories, "General")),
			Summary:         str(sc.Get("summary"), summarize(fullText, 280)),
			WordCount:       intOr(sc.Get("wordCount"), len(strings.Fields(fullText))),
			Structure: Structure{
				HeadingCount:   intOr(structure.Get("headingCount"), countHeadings(fullText)),
				ParagraphCount: intOr(structure.Get("paragraphCount"), countParagraphs(fullText)),
				HasCodeBlocks:  boolOr(structure.Get("hasCodeBlocks"), strings.Contains(fullText, "```")),
				HasLists:       boolOr(structure.Get("hasLists"), hasList(fullText)),
			},
			Complexity: str(sc.Get("complexity"), "intermediate"),
			FullText:   fullText,
		},
		Research: res,
		WorkflowMetadata: WorkflowMetadata{
			PageID:          str(firstOf(wm, "pageId"), str(firstOf(prev, "pageId", "id"), "")),
			ExtractionStats: map[string]float64{},
			HasImages:       boolOr(wm.Get("hasImages"), false),
			ProcessedAt:     m.now().UTC().Format(time.RFC3339),
		},
		Strategy: validated,
	}
	if out.SourceContent.Categories == nil {
		out.SourceContent.Categories = []string{}
	}
	wm.Get("extractionStats").ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.Number {
			out.WorkflowMetadata.ExtractionStats[k.String()] = v.Float()
		}
		return true
	})
	if validated != nil && validated.ImageStrategy.NeedsImages {
		out.WorkflowMetadata.HasImages = true
	}
	return out
}

func str(r gjson.Result, def string) string {
	if r.Type == gjson.String || r.Type == gjson.Number {
		if s := strings.TrimSpace(r.String()); s != "" {
			return s
		}
	}
	return def
}

func intOr(r gjson.Result, def int) int {
	if r.Type == gjson.Number {
		return int(r.Int())
	}
	return def
}

func boolOr(r gjson.Result, def bool) bool {
	if r.Type == gjson.True || r.Type == gjson.False {
		return r.Bool()
	}
	return def
}

func firstOrDefault(s []string, def string) string {
	if len(s) > 0 {
		return s[0]
	}
	return def
}

func summarize(text string, limit int) string {
	joined := strings.Join(strings.Fields(text), " ")
	r := []rune(joined)
	if len(r) <= limit {
		return joined
	}
	return string(r[:limit])
}

func countHeadings(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			n++
		}
	}
	return n
}

func countParagraphs(text string) int {
	n := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func hasList(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "- ") || strings.HasPrefix(l, "* ") || strings.HasPrefix(l, "1. ") {
			return true
		}
	}
	return false
}
