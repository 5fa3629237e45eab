package strategy

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Research is the enrichment bundle returned by the research step.
type Research struct {
	Source           string            `json:"source"` // "api" or "fallback"
	TrendingHashtags []string          `json:"trendingHashtags"`
	PostingWindows   map[string]string `json:"postingWindows"`
	HookExamples     []string          `json:"hookExamples"`
	PainPoints       []string          `json:"painPoints"`
	KeyInsights      []string          `json:"keyInsights"`
}

const (
	researchFromAPI      = "api"
	researchFromFallback = "fallback"
)

func fallbackResearch() Research {
	return Research{
		Source:           researchFromFallback,
		TrendingHashtags: []string{"#BuildInPublic", "#SoftwareEngineering", "#DevCommunity", "#WebDev", "#AI"},
		PostingWindows: map[string]string{
			"twitter":  "Tue-Thu 09:00-11:00",
			"linkedin": "Tue-Wed 08:00-10:00",
			"devto":    "Mon-Wed 07:00-09:00",
		},
		HookExamples: []string{
			"I wasted three weeks on this so you don't have to.",
			"Most teams get this wrong. Here's what actually works.",
			"The one change that cut our build time in half.",
		},
		PainPoints: []string{
			"Too much time spent on repetitive work",
			"Tooling that is harder to maintain than the problem it solves",
			"Unclear trade-offs between competing approaches",
		},
		KeyInsights: []string{},
	}
}

var fenceRe = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")

// stripFences removes markdown code fence lines around a JSON payload.
func stripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

// parseResearch reads a research response. ok is false when no JSON object
// could be recovered, in which case the fallback bundle is returned whole.
func parseResearch(body []byte) (Research, bool) {
	fb := fallbackResearch()
	if len(strings.TrimSpace(string(body))) == 0 {
		return fb, false
	}
	text := stripFences(ExtractEnvelope(body))
	if !gjson.Valid(text) || !gjson.Parse(text).IsObject() {
		start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
		if start < 0 || end < start || !gjson.Valid(text[start:end+1]) {
			return fb, false
		}
		text = text[start : end+1]
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return fb, false
	}

	r := Research{
		Source:           researchFromAPI,
		TrendingHashtags: stringsOr(firstOf(root, "trending_hashtags", "trendingHashtags", "hashtags"), fb.TrendingHashtags),
		HookExamples:     stringsOr(firstOf(root, "hook_examples", "hookExamples", "hooks"), fb.HookExamples),
		PainPoints:       stringsOr(firstOf(root, "pain_points", "painPoints"), fb.PainPoints),
		KeyInsights:      stringsOr(firstOf(root, "key_insights", "keyInsights", "insights"), fb.KeyInsights),
		PostingWindows:   fb.PostingWindows,
	}
	if pw := firstOf(root, "optimal_posting_times", "postingWindows", "posting_times"); pw.IsObject() {
		windows := map[string]string{}
		pw.ForEach(func(k, v gjson.Result) bool {
			if s := strings.TrimSpace(v.String()); s != "" {
				windows[strings.ToLower(k.String())] = s
			}
			return true
		})
		if len(windows) > 0 {
			r.PostingWindows = windows
		}
	}
	return r, true
}

func firstOf(root gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := root.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func stringsOr(r gjson.Result, def []string) []string {
	var out []string
	if r.IsArray() {
		for _, item := range r.Array() {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	} else if s := strings.TrimSpace(r.String()); s != "" && r.Type == gjson.String {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return append([]string{}, def...)
	}
	return out
}
