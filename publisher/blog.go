package publisher

import (
	"bytes"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"auto_content_syndicator/masterdata"
)

const (
	blogExcerptMax   = 155
	blogSectionSize  = 1900
	wordsPerMinute   = 200
	blogUnsafeFilter = "script, iframe, style, object, embed"
)

// BlogPost is the long-form document written to the site CMS.
type BlogPost struct {
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Description    string   `json:"description"`
	Excerpt        string   `json:"excerpt"`
	Tags           []string `json:"tags"`
	CanonicalURL   string   `json:"canonicalUrl,omitempty"`
	MainImage      string   `json:"mainImage,omitempty"`
	Markdown       string   `json:"markdown"`
	HTML           string   `json:"html"`
	Headings       []string `json:"headings"`
	WordCount      int      `json:"wordCount"`
	ReadingMinutes int      `json:"readingMinutes"`
	// Sections are paragraph-aligned preview blocks for the CMS editor.
	Sections []string `json:"sections"`
}

// Raw HTML in drafts is rendered and then filtered with goquery.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

func blogRules() Rules {
	return Rules{
		Platform:  PlatformBlog,
		MinChars:  minLongForm,
		Markers:   MarkersInline,
		UploadAlt: true,
		Sanitize:  []func(string) string{StripInvisible, CollapseBlankLines},
		Selected:  func(p masterdata.Platforms) bool { return p.Blog },
		Draft:     fromDrafts(func(d masterdata.DraftSet) string { return d.SanityBlog }),
		Shape:     shapeBlog,
	}
}

func shapeBlog(md string, in Input) (any, []string, error) {
	meta := in.meta()
	md = strings.TrimSpace(md)

	rendered, err := mdToHTML(md)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if removed := doc.Find(blogUnsafeFilter).Remove(); removed.Length() > 0 {
		warnings = append(warnings, "embedded script/iframe/style elements removed")
	}

	var headings []string
	doc.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			headings = append(headings, t)
		}
	})

	excerpt := ""
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		excerpt = strings.Join(strings.Fields(s.Text()), " ")
		return excerpt == ""
	})

	words := len(strings.Fields(doc.Text()))
	body, err := doc.Find("body").Html()
	if err != nil {
		return nil, nil, err
	}

	post := BlogPost{
		Title:          strings.TrimSpace(meta.Title),
		Slug:           firstNonEmpty(meta.Slug, masterdata.Slugify(meta.Title)),
		Description:    Truncate(firstNonEmpty(meta.Description, excerpt), blogExcerptMax, "..."),
		Excerpt:        Truncate(excerpt, blogExcerptMax, "..."),
		Tags:           append([]string{}, meta.Tags...),
		Markdown:       md,
		HTML:           strings.TrimSpace(body),
		Headings:       nonNilStrings(headings),
		WordCount:      words,
		ReadingMinutes: int(math.Max(1, math.Ceil(float64(words)/wordsPerMinute))),
		Sections:       ChunkParagraphs(md, blogSectionSize),
	}
	if strings.HasPrefix(meta.CanonicalURL, "http") {
		post.CanonicalURL = meta.CanonicalURL
	}
	if in.Master != nil {
		if req := in.Master.RequiredImages.Blog; len(req) > 0 {
			post.MainImage = in.Images.URL(req[0])
		}
	}
	return post, warnings, nil
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
