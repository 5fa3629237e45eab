package publisher

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_content_syndicator/images"
	"auto_content_syndicator/masterdata"
	"auto_content_syndicator/strategy"
)

func longText(prefix string, n int) string {
	return prefix + strings.Repeat("x", n-len(prefix))
}

func masterWith(p masterdata.Platforms, d masterdata.DraftSet) *masterdata.MasterData {
	return &masterdata.MasterData{
		SharedMeta: masterdata.SharedMeta{
			Title:       "My Post",
			SEOTitle:    "My Post",
			Description: "A short description",
			Slug:        "my-post",
			Tags:        []string{"Go", "Web-Dev"},
		},
		Drafts:    d,
		Platforms: p,
	}
}

func TestChunkFixed_RoundTrip(t *testing.T) {
	s := strings.Repeat("abcdé", 1000)
	chunks := ChunkFixed(s, 1900)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, runeLen(c), 1900)
	}
	assert.Equal(t, s, strings.Join(chunks, ""))
	assert.Nil(t, ChunkFixed("", 10))
	assert.Nil(t, ChunkFixed("abc", 0))
}

func TestChunkParagraphs(t *testing.T) {
	assert.Equal(t, []string{"one\n\ntwo"}, ChunkParagraphs("one\n\n\n\ntwo\n", 100))
	assert.Equal(t, []string{"aaaa", "bbbb"}, ChunkParagraphs("aaaa\n\nbbbb", 8))

	long := strings.Repeat("z", 25)
	chunks := ChunkParagraphs("intro\n\n"+long, 10)
	assert.Equal(t, []string{"intro", "zzzzzzzzzz", "zzzzzzzzzz", "zzzzz"}, chunks)
	assert.Nil(t, ChunkParagraphs("  \n\n ", 10))
}

func TestStripLiquid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paired block removed", "Before\n{% note %}Hi{% endnote %}\nAfter", "Before\n\nAfter"},
		{"stray tag dropped", "a {% include card.html %} b", "a  b"},
		{"output becomes code", "url is {{ site.url }}", "url is `site.url`"},
		{"github alert", "> [!WARNING]\n> careful", "> **Warning:**\n> careful"},
		{"repeated blocks", "x{% raw %}1{% endraw %}y{% raw %}2{% endraw %}z", "xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripLiquid(tt.in))
		})
	}
}

func TestStripInvisibleAndMarkdown(t *testing.T) {
	assert.Equal(t, "ab\nc", StripInvisible("a\u200bb\r\nc\u0007"))
	assert.Equal(t, "Title\n• one\n• two\nbold and italic",
		StripMarkdown("## Title\n- one\n* two\n**bold** and _italic_"))
	assert.Equal(t, "a\n\nb", CollapseBlankLines("a\n\n\n\n\nb"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10, "..."))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7, "..."))
	assert.Equal(t, 7, runeLen(Truncate(strings.Repeat("é", 20), 7, "...")))
}

func TestSanitizeTags(t *testing.T) {
	tags := []string{"Go", "Web-Dev", "", "c++", "go", "averyveryveryverylongtagnamethatexceedsthirty", "rust", "k8s"}
	assert.Equal(t, []string{"go", "webdev", "c", "rust"}, SanitizeTags(tags, 30, 4))
	assert.Equal(t, []string{}, SanitizeTags(nil, 30, 4))
}

func TestBuild_DevTo(t *testing.T) {
	draft := longText("Intro paragraph.\n\n<<IMAGE_1>>\n\n{% note %}hidden{% endnote %}\n\nMore <<IMAGE_2>> text ", 160)
	in := Input{
		Master: masterWith(masterdata.Platforms{DevTo: true}, masterdata.DraftSet{DevTo: draft}),
		Images: images.ImageReferenceMap{{ImageNumber: 1, Marker: "<<IMAGE_1>>", CDNURL: "https://cdn.test/1.png"}},
	}
	in.Master.SharedMeta.CanonicalURL = "ftp://example.com/post"

	res := Build(devToRules(), in)
	require.Equal(t, StatusSuccess, res.Status, res.Message)
	payload, ok := res.Payload.(DevToPayload)
	require.True(t, ok)

	art := payload.Article
	assert.Contains(t, art.BodyMarkdown, "![My Post](https://cdn.test/1.png)")
	assert.NotContains(t, art.BodyMarkdown, "<<IMAGE_")
	assert.NotContains(t, art.BodyMarkdown, "hidden")
	assert.True(t, art.Published)
	assert.Equal(t, "My Post", art.Title)
	assert.Equal(t, []string{"go", "webdev"}, art.Tags)
	assert.Empty(t, art.CanonicalURL)
	assert.Contains(t, res.Warnings, "<<IMAGE_2>> has no uploaded image, marker removed")
	assert.Contains(t, res.Warnings, "canonical url ignored, not an http(s) url")
}

func TestBuild_DevToAltIsTitle(t *testing.T) {
	in := Input{
		Master: masterWith(masterdata.Platforms{DevTo: true}, masterdata.DraftSet{DevTo: longText("Body <<IMAGE_1>> ", 120)}),
		Images: images.ImageReferenceMap{{ImageNumber: 1, Alt: "upload alt", CDNURL: "https://cdn.test/1.png"}},
	}
	res := Build(devToRules(), in)
	require.Equal(t, StatusSuccess, res.Status, res.Message)
	body := res.Payload.(DevToPayload).Article.BodyMarkdown
	assert.Contains(t, body, "![My Post](https://cdn.test/1.png)")
	assert.NotContains(t, body, "upload alt")

	in.Master.SharedMeta.Title = ""
	res = Build(devToRules(), in)
	require.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.Contains(t, res.Payload.(DevToPayload).Article.BodyMarkdown, "![upload alt](https://cdn.test/1.png)")
}

func TestBuild_DevToLimits(t *testing.T) {
	m := masterWith(masterdata.Platforms{DevTo: true}, masterdata.DraftSet{DevTo: longText("body ", 200)})
	m.SharedMeta.SEOTitle = strings.Repeat("t", 200)
	m.SharedMeta.Description = strings.Repeat("d", 300)
	m.SharedMeta.CanonicalURL = "https://example.com/post"

	res := Build(devToRules(), Input{Master: m})
	require.Equal(t, StatusSuccess, res.Status)
	art := res.Payload.(DevToPayload).Article
	assert.Equal(t, 128, runeLen(art.Title))
	assert.Equal(t, 155, runeLen(art.Description))
	assert.Equal(t, "https://example.com/post", art.CanonicalURL)
}

func TestBuild_SkipThresholds(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
		draft masterdata.DraftSet
		want  string
	}{
		{"devto absent", devToRules(), masterdata.DraftSet{}, "no devto draft"},
		{"devto short", devToRules(), masterdata.DraftSet{DevTo: strings.Repeat("a", 99)}, "devto draft shorter than 100 characters"},
		{"twitter short", twitterRules(), masterdata.DraftSet{Twitter: "too short"}, "twitter draft shorter than 20 characters"},
		{"linkedin blank", linkedInRules(), masterdata.DraftSet{LinkedIn: "   \n "}, "no linkedin draft"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Build(tt.rules, Input{Master: masterWith(masterdata.Platforms{}, tt.draft)})
			assert.Equal(t, StatusSkipped, res.Status)
			assert.Equal(t, tt.want, res.Message)
			assert.Nil(t, res.Payload)
		})
	}
}

func TestBuild_PanicBecomesError(t *testing.T) {
	r := Rules{
		Platform: PlatformBlog,
		MinChars: 1,
		Draft:    func(Input) string { return "text" },
		Shape: func(string, Input) (any, []string, error) {
			panic("boom")
		},
	}
	res := Build(r, Input{})
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, PlatformBlog, res.Platform)
	assert.Contains(t, res.Message, "boom")
}

func TestBuild_TwitterBanner(t *testing.T) {
	in := Input{Master: masterWith(masterdata.Platforms{Twitter: true}, masterdata.DraftSet{Twitter: strings.Repeat("a", 400)})}
	res := Build(twitterRules(), in)
	require.Equal(t, StatusSuccess, res.Status)

	thread := res.Payload.(TwitterThread)
	require.Len(t, thread.Units, 1)
	assert.False(t, thread.ThreadDetected)
	assert.True(t, strings.HasPrefix(thread.Units[0].Text, ThreadWarningBanner))
	assert.Len(t, res.Warnings, 1)
}

func TestBuild_TwitterInlineDashesAreNotSeparators(t *testing.T) {
	draft := strings.Repeat("a", 200) + " --- " + strings.Repeat("b", 200)
	in := Input{Master: masterWith(masterdata.Platforms{Twitter: true}, masterdata.DraftSet{Twitter: draft})}
	res := Build(twitterRules(), in)
	require.Equal(t, StatusSuccess, res.Status)

	thread := res.Payload.(TwitterThread)
	assert.False(t, thread.ThreadDetected)
	require.Len(t, thread.Units, 1)
	assert.True(t, strings.HasPrefix(thread.Units[0].Text, ThreadWarningBanner))
	assert.Contains(t, thread.Units[0].Text, "a --- b")
}

func TestBuild_TwitterThread(t *testing.T) {
	draft := strings.Repeat("a", 200) + " <<IMAGE_1>>\n---\n" + strings.Repeat("b", 200) + " <<IMAGE_9>>"
	in := Input{
		Master: masterWith(masterdata.Platforms{Twitter: true}, masterdata.DraftSet{Twitter: draft}),
		Images: images.ImageReferenceMap{{ImageNumber: 1, CDNURL: "https://cdn.test/1.png"}},
	}
	res := Build(twitterRules(), in)
	require.Equal(t, StatusSuccess, res.Status)

	thread := res.Payload.(TwitterThread)
	assert.True(t, thread.ThreadDetected)
	require.Len(t, thread.Units, 2)
	assert.Empty(t, res.Warnings)

	first, second := thread.Units[0], thread.Units[1]
	assert.Equal(t, strings.Repeat("a", 200), first.Text)
	assert.Equal(t, 200, first.CharCount)
	assert.Nil(t, first.InReplyTo)
	require.NotNil(t, first.Image)
	assert.Equal(t, "https://cdn.test/1.png", first.Image.CDNURL)

	require.NotNil(t, second.InReplyTo)
	assert.Equal(t, 1, *second.InReplyTo)
	assert.Nil(t, second.Image)
	assert.NotContains(t, second.Text, "<<IMAGE_")
}

func TestBuild_TwitterStrategyFallback(t *testing.T) {
	s, err := strategy.Validate(map[string]any{
		"strategy_summary": "s",
		"platform_strategies": map[string]any{
			"linkedin": map[string]any{},
			"twitter": map[string]any{
				"thread": []any{"First tweet of the thread", map[string]any{"text": "Second tweet"}},
			},
		},
	})
	require.NoError(t, err)

	in := Input{Master: masterWith(masterdata.Platforms{Twitter: true}, masterdata.DraftSet{}), Strategy: s}
	res := Build(twitterRules(), in)
	require.Equal(t, StatusSuccess, res.Status)

	thread := res.Payload.(TwitterThread)
	require.Len(t, thread.Units, 2)
	assert.Equal(t, "Second tweet", thread.Units[1].Text)
	assert.Contains(t, res.Warnings, "draft missing or too short, built from strategy fallback")
}

func TestBuild_LinkedInTruncation(t *testing.T) {
	draft := strings.Repeat("word ", 600)
	in := Input{Master: masterWith(masterdata.Platforms{LinkedIn: true}, masterdata.DraftSet{LinkedIn: draft})}
	res := Build(linkedInRules(), in)
	require.Equal(t, StatusSuccess, res.Status)

	posts := res.Payload.([]LinkedInPost)
	require.Len(t, posts, 1)
	assert.Equal(t, 2800, runeLen(posts[0].Text))
	assert.Equal(t, 2800, posts[0].CharCount)
	assert.True(t, strings.HasSuffix(posts[0].Text, "[See full details in comments]"))
	assert.Contains(t, res.Warnings, "post truncated to 2800 characters")
}

func TestBuild_LinkedInBlocks(t *testing.T) {
	draft := "## Big news\n\n**We shipped** it <<IMAGE_2>>\n\n\n\n- fast\n- small\n---\nSecond post with _emphasis_ <<IMAGE_1>> <<IMAGE_2>>"
	in := Input{
		Master: masterWith(masterdata.Platforms{LinkedIn: true}, masterdata.DraftSet{LinkedIn: draft}),
		Images: images.ImageReferenceMap{
			{ImageNumber: 1, CDNURL: "https://cdn.test/1.png"},
			{ImageNumber: 2, CDNURL: "https://cdn.test/2.png"},
		},
	}
	res := Build(linkedInRules(), in)
	require.Equal(t, StatusSuccess, res.Status)

	posts := res.Payload.([]LinkedInPost)
	require.Len(t, posts, 2)
	assert.Equal(t, "Big news\n\nWe shipped it\n\n• fast\n• small", posts[0].Text)
	assert.True(t, posts[0].HasImage)
	assert.Equal(t, 2, posts[0].Image.ImageNumber)
	assert.Equal(t, "Second post with emphasis", posts[1].Text)
	assert.Equal(t, 1, posts[1].Image.ImageNumber)
	assert.Equal(t, 2, posts[1].Order)
}

func TestBuild_LinkedInAttachesOnlyFirstMarker(t *testing.T) {
	draft := "First marker has no upload <<IMAGE_3>> then <<IMAGE_1>>"
	in := Input{
		Master: masterWith(masterdata.Platforms{LinkedIn: true}, masterdata.DraftSet{LinkedIn: draft}),
		Images: images.ImageReferenceMap{{ImageNumber: 1, CDNURL: "https://cdn.test/1.png"}},
	}
	res := Build(linkedInRules(), in)
	require.Equal(t, StatusSuccess, res.Status)

	posts := res.Payload.([]LinkedInPost)
	require.Len(t, posts, 1)
	assert.True(t, strings.HasPrefix(posts[0].Text, "First marker has no upload"))
	assert.NotContains(t, posts[0].Text, "<<IMAGE_")
	assert.False(t, posts[0].HasImage)
	assert.Nil(t, posts[0].Image)
}

func TestBuild_Hashnode(t *testing.T) {
	m := masterWith(masterdata.Platforms{Hashnode: true}, masterdata.DraftSet{
		Hashnode:         longText("Hashnode body {{ value }} ", 150),
		HashnodeSubtitle: "Custom subtitle",
	})
	m.SharedMeta.Tags = []string{"Go", "Cloud Native", "A", "B", "C", "D"}
	res := Build(hashnodeRules(), Input{Master: m})
	require.Equal(t, StatusSuccess, res.Status)

	post := res.Payload.(HashnodePost)
	assert.Equal(t, "Custom subtitle", post.Subtitle)
	assert.Equal(t, "my-post", post.Slug)
	assert.Contains(t, post.ContentMarkdown, "`value`")
	require.Len(t, post.Tags, 5)
	assert.Equal(t, HashnodeTag{Slug: "cloud-native", Name: "Cloud Native"}, post.Tags[1])
}

func TestBuild_Blog(t *testing.T) {
	draft := "## Setup\n\nThe first paragraph explains what we built and why it matters to readers.\n\n" +
		"<<IMAGE_1>>\n\n<script>alert(1)</script>\n\n### Results\n\nLatency dropped by half after the change."
	m := masterWith(masterdata.Platforms{Blog: true}, masterdata.DraftSet{SanityBlog: draft})
	m.SharedMeta.Description = ""
	in := Input{
		Master: m,
		Images: images.ImageReferenceMap{{ImageNumber: 1, Alt: "diagram", CDNURL: "https://cdn.test/1.png"}},
	}
	res := Build(blogRules(), in)
	require.Equal(t, StatusSuccess, res.Status, res.Message)

	post := res.Payload.(BlogPost)
	assert.NotContains(t, post.HTML, "<script")
	assert.Contains(t, post.HTML, `<img src="https://cdn.test/1.png" alt="diagram"`)
	assert.Equal(t, []string{"Setup", "Results"}, post.Headings)
	assert.Equal(t, "The first paragraph explains what we built and why it matters to readers.", post.Excerpt)
	assert.Equal(t, post.Excerpt, post.Description)
	assert.Equal(t, 1, post.ReadingMinutes)
	assert.Positive(t, post.WordCount)
	assert.Len(t, post.Sections, 1)
	assert.Contains(t, res.Warnings, "embedded script/iframe/style elements removed")
}

func TestBuildRichText(t *testing.T) {
	res := BuildRichText("Body", "hello")
	require.Equal(t, StatusSuccess, res.Status)
	spans := res.Payload.(RichTextPayload).Properties["Body"].RichText
	require.Len(t, spans, 1)
	assert.Equal(t, RichTextSpan{Type: "text", Text: RichTextBody{Content: "hello"}}, spans[0])

	huge := strings.Repeat("y", 1900*96+10)
	res = BuildRichText("Body", huge)
	require.Equal(t, StatusSuccess, res.Status)
	assert.Len(t, res.Payload.(RichTextPayload).Properties["Body"].RichText, 95)
	assert.Len(t, res.Warnings, 1)

	assert.Equal(t, StatusSkipped, BuildRichText("Body", "").Status)
}

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]string
}

func (o *recordingObserver) ObservePayload(platform, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[platform] = status
}

func TestCompiler_Compile(t *testing.T) {
	page := []byte(`{
	  "id": "p-1",
	  "property_title": "Compiled post",
	  "property_post_to": ["Twitter", "DevTo"],
	  "property_devto_draft": "` + longText("Dev body <<IMAGE_1>> ", 150) + `",
	  "property_twitter_draft": "A tweet that is long enough to post"
	}`)
	uploads := []json.RawMessage{
		json.RawMessage(`{"document":{"_id":"image-aaa-10x10-png"},"originalFilename":"asset-1.png"}`),
	}
	obs := &recordingObserver{calls: map[string]string{}}
	c := NewCompiler(images.NewMapper(images.CDN{ProjectID: "proj1", Dataset: "production"}, nil), obs, nil)

	in, err := c.Prepare(page, uploads, nil)
	require.NoError(t, err)
	results := c.Compile(context.Background(), in)

	require.Len(t, results, 5)
	order := make([]Platform, len(results))
	for i, r := range results {
		order[i] = r.Platform
	}
	assert.Equal(t, []Platform{PlatformDevTo, PlatformHashnode, PlatformBlog, PlatformTwitter, PlatformLinkedIn}, order)

	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Contains(t, results[0].Payload.(DevToPayload).Article.BodyMarkdown,
		"![Compiled post](https://cdn.sanity.io/images/proj1/production/aaa-10x10.png)")
	assert.Equal(t, StatusSuccess, results[3].Status)
	for _, i := range []int{1, 2, 4} {
		assert.Equal(t, StatusSkipped, results[i].Status)
		assert.Equal(t, "platform not selected", results[i].Message)
	}
	assert.Equal(t, map[string]string{
		"devto": "success", "hashnode": "skipped", "blog": "skipped", "twitter": "success", "linkedin": "skipped",
	}, obs.calls)
}

func TestCompiler_WriteBack(t *testing.T) {
	obs := &recordingObserver{calls: map[string]string{}}
	c := NewCompiler(nil, obs, nil)
	in := Input{Master: masterWith(masterdata.Platforms{LinkedIn: true, Twitter: true}, masterdata.DraftSet{
		LinkedIn: "First LinkedIn post text\n---\nSecond LinkedIn post text",
	})}
	results := c.Compile(context.Background(), in)

	res := c.WriteBack(results, PlatformLinkedIn, "Final LinkedIn")
	require.Equal(t, StatusSuccess, res.Status, res.Message)
	spans := res.Payload.(RichTextPayload).Properties["Final LinkedIn"].RichText
	require.Len(t, spans, 1)
	assert.Equal(t, "First LinkedIn post text\n\nSecond LinkedIn post text", spans[0].Text.Content)
	assert.Equal(t, "success", obs.calls["richtext"])

	res = c.WriteBack(results, PlatformTwitter, "Final Tweet")
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "no compiled twitter payload", res.Message)

	res = c.WriteBack(results, PlatformLinkedIn, " ")
	assert.Equal(t, StatusError, res.Status)
}

func TestCompiledText(t *testing.T) {
	thread := Result{Status: StatusSuccess, Payload: TwitterThread{Units: []TweetUnit{{Text: "one"}, {Text: "two"}}}}
	text, ok := CompiledText(thread)
	require.True(t, ok)
	assert.Equal(t, "one\n---\ntwo", text)

	_, ok = CompiledText(Result{Status: StatusSkipped})
	assert.False(t, ok)
}

func TestCompiler_Edges(t *testing.T) {
	c := NewCompiler(nil, nil, nil)

	_, err := c.Prepare([]byte(`not json`), nil, nil)
	assert.Error(t, err)

	for _, r := range c.Compile(context.Background(), Input{}) {
		assert.Equal(t, StatusSkipped, r.Status)
		assert.Equal(t, "no master data", r.Message)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, r := range c.Compile(ctx, Input{Master: masterWith(masterdata.Platforms{DevTo: true}, masterdata.DraftSet{})}) {
		assert.Equal(t, StatusError, r.Status)
	}
}
