package masterdata

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"auto_content_syndicator/logger"
)

// Property names as they appear on the content record. Each list is tried in
// order and matched case- and punctuation-insensitively.
var (
	propTitle        = []string{"Title", "Name"}
	propSEOTitle     = []string{"SEO Title", "Meta Title"}
	propDescription  = []string{"Meta Description", "SEO Description", "Description"}
	propSlug         = []string{"Slug"}
	propTags         = []string{"Tags", "Keywords"}
	propCanonical    = []string{"Canonical URL", "Canonical"}
	propPostTo       = []string{"Post To", "Platforms", "Publish To"}
	propFolder       = []string{"Drive Folder", "Assets Folder", "Image Folder"}
	propSessionID    = []string{"Session ID", "Session"}
	propTwitter      = []string{"Twitter Draft", "X Draft"}
	propLinkedIn     = []string{"LinkedIn Draft"}
	propBlog         = []string{"Blog Draft", "Sanity Blog Draft", "Sanity Draft"}
	propDevTo        = []string{"DevTo Draft", "Dev Draft"}
	propHashnode     = []string{"Hashnode Draft"}
	propHashSubtitle = []string{"Hashnode Subtitle"}
	propImageTasks   = []string{"Image Task List", "Image Tasks"}
)

var folderRe = regexp.MustCompile(`folders/([a-zA-Z0-9_-]+)`)

// MasterData is everything the distribution half needs from one content record.
type MasterData struct {
	PageID         string         `json:"pageId"`
	SessionID      string         `json:"sessionId"`
	SharedMeta     SharedMeta     `json:"sharedMeta"`
	Drafts         DraftSet       `json:"drafts"`
	Assets         Assets         `json:"assets"`
	Platforms      Platforms      `json:"platforms"`
	RequiredImages RequiredImages `json:"requiredImages"`
}

type SharedMeta struct {
	Title        string   `json:"title"`
	SEOTitle     string   `json:"seoTitle"`
	Description  string   `json:"description"`
	Slug         string   `json:"slug"`
	Tags         []string `json:"tags"`
	CanonicalURL string   `json:"canonicalUrl"`
}

// DraftSet holds one text per destination. The same <<IMAGE_n>> ordinal in
// different drafts refers to the same asset.
type DraftSet struct {
	Twitter          string `json:"twitter"`
	LinkedIn         string `json:"linkedin"`
	SanityBlog       string `json:"sanityBlog"`
	DevTo            string `json:"devTo"`
	Hashnode         string `json:"hashnode"`
	HashnodeSubtitle string `json:"hashnodeSubtitle"`
	ImageTaskList    string `json:"imageTaskList"`
}

type Assets struct {
	FolderURL     string  `json:"folderUrl"`
	FolderID      *string `json:"folderId"`
	ImageTaskList string  `json:"imageTaskList"`
	ExpectedCount int     `json:"expectedCount"`
}

type Platforms struct {
	Twitter  bool `json:"twitter"`
	LinkedIn bool `json:"linkedin"`
	Blog     bool `json:"blog"`
	DevTo    bool `json:"devTo"`
	Hashnode bool `json:"hashnode"`
}

// Any reports whether at least one destination is selected.
func (p Platforms) Any() bool {
	return p.Twitter || p.LinkedIn || p.Blog || p.DevTo || p.Hashnode
}

type RequiredImages struct {
	Twitter  []int `json:"twitter"`
	LinkedIn []int `json:"linkedin"`
	Blog     []int `json:"blog"`
	DevTo    []int `json:"devTo"`
	Hashnode []int `json:"hashnode"`
	All      []int `json:"all"`
}

// Extractor reads content records.
type Extractor struct {
	log *logger.Logger
}

func NewExtractor(log *logger.Logger) *Extractor {
	return &Extractor{log: logger.OrNop(log)}
}

// Extract is NewExtractor(nil).Extract.
func Extract(page []byte) (*MasterData, error) {
	return NewExtractor(nil).Extract(page)
}

// Extract normalizes a content record. Only a record that is not a JSON
// object is an error; every missing property yields its zero value.
func (e *Extractor) Extract(page []byte) (*MasterData, error) {
	if !gjson.ValidBytes(page) {
		return nil, eris.New("page record is not valid JSON")
	}
	root := gjson.ParseBytes(page)
	if root.IsArray() {
		// workflow runtimes wrap items as [{json: {...}}] or [{...}]
		first := root.Get("0")
		if j := first.Get("json"); j.IsObject() {
			first = j
		}
		root = first
	}
	if !root.IsObject() {
		return nil, eris.New("page record is not a JSON object")
	}

	text := func(names []string) string {
		return strings.TrimSpace(PropertyText(lookup(root, names...)))
	}

	md := &MasterData{
		PageID:    firstNonEmpty(root.Get("id").String(), root.Get("pageId").String()),
		SessionID: firstNonEmpty(text(propSessionID), root.Get("sessionId").String()),
		Drafts: DraftSet{
			Twitter:          text(propTwitter),
			LinkedIn:         text(propLinkedIn),
			SanityBlog:       text(propBlog),
			DevTo:            text(propDevTo),
			Hashnode:         text(propHashnode),
			HashnodeSubtitle: text(propHashSubtitle),
			ImageTaskList:    text(propImageTasks),
		},
	}

	title := firstNonEmpty(text(propTitle), "Untitled")
	md.SharedMeta = SharedMeta{
		Title:        title,
		SEOTitle:     firstNonEmpty(text(propSEOTitle), title),
		Description:  text(propDescription),
		Slug:         firstNonEmpty(text(propSlug), Slugify(title)),
		Tags:         MultiSelect(lookup(root, propTags...)),
		CanonicalURL: text(propCanonical),
	}

	md.Platforms = platformsFrom(MultiSelect(lookup(root, propPostTo...)))
	if !md.Platforms.Any() {
		e.log.Warn("no target platforms selected", "pageId", md.PageID)
	}

	folderURL := text(propFolder)
	md.Assets = Assets{
		FolderURL:     folderURL,
		FolderID:      FolderID(folderURL),
		ImageTaskList: md.Drafts.ImageTaskList,
	}

	md.RequiredImages = RequiredImages{
		Twitter:  ExtractMarkers(md.Drafts.Twitter),
		LinkedIn: ExtractMarkers(md.Drafts.LinkedIn),
		Blog:     ExtractMarkers(md.Drafts.SanityBlog),
		DevTo:    ExtractMarkers(md.Drafts.DevTo),
		Hashnode: ExtractMarkers(md.Drafts.Hashnode),
	}
	md.RequiredImages.All = unionMarkers(
		md.RequiredImages.Twitter,
		md.RequiredImages.LinkedIn,
		md.RequiredImages.Blog,
		md.RequiredImages.DevTo,
		md.RequiredImages.Hashnode,
	)
	md.Assets.ExpectedCount = len(md.RequiredImages.All)

	e.log.Info("master data extracted",
		"pageId", md.PageID,
		"platforms", md.Platforms,
		"requiredImages", md.RequiredImages.All,
	)
	return md, nil
}

// FolderID pulls the folder identifier out of a Drive-style folder URL.
// It returns nil when the URL carries none.
func FolderID(url string) *string {
	m := folderRe.FindStringSubmatch(url)
	if len(m) < 2 {
		return nil
	}
	id := m[1]
	return &id
}

func platformsFrom(selected []string) Platforms {
	var p Platforms
	for _, s := range selected {
		switch normalizeKey(s) {
		case "x", "twitter", "twitterx", "xtwitter":
			p.Twitter = true
		case "linkedin":
			p.LinkedIn = true
		case "blog", "sanity", "sanityblog", "website":
			p.Blog = true
		case "devto", "dev":
			p.DevTo = true
		case "hashnode":
			p.Hashnode = true
		}
	}
	return p
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
