package publisher

import (
	"strings"

	"auto_content_syndicator/masterdata"
)

const (
	hashnodeTitleMax    = 250
	hashnodeSubtitleMax = 250
	hashnodeTagLimit    = 5
)

// HashnodePost mirrors the publishPost input of the Hashnode API.
type HashnodePost struct {
	Title              string        `json:"title"`
	Subtitle           string        `json:"subtitle,omitempty"`
	Slug               string        `json:"slug"`
	ContentMarkdown    string        `json:"contentMarkdown"`
	Tags               []HashnodeTag `json:"tags"`
	OriginalArticleURL string        `json:"originalArticleURL,omitempty"`
	CoverImageURL      string        `json:"coverImageURL,omitempty"`
}

type HashnodeTag struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func hashnodeRules() Rules {
	return Rules{
		Platform: PlatformHashnode,
		MinChars: minLongForm,
		Markers:  MarkersInline,
		Sanitize: []func(string) string{StripInvisible, StripLiquid, CollapseBlankLines},
		Selected: func(p masterdata.Platforms) bool { return p.Hashnode },
		Draft:    fromDrafts(func(d masterdata.DraftSet) string { return d.Hashnode }),
		Shape:    shapeHashnode,
	}
}

func shapeHashnode(body string, in Input) (any, []string, error) {
	meta := in.meta()
	subtitle := meta.Description
	if in.Master != nil && strings.TrimSpace(in.Master.Drafts.HashnodeSubtitle) != "" {
		subtitle = in.Master.Drafts.HashnodeSubtitle
	}

	post := HashnodePost{
		Title:           Truncate(strings.TrimSpace(meta.Title), hashnodeTitleMax, "..."),
		Subtitle:        Truncate(strings.TrimSpace(subtitle), hashnodeSubtitleMax, "..."),
		Slug:            firstNonEmpty(meta.Slug, masterdata.Slugify(meta.Title)),
		ContentMarkdown: strings.TrimSpace(body),
		Tags:            []HashnodeTag{},
	}
	for _, t := range meta.Tags {
		slug := masterdata.Slugify(t)
		if slug == "" {
			continue
		}
		post.Tags = append(post.Tags, HashnodeTag{Slug: slug, Name: strings.TrimSpace(t)})
		if len(post.Tags) == hashnodeTagLimit {
			break
		}
	}
	if strings.HasPrefix(meta.CanonicalURL, "http") {
		post.OriginalArticleURL = meta.CanonicalURL
	}
	if in.Master != nil {
		if req := in.Master.RequiredImages.Hashnode; len(req) > 0 {
			post.CoverImageURL = in.Images.URL(req[0])
		}
	}
	return post, nil, nil
}
