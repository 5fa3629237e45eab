package images

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"auto_content_syndicator/logger"
	"auto_content_syndicator/masterdata"
)

// CDN identifies where uploaded assets are served from.
type CDN struct {
	BaseURL   string
	ProjectID string
	Dataset   string
}

// ImageRef links one marker to its uploaded asset.
type ImageRef struct {
	Marker           string `json:"marker"`
	ImageNumber      int    `json:"imageNumber"`
	AssetID          string `json:"assetId"`
	CDNURL           string `json:"cdnUrl"`
	Alt              string `json:"alt"`
	Caption          string `json:"caption"`
	OriginalFilename string `json:"originalFilename"`
	// NoImages marks the sentinel entry of a map built from zero uploads.
	NoImages bool `json:"noImages,omitempty"`
}

// ImageReferenceMap is sorted ascending by ImageNumber. An empty batch is
// represented by a single NoImages entry rather than an empty slice.
type ImageReferenceMap []ImageRef

// Empty reports whether the map holds no usable image.
func (m ImageReferenceMap) Empty() bool {
	for _, ref := range m {
		if !ref.NoImages {
			return false
		}
	}
	return true
}

// Lookup returns the first entry for ordinal n.
func (m ImageReferenceMap) Lookup(n int) (ImageRef, bool) {
	for _, ref := range m {
		if !ref.NoImages && ref.ImageNumber == n {
			return ref, true
		}
	}
	return ImageRef{}, false
}

// URL returns the CDN URL for ordinal n, or "".
func (m ImageReferenceMap) URL(n int) string {
	ref, _ := m.Lookup(n)
	return ref.CDNURL
}

var (
	assetNumberRe  = regexp.MustCompile(`(?i)asset[-_]?(\d+)`)
	leadingDigitRe = regexp.MustCompile(`^(\d+)`)
	assetIDRe      = regexp.MustCompile(`^image-([a-zA-Z0-9]+)-(\d+x\d+)-([a-z0-9]+)$`)
)

// OrdinalFromFilename recovers the image number from names like
// "asset-3.png", "Asset_12.jpg" or "2.jpg".
func OrdinalFromFilename(name string) (int, bool) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	for _, re := range []*regexp.Regexp{assetNumberRe, leadingDigitRe} {
		if m := re.FindStringSubmatch(base); len(m) == 2 {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// Mapper builds image reference maps from upload responses.
type Mapper struct {
	cdn CDN
	log *logger.Logger
}

func NewMapper(cdn CDN, log *logger.Logger) *Mapper {
	if cdn.BaseURL == "" {
		cdn.BaseURL = "https://cdn.sanity.io/images"
	}
	return &Mapper{cdn: cdn, log: logger.OrNop(log)}
}

// BuildImageMap is NewMapper(cdn, nil).Build.
func BuildImageMap(uploads []json.RawMessage, cdn CDN) ImageReferenceMap {
	return NewMapper(cdn, nil).Build(uploads)
}

// Build resolves every upload result into an ImageRef. Results without an
// asset id are dropped; the rest are ordered by image number. When the
// filename carries no number the 1-based input position is used, which is
// only as stable as the upload batch order.
func (m *Mapper) Build(uploads []json.RawMessage) ImageReferenceMap {
	out := ImageReferenceMap{}
	for i, raw := range uploads {
		r := gjson.ParseBytes(raw)
		ref, ok := m.resolve(r, i+1)
		if !ok {
			m.log.Warn("upload result without asset id dropped", "position", i+1)
			continue
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		m.log.Info("no images uploaded")
		return ImageReferenceMap{{NoImages: true}}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].ImageNumber < out[b].ImageNumber })
	m.log.Info("image map built", "images", len(out), "dropped", len(uploads)-len(out))
	return out
}

func (m *Mapper) resolve(r gjson.Result, position int) (ImageRef, bool) {
	assetID := firstString(r,
		"document.asset._ref", "document.asset._id",
		"document._id",
		"asset._ref", "asset._id",
		"_id", "assetId", "public_id")
	if assetID == "" {
		return ImageRef{}, false
	}

	filename := firstString(r,
		"originalFilename", "document.originalFilename", "document.asset.originalFilename",
		"fileName", "filename", "name", "original_filename")

	n, ok := OrdinalFromFilename(filename)
	if !ok {
		n = position
	}

	url := firstString(r, "url", "secure_url", "document.url", "document.asset.url", "asset.url", "cdnUrl")
	if url == "" {
		url = m.urlFromAssetID(assetID)
	}
	if url == "" {
		m.log.Warn("could not resolve image url", "assetId", assetID, "imageNumber", n)
	}

	return ImageRef{
		Marker:           masterdata.Marker(n),
		ImageNumber:      n,
		AssetID:          assetID,
		CDNURL:           url,
		Alt:              firstString(r, "alt", "document.alt", "altText"),
		Caption:          firstString(r, "caption", "document.caption"),
		OriginalFilename: filename,
	}, true
}

// urlFromAssetID rebuilds the CDN URL from an "image-<hash>-<w>x<h>-<ext>" id.
func (m *Mapper) urlFromAssetID(id string) string {
	parts := assetIDRe.FindStringSubmatch(id)
	if len(parts) != 4 || m.cdn.ProjectID == "" || m.cdn.Dataset == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/%s-%s.%s",
		strings.TrimRight(m.cdn.BaseURL, "/"), m.cdn.ProjectID, m.cdn.Dataset, parts[1], parts[2], parts[3])
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}
