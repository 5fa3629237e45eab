package images

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCDN = CDN{ProjectID: "proj1", Dataset: "production"}

func uploads(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestBuildImageMap_OrdinalRecovery(t *testing.T) {
	m := BuildImageMap(uploads(
		`{"document":{"_id":"image-aaa-10x10-png"},"originalFilename":"asset-3.png"}`,
		`{"document":{"_id":"image-bbb-10x10-jpg"},"originalFilename":"2.jpg"}`,
		`{"document":{"_id":"image-ccc-10x10-png"},"originalFilename":"weird.png"}`,
	), testCDN)

	require.Len(t, m, 3)
	assert.Equal(t, []int{2, 3, 3}, []int{m[0].ImageNumber, m[1].ImageNumber, m[2].ImageNumber})
	assert.Equal(t, "2.jpg", m[0].OriginalFilename)
	assert.Equal(t, "asset-3.png", m[1].OriginalFilename, "stable sort keeps filename match ahead of positional fallback")
	assert.Equal(t, "weird.png", m[2].OriginalFilename)
	assert.Equal(t, "<<IMAGE_2>>", m[0].Marker)

	ref, ok := m.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, "image-aaa-10x10-png", ref.AssetID)
}

func TestBuildImageMap_ResponseShapes(t *testing.T) {
	m := BuildImageMap(uploads(
		`{"document":{"asset":{"_ref":"image-h1-800x600-png","url":"https://cdn.example/direct.png"}},"fileName":"asset_1.png","alt":"diagram"}`,
		`{"_id":"image-h2-1200x630-jpg","originalFilename":"Asset2.jpg","caption":"cover"}`,
		`{"asset":{"_id":"image-h3-5x5-webp"},"name":"asset-4.webp"}`,
	), testCDN)

	require.Len(t, m, 3)
	assert.Equal(t, "https://cdn.example/direct.png", m[0].CDNURL)
	assert.Equal(t, "diagram", m[0].Alt)
	assert.Equal(t, "https://cdn.sanity.io/images/proj1/production/h2-1200x630.jpg", m[1].CDNURL)
	assert.Equal(t, "cover", m[1].Caption)
	assert.Equal(t, 4, m[2].ImageNumber)
	assert.Equal(t, "https://cdn.sanity.io/images/proj1/production/h3-5x5.webp", m[2].CDNURL)
}

func TestBuildImageMap_DropsEntriesWithoutAssetID(t *testing.T) {
	m := BuildImageMap(uploads(
		`{"error":"upload failed","originalFilename":"asset-1.png"}`,
		`not json`,
		`{"document":{"_id":"image-x-1x1-png"},"originalFilename":"photo.png"}`,
	), testCDN)

	require.Len(t, m, 1)
	assert.Equal(t, 3, m[0].ImageNumber, "positional fallback counts dropped entries")
	assert.False(t, m.Empty())
}

func TestBuildImageMap_ZeroUploadsYieldsSentinel(t *testing.T) {
	for _, in := range [][]json.RawMessage{nil, uploads(`{}`)} {
		m := BuildImageMap(in, testCDN)
		require.Len(t, m, 1)
		assert.True(t, m[0].NoImages)
		assert.True(t, m.Empty())
		_, ok := m.Lookup(0)
		assert.False(t, ok)
	}
}

func TestBuildImageMap_NoURLWithoutProject(t *testing.T) {
	m := BuildImageMap(uploads(`{"_id":"image-h-1x1-png","originalFilename":"asset-1.png"}`), CDN{})
	require.Len(t, m, 1)
	assert.Empty(t, m[0].CDNURL)
	assert.Equal(t, "", m.URL(1))
}

func TestOrdinalFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"asset-3.png", 3, true},
		{"ASSET_12.jpg", 12, true},
		{"asset7.webp", 7, true},
		{"folder/2.jpg", 2, true},
		{"04-hero.png", 4, true},
		{"hero.png", 0, false},
		{"0.png", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := OrdinalFromFilename(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}
