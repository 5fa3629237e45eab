package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("SYNDICATE_CONFIG_PATH", "")
	configPath, verbose = "", false

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestStrategyCommand(t *testing.T) {
	out, err := runCLI(t, `{"output": "{\"strategy_summary\":\"s\",\"platform_strategies\":{\"linkedin\":{}}}"}`, "strategy")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "s", doc["strategy_summary"])

	_, err = runCLI(t, `{"strategy_summary": "s"}`, "strategy")
	assert.ErrorContains(t, err, "missing platform_strategies")
}

func TestCompileCommand(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "page.json", `{"property_title": "Hi", "property_post_to": ["LinkedIn"],
		"property_linkedin_draft": "A LinkedIn post that is long enough <<IMAGE_1>>"}`)
	uploads := writeFile(t, dir, "uploads.json", `[{"_id": "image-abc-5x5-png", "url": "https://cdn.test/a.png", "originalFilename": "asset-1.png"}]`)

	out, err := runCLI(t, "", "compile", "--page", page, "--uploads", uploads)
	require.NoError(t, err)

	var resp struct {
		Results []struct {
			Platform string          `json:"platform"`
			Status   string          `json:"status"`
			Payload  json.RawMessage `json:"payload"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 5)
	li := resp.Results[4]
	assert.Equal(t, "linkedin", li.Platform)
	assert.Equal(t, "success", li.Status)
	assert.Contains(t, string(li.Payload), "https://cdn.test/a.png")

	out, err = runCLI(t, "", "compile", "--page", page, "--uploads", uploads, "--write-back", "linkedin", "--property", "LinkedIn Final")
	require.NoError(t, err)
	var wb struct {
		RichText struct {
			Status  string `json:"status"`
			Payload struct {
				Properties map[string]struct {
					RichText []struct {
						Text struct {
							Content string `json:"content"`
						} `json:"text"`
					} `json:"rich_text"`
				} `json:"properties"`
			} `json:"payload"`
		} `json:"richText"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &wb))
	assert.Equal(t, "success", wb.RichText.Status)
	spans := wb.RichText.Payload.Properties["LinkedIn Final"].RichText
	require.Len(t, spans, 1)
	assert.Equal(t, "A LinkedIn post that is long enough", spans[0].Text.Content)

	bad := writeFile(t, dir, "bad.json", `{"not": "an array"}`)
	_, err = runCLI(t, "", "compile", "--page", page, "--uploads", bad)
	assert.Error(t, err)

	_, err = runCLI(t, "", "compile")
	assert.Error(t, err)
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	prev := writeFile(t, dir, "prev.json", `{"sourceContent": {"title": "Merged", "fullText": "one two three"}}`)

	out, err := runCLI(t, "", "merge", "--previous", prev)
	require.NoError(t, err)
	var mc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &mc))
	src := mc["sourceContent"].(map[string]any)
	assert.Equal(t, "Merged", src["title"])
	assert.EqualValues(t, 3, src["wordCount"])
	assert.Equal(t, "fallback", mc["research"].(map[string]any)["source"])
}
