package strategy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

const previewLimit = 100

// ParseError is returned when no strategy object can be read from the model
// output. It is fatal: a corrupted strategy is never guessed at.
type ParseError struct {
	Reason  string
	Preview string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("strategy parse failed: %s: %v (raw starts with %q)", e.Reason, e.Err, e.Preview)
	}
	return fmt.Sprintf("strategy parse failed: %s (raw starts with %q)", e.Reason, e.Preview)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extract slices the text between the first '{' and the last '}' and parses
// it as a single JSON object. No repair is attempted.
func Extract(raw string) (map[string]any, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, &ParseError{Reason: "no JSON object found", Preview: preview(raw)}
	}

	dec := json.NewDecoder(strings.NewReader(raw[start : end+1]))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Preview: preview(raw), Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Reason: "trailing data after JSON object", Preview: preview(raw)}
	}
	return doc, nil
}

// envelopePaths are probed in order for the model's text output.
var envelopePaths = []string{
	"choices.0.message.content",
	"content.0.text",
	"output",
	"text",
	"message.content",
	"0.output",
	"0.text",
	"0.message.content",
}

// ExtractEnvelope returns the text blob carried by an upstream AI response.
// Non-JSON bodies are returned verbatim.
func ExtractEnvelope(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if !gjson.ValidBytes(trimmed) {
		return string(body)
	}
	root := gjson.ParseBytes(trimmed)
	if root.Type == gjson.String {
		return root.String()
	}
	if root.Get("strategy_summary").Exists() || root.Get("platform_strategies").Exists() {
		return string(body)
	}
	for _, path := range envelopePaths {
		if r := root.Get(path); r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
	}
	return string(body)
}

// ExtractFromEnvelope is Extract applied to the envelope's text.
func ExtractFromEnvelope(body []byte) (map[string]any, error) {
	return Extract(ExtractEnvelope(body))
}

func preview(raw string) string {
	r := []rune(raw)
	if len(r) <= previewLimit {
		return raw
	}
	return string(r[:previewLimit])
}
