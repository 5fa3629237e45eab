package masterdata

import (
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

// PropertyText flattens a rich-text-like property into a plain string. It
// accepts span arrays, property objects (rich_text, title, url, select,
// formula) and plain strings. Spans are joined without separators because the
// CMS splits long text into consecutive spans.
func PropertyText(r gjson.Result) string {
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return ""
	case r.Type == gjson.String, r.Type == gjson.Number:
		return r.String()
	case r.IsArray():
		var b strings.Builder
		for _, span := range r.Array() {
			b.WriteString(spanText(span))
		}
		return b.String()
	case r.IsObject():
		for _, key := range []string{"rich_text", "title", "url", "email", "formula.string", "select.name", "plain_text", "text.content", "content"} {
			if v := r.Get(key); v.Exists() && v.Type != gjson.Null {
				return PropertyText(v)
			}
		}
	}
	return ""
}

func spanText(span gjson.Result) string {
	if span.Type == gjson.String {
		return span.String()
	}
	if v := span.Get("plain_text"); v.Type == gjson.String {
		return v.String()
	}
	if v := span.Get("text.content"); v.Type == gjson.String {
		return v.String()
	}
	return ""
}

// MultiSelect flattens a multi-select-like property into its option names.
func MultiSelect(r gjson.Result) []string {
	var out []string
	switch {
	case r.Type == gjson.String:
		for _, part := range strings.Split(r.String(), ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	case r.IsArray():
		for _, item := range r.Array() {
			name := item.String()
			if item.IsObject() {
				name = item.Get("name").String()
			}
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	case r.IsObject():
		if ms := r.Get("multi_select"); ms.Exists() {
			return MultiSelect(ms)
		}
		if sel := r.Get("select.name"); sel.Type == gjson.String && sel.String() != "" {
			return []string{sel.String()}
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}

// normalizeKey folds a property name for tolerant comparison:
// "Dev.to Draft", "devto_draft" and "property_devto_draft" all become
// "devtodraft".
func normalizeKey(name string) string {
	name = strings.TrimPrefix(strings.ToLower(name), "property_")
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lookup finds the first of names under page.properties, then among the
// flattened top-level property_* keys.
func lookup(page gjson.Result, names ...string) gjson.Result {
	if found := lookupIn(page.Get("properties"), false, names); found.Exists() {
		return found
	}
	return lookupIn(page, true, names)
}

func lookupIn(scope gjson.Result, flattened bool, names []string) gjson.Result {
	if !scope.IsObject() {
		return gjson.Result{}
	}
	for _, name := range names {
		want := normalizeKey(name)
		var found gjson.Result
		scope.ForEach(func(k, v gjson.Result) bool {
			key := k.String()
			if flattened && !strings.HasPrefix(strings.ToLower(key), "property_") {
				return true
			}
			if normalizeKey(key) == want {
				found = v
				return false
			}
			return true
		})
		if found.Exists() {
			return found
		}
	}
	return gjson.Result{}
}
