package publisher

import "strings"

// ChunkFixed splits s into consecutive pieces of at most size runes.
// Concatenating the pieces reproduces s exactly.
func ChunkFixed(s string, size int) []string {
	if s == "" || size <= 0 {
		return nil
	}
	r := []rune(s)
	chunks := make([]string, 0, len(r)/size+1)
	for start := 0; start < len(r); start += size {
		end := start + size
		if end > len(r) {
			end = len(r)
		}
		chunks = append(chunks, string(r[start:end]))
	}
	return chunks
}

// ChunkParagraphs packs whole paragraphs (separated by blank lines) into
// chunks of at most size runes. A paragraph longer than size is split with
// ChunkFixed. Paragraph separators are normalized to a single blank line.
func ChunkParagraphs(s string, size int) []string {
	if strings.TrimSpace(s) == "" || size <= 0 {
		return nil
	}
	const sep = "\n\n"
	var (
		chunks  []string
		current strings.Builder
		curLen  int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			curLen = 0
		}
	}
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), sep) {
		para = strings.Trim(para, "\n")
		if strings.TrimSpace(para) == "" {
			continue
		}
		n := len([]rune(para))
		if n > size {
			flush()
			chunks = append(chunks, ChunkFixed(para, size)...)
			continue
		}
		if curLen > 0 && curLen+len(sep)+n > size {
			flush()
		}
		if curLen > 0 {
			current.WriteString(sep)
			curLen += len(sep)
		}
		current.WriteString(para)
		curLen += n
	}
	flush()
	return chunks
}
