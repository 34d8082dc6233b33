package channel

import (
	"strings"
	"unicode/utf8"
)

// SplitText breaks text into pieces of at most limit runes so each fits one
// platform message. Markdown text is split at paragraph boundaries first,
// then at line boundaries; plain text at line boundaries. A single line longer
// than limit is cut at rune boundaries.
func SplitText(text string, limit int, markdown bool) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if limit <= 0 || utf8.RuneCountInString(trimmed) <= limit {
		return []string{trimmed}
	}
	if markdown {
		return packParts(trimmed, "\n\n", limit, func(part string, limit int) []string {
			return packParts(part, "\n", limit, cutRunes)
		})
	}
	return packParts(trimmed, "\n", limit, cutRunes)
}

// packParts greedily joins sep-separated parts while they fit into limit and
// hands oversized parts to split.
func packParts(text, sep string, limit int, split func(part string, limit int) []string) []string {
	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}
	sepLen := utf8.RuneCountInString(sep)
	for _, part := range strings.Split(text, sep) {
		partLen := utf8.RuneCountInString(part)
		if size > 0 && size+sepLen+partLen <= limit {
			current.WriteString(sep)
			current.WriteString(part)
			size += sepLen + partLen
			continue
		}
		flush()
		if partLen <= limit {
			current.WriteString(part)
			size = partLen
			continue
		}
		chunks = append(chunks, split(part, limit)...)
	}
	flush()
	return chunks
}

func cutRunes(line string, limit int) []string {
	runes := []rune(line)
	chunks := make([]string, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		if segment := strings.TrimSpace(string(runes[start:end])); segment != "" {
			chunks = append(chunks, segment)
		}
	}
	return chunks
}
