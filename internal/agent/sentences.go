package agent

import (
	"unicode"
	"unicode/utf8"
)

// SplitSentences cuts text after every '.', '!' or '?' that is followed by
// whitespace. The whitespace run between sentences is dropped. Empty pieces
// are skipped, so text always yields at least one chunk when it is not blank.
func SplitSentences(text string) []string {
	var chunks []string

	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		end := i
		for i < len(text) {
			next, n := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(next) {
				break
			}
			i += n
		}
		if i == end {
			continue
		}

		if end > start {
			chunks = append(chunks, text[start:end])
		}
		start = i
	}

	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}
