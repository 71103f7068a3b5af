package stats

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const minWordLength = 3

// stopWords are common English function words plus link and embed noise.
var stopWords = toSet(
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "i", "it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
	"this", "but", "his", "by", "from", "they", "we", "say", "her", "she", "or", "an", "will", "my", "one", "all", "would", "there",
	"their", "what", "so", "up", "out", "if", "about", "who", "get", "which", "go", "me", "when", "make", "can", "like", "time", "no",
	"just", "him", "know", "take", "people", "into", "year", "your", "good", "some", "could", "them", "see", "other", "than", "then",
	"now", "look", "only", "come", "its", "over", "think", "also", "back", "after", "use", "two", "how", "our", "work", "first", "well",
	"way", "even", "new", "want", "because", "any", "these", "give", "day", "most", "us", "is", "are", "was", "were", "been", "has", "had",
	"https", "http", "com", "www", "tenor", "gif", "url",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '.', ',', '!', '?', '"', '(', ')', '[', ']':
		return true
	}
	return false
}

// Tokenize splits message contents into counted words: lower-cased tokens
// of at least three characters that are not stop words, not all digits,
// and not mention or markup fragments.
func Tokenize(contents string) []string {
	fields := strings.FieldsFunc(contents, isSeparator)

	words := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minWordLength {
			continue
		}
		w := strings.ToLower(f)
		if IsStopWord(w) || isNumeric(w) || strings.HasPrefix(w, "<") || strings.HasSuffix(w, ">") {
			continue
		}
		words = append(words, w)
	}
	return words
}

// IsStopWord reports whether w is excluded from word counts. w must be lower case.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
