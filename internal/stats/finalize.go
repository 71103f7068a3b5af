package stats

import (
	"fmt"
	"sort"
)

// DefaultTopWords is how many words survive Finalize by default.
const DefaultTopWords = 100

// WordCount is one ranked entry of the word table.
type WordCount struct {
	Word  string `json:"word"`
	Count int64  `json:"count"`
}

// Finalize resolves channel names from ChannelNames and keeps only the topN
// most frequent words (topN <= 0 keeps all). Call it once, on the fully
// merged aggregate: trimming a partial would drop counts the final ranking needs.
func (s *Stats) Finalize(topN int) {
	for id, c := range s.Channels {
		c.Name = ResolveName(s.ChannelNames, id)
	}

	if topN <= 0 || len(s.Words) <= topN {
		return
	}
	kept := make(map[string]int64, topN)
	for _, wc := range TopWords(s.Words, topN) {
		kept[wc.Word] = wc.Count
	}
	s.Words = kept
}

// ResolveName returns the indexed display name for a channel, or a
// placeholder naming the id when the index has none.
func ResolveName(index map[string]string, id string) string {
	if name := index[id]; name != "" {
		return name
	}
	return fmt.Sprintf("Unknown (%s)", id)
}

// TopWords ranks words by count descending, ties by word ascending, and
// returns at most n entries (n <= 0 returns all).
func TopWords(words map[string]int64, n int) []WordCount {
	ranked := make([]WordCount, 0, len(words))
	for w, c := range words {
		ranked = append(ranked, WordCount{Word: w, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Word < ranked[j].Word
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
