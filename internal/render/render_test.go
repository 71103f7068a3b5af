package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/voyager/internal/parse"
	"github.com/Zuo-Peng/voyager/internal/stats"
)

func sample() *stats.Stats {
	s := stats.New()
	for i := range 1200 {
		s.Add("111", parse.Row{
			Timestamp:    time.Date(2022, 3, 7, 14, 0, 0, 0, time.UTC), // Monday
			HasTimestamp: i%2 == 0,
			Contents:     "pizza party",
		})
	}
	s.Add("222", parse.Row{Contents: "Joined a call."})
	s.ChannelNames = map[string]string{"111": "Pizza Club"}
	s.Finalize(stats.DefaultTopWords)
	return s
}

func TestOverview(t *testing.T) {
	t.Parallel()

	out := Overview(sample(), Options{})
	assert.True(t, strings.HasPrefix(out, "== General Overview =="))
	assert.Contains(t, out, "1,201")
	assert.Contains(t, out, "2 (1 named)")
	assert.Contains(t, out, "14:00 (600)")
	assert.Contains(t, out, "Monday (600)")
	assert.Contains(t, out, "2022-2022")
	assert.NotContains(t, out, "\033[")
}

func TestOverview_Empty(t *testing.T) {
	t.Parallel()

	out := Overview(stats.New(), Options{})
	assert.NotContains(t, out, "Busiest hour")
}

func TestTopChannels(t *testing.T) {
	t.Parallel()

	s := sample()
	out := TopChannels(s, Options{})
	assert.Contains(t, out, "Pizza Club")
	assert.Contains(t, out, "Unknown (222)")
	assert.Less(t, strings.Index(out, "Pizza Club"), strings.Index(out, "Unknown (222)"))

	out = TopChannels(s, Options{Filter: "pizza"})
	assert.NotContains(t, out, "Unknown (222)")

	out = TopChannels(s, Options{Filter: "nope"})
	assert.Contains(t, out, "(no channels)")
}

func TestTopChannels_TruncatesLongNames(t *testing.T) {
	t.Parallel()

	s := stats.New()
	s.Add("1", parse.Row{})
	s.ChannelNames = map[string]string{"1": strings.Repeat("verylongname", 10)}
	s.Finalize(0)

	out := TopChannels(s, Options{})
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("verylongname", 10))
}

func TestTimeSections(t *testing.T) {
	t.Parallel()

	s := sample()

	years := ByYear(s, Options{})
	assert.Contains(t, years, "2022")
	assert.Contains(t, years, strings.Repeat("█", barWidth))

	assert.Contains(t, ByYear(stats.New(), Options{}), "(no timestamped messages)")

	days := ByWeekday(s, Options{})
	for d := range 7 {
		assert.Contains(t, days, time.Weekday(d).String())
	}

	hours := ByHour(s, Options{})
	assert.Contains(t, hours, "00:00")
	assert.Contains(t, hours, "23:00")
}

func TestTopWords(t *testing.T) {
	t.Parallel()

	s := sample()
	out := TopWords(s, Options{})
	assert.Contains(t, out, "pizza")
	assert.Contains(t, out, "call")

	out = TopWords(s, Options{Limit: 1})
	assert.NotContains(t, out, "call")
}

func TestAll_ListsEverySection(t *testing.T) {
	t.Parallel()

	out := All(sample(), Options{Color: true})
	for _, sec := range Sections {
		assert.Contains(t, out, sec.Title)
	}
	assert.Contains(t, out, colorTitle)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	sec, ok := Lookup("words")
	require.True(t, ok)
	assert.Equal(t, "Top Words", sec.Title)

	_, ok = Lookup("missing")
	assert.False(t, ok)
}

func TestBar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", bar(0, 10, 10, Options{}))
	assert.Equal(t, "█", bar(1, 1000, 10, Options{}))
	assert.Equal(t, strings.Repeat("█", 5), bar(5, 10, 10, Options{}))
	assert.Equal(t, colorBar+"█"+colorReset, bar(1, 1, 1, Options{Color: true}))
}

func TestWrapLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"abcdef"}, wrapLine("abcdef", 0))
	assert.Equal(t, []string{"abc", "def"}, wrapLine("abcdef", 3))
	assert.Equal(t, []string{"\033[1mab", "c\033[0m"}, wrapLine("\033[1mabc\033[0m", 2))
	assert.Equal(t, []string{"日本", "語"}, wrapLine("日本語", 4))
	assert.Equal(t, []string{""}, wrapLine("", 5))
}
