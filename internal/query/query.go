package query

import (
	"sort"
	"strings"
	"time"

	"github.com/Zuo-Peng/voyager/internal/stats"
)

type Options struct {
	Filter string // case-insensitive substring, "" = all
	Limit  int    // <= 0 = no limit
}

type ChannelRow struct {
	ID    string
	Name  string
	Count int64
	Share float64 // percent of all messages
}

type YearCount struct {
	Year  int
	Count int64
}

// Summary is the headline view of an aggregate.
type Summary struct {
	TotalMessages int64
	Timestamped   int64
	Channels      int
	NamedChannels int
	VoiceActivity int64
	DistinctWords int

	BusiestHour    int // -1 when nothing is timestamped
	BusiestHourN   int64
	BusiestWeekday time.Weekday
	BusiestDayN    int64
	BusiestYear    int
	BusiestYearN   int64
	FirstYear      int
	LastYear       int
}

func matches(s, filter string) bool {
	return filter == "" || strings.Contains(strings.ToLower(s), strings.ToLower(filter))
}

// Channels ranks channels by message count, then name, then id. The filter
// is matched against both name and id.
func Channels(s *stats.Stats, opts Options) []ChannelRow {
	var rows []ChannelRow
	for id, c := range s.Channels {
		if !matches(c.Name, opts.Filter) && !matches(id, opts.Filter) {
			continue
		}
		row := ChannelRow{ID: id, Name: c.Name, Count: c.Count}
		if s.TotalMessages > 0 {
			row.Share = float64(c.Count) * 100 / float64(s.TotalMessages)
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return limit(rows, opts.Limit)
}

// Words ranks the aggregate's words, optionally filtered.
func Words(s *stats.Stats, opts Options) []stats.WordCount {
	ranked := stats.TopWords(s.Words, 0)
	if opts.Filter != "" {
		kept := ranked[:0]
		for _, wc := range ranked {
			if matches(wc.Word, opts.Filter) {
				kept = append(kept, wc)
			}
		}
		ranked = kept
	}
	return limit(ranked, opts.Limit)
}

// Years lists per-year counts in ascending year order.
func Years(s *stats.Stats) []YearCount {
	years := make([]YearCount, 0, len(s.ByYear))
	for y, n := range s.ByYear {
		years = append(years, YearCount{Year: y, Count: n})
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
	return years
}

func Overview(s *stats.Stats) Summary {
	sum := Summary{
		TotalMessages: s.TotalMessages,
		Timestamped:   s.TimestampedMessages(),
		Channels:      s.ChannelCount(),
		VoiceActivity: s.VoiceActivity,
		DistinctWords: len(s.Words),
		BusiestHour:   -1,
	}
	for id := range s.Channels {
		if s.ChannelNames[id] != "" {
			sum.NamedChannels++
		}
	}

	for h, n := range s.ByHour {
		if n > sum.BusiestHourN {
			sum.BusiestHour, sum.BusiestHourN = h, n
		}
	}
	for d, n := range s.ByWeekday {
		if n > sum.BusiestDayN {
			sum.BusiestWeekday, sum.BusiestDayN = time.Weekday(d), n
		}
	}
	for i, yc := range Years(s) {
		if i == 0 {
			sum.FirstYear = yc.Year
		}
		sum.LastYear = yc.Year
		if yc.Count > sum.BusiestYearN {
			sum.BusiestYear, sum.BusiestYearN = yc.Year, yc.Count
		}
	}
	return sum
}

func limit[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
