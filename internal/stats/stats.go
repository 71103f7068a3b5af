// Package stats holds the message aggregate and the operations that build
// it: per-row accumulation, merging of partial aggregates, and the final
// post-processing pass.
//
// A Stats value is not safe for concurrent mutation. The pipeline gives each
// worker its own Stats and merges them at a single synchronization point.
package stats

import (
	"strings"

	"github.com/Zuo-Peng/voyager/internal/parse"
)

// UnknownChannelID is used for rows whose channel could not be identified.
const UnknownChannelID = "unknown"

// Voice activity markers written by Discord into call system messages.
const (
	joinedCallMarker  = "Joined a call."
	startedCallMarker = "Started a call"
)

// Channel is the running tally for one channel.
type Channel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Stats is the aggregate of one or more message logs. The zero value is
// ready to use; Add and Merge allocate missing maps.
type Stats struct {
	TotalMessages int64               `json:"totalMessages"`
	VoiceActivity int64               `json:"voiceActivity"`
	ByYear        map[int]int64       `json:"messagesByYear"`
	ByHour        [24]int64           `json:"messagesByHour"`
	ByWeekday     [7]int64            `json:"messagesByDayOfWeek"` // index is time.Weekday, Sunday = 0
	Words         map[string]int64    `json:"wordFrequency"`
	ChannelNames  map[string]string   `json:"channelNames"`
	Channels      map[string]*Channel `json:"channels"`
}

// New returns an empty aggregate with every map allocated.
func New() *Stats {
	return &Stats{
		ByYear:       make(map[int]int64),
		Words:        make(map[string]int64),
		ChannelNames: make(map[string]string),
		Channels:     make(map[string]*Channel),
	}
}

// Add folds one row of the given channel into s.
func (s *Stats) Add(channelID string, row parse.Row) {
	s.alloc()
	s.TotalMessages++

	if row.HasTimestamp {
		ts := row.Timestamp
		s.ByYear[ts.Year()]++
		s.ByHour[ts.Hour()]++
		s.ByWeekday[ts.Weekday()]++
	}

	s.channel(channelID, "").Count++

	if row.Contents == "" {
		return
	}
	if IsVoiceActivity(row.Contents) {
		s.VoiceActivity++
	}
	for _, w := range Tokenize(row.Contents) {
		s.Words[w]++
	}
}

// IsVoiceActivity reports whether a message is a call system message.
func IsVoiceActivity(contents string) bool {
	return contents == joinedCallMarker || strings.Contains(contents, startedCallMarker)
}

// Channel returns the record for id, or nil if none exists.
func (s *Stats) Channel(id string) *Channel {
	return s.Channels[id]
}

// ChannelCount returns the number of channels with at least one message.
func (s *Stats) ChannelCount() int {
	return len(s.Channels)
}

// TimestampedMessages is the number of rows that landed in time buckets.
func (s *Stats) TimestampedMessages() int64 {
	var n int64
	for _, c := range s.ByHour {
		n += c
	}
	return n
}

// channel returns the record for id, creating it with the given name
// (or the id itself) on first use.
func (s *Stats) alloc() {
	if s.ByYear == nil {
		s.ByYear = make(map[int]int64)
	}
	if s.Words == nil {
		s.Words = make(map[string]int64)
	}
	if s.ChannelNames == nil {
		s.ChannelNames = make(map[string]string)
	}
	if s.Channels == nil {
		s.Channels = make(map[string]*Channel)
	}
}

func (s *Stats) channel(id, name string) *Channel {
	if id == "" {
		id = UnknownChannelID
	}
	c, ok := s.Channels[id]
	if !ok {
		if name == "" {
			name = id
		}
		c = &Channel{ID: id, Name: name}
		s.Channels[id] = c
	}
	return c
}
