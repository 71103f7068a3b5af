package stats

// Merge folds src into s and returns s. Counts add field by field and no key
// from either side is lost, so the result does not depend on merge order.
// src is not modified.
func (s *Stats) Merge(src *Stats) *Stats {
	s.alloc()
	if src == nil {
		return s
	}

	s.TotalMessages += src.TotalMessages
	s.VoiceActivity += src.VoiceActivity

	for year, n := range src.ByYear {
		s.ByYear[year] += n
	}
	for h := range s.ByHour {
		s.ByHour[h] += src.ByHour[h]
	}
	for d := range s.ByWeekday {
		s.ByWeekday[d] += src.ByWeekday[d]
	}
	for w, n := range src.Words {
		s.Words[w] += n
	}
	for id, c := range src.Channels {
		s.channel(id, c.Name).Count += c.Count
	}
	for id, name := range src.ChannelNames {
		if _, ok := s.ChannelNames[id]; !ok {
			s.ChannelNames[id] = name
		}
	}
	return s
}

// Clone returns a deep copy of s.
func (s *Stats) Clone() *Stats {
	return New().Merge(s)
}
