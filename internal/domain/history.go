package domain

import "time"

// GateEntry records a single gate run.
type GateEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ExitCode  int       `json:"exitCode"`
	Passed    bool      `json:"passed"`
	FailUnder float64   `json:"failUnder"`
	Sources   []string  `json:"sources,omitempty"`
}

// History contains all recorded gate runs.
type History struct {
	Entries []GateEntry `json:"entries"`
}

// LatestEntry returns the most recent entry, or nil if empty.
func (h *History) LatestEntry() *GateEntry {
	if len(h.Entries) == 0 {
		return nil
	}
	latestIndex := 0
	latestTime := h.Entries[0].Timestamp
	for i := 1; i < len(h.Entries); i++ {
		if h.Entries[i].Timestamp.After(latestTime) {
			latestIndex = i
			latestTime = h.Entries[i].Timestamp
		}
	}
	return &h.Entries[latestIndex]
}

// PassStreak counts consecutive passing runs ending at the newest entry.
func (h *History) PassStreak() int {
	streak := 0
	for i := len(h.Entries) - 1; i >= 0; i-- {
		if !h.Entries[i].Passed {
			break
		}
		streak++
	}
	return streak
}
