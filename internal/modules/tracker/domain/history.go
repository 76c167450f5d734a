package domain

import (
	"fmt"
	"sort"
	"time"
)

// TrackHistory maps UTC calendar days to accumulated tracked seconds.
type TrackHistory struct {
	History map[string]int64 `json:"history"`
}

func NewTrackHistory() TrackHistory {
	return TrackHistory{History: map[string]int64{}}
}

// DayKey formats a day as Y-M-D without zero padding, e.g. 2026-3-7.
func DayKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

func (h TrackHistory) ForDay(day string) int64 {
	return h.History[day]
}

// Increment adds delta seconds to the entry for day, creating it when absent.
// Negative deltas count as zero.
func (h *TrackHistory) Increment(day string, delta int64) int64 {
	if h.History == nil {
		h.History = map[string]int64{}
	}
	if delta < 0 {
		delta = 0
	}
	h.History[day] += delta
	return h.History[day]
}

// Retain drops every entry except keep and returns how many were removed.
func (h *TrackHistory) Retain(keep string) int {
	removed := 0
	for day := range h.History {
		if day != keep {
			delete(h.History, day)
			removed++
		}
	}
	return removed
}

func (h TrackHistory) Clone() TrackHistory {
	out := NewTrackHistory()
	for day, seconds := range h.History {
		out.History[day] = seconds
	}
	return out
}

// Days returns the keys in chronological order.
func (h TrackHistory) Days() []string {
	days := make([]string, 0, len(h.History))
	for day := range h.History {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		a, errA := time.Parse("2006-1-2", days[i])
		b, errB := time.Parse("2006-1-2", days[j])
		if errA != nil || errB != nil {
			return days[i] < days[j]
		}
		return a.Before(b)
	})
	return days
}
