package domain

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDayKeyHasNoZeroPadding(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)
	if got := DayKey(at); got != "2026-3-7" {
		t.Fatalf("expected 2026-3-7, got %s", got)
	}
	east := time.FixedZone("east", 3*3600)
	if got := DayKey(time.Date(2026, 3, 8, 1, 0, 0, 0, east)); got != "2026-3-7" {
		t.Fatalf("day key must use UTC, got %s", got)
	}
}

func TestDaysAreChronological(t *testing.T) {
	t.Parallel()
	h := TrackHistory{History: map[string]int64{"2026-10-1": 1, "2026-9-30": 2, "2026-2-1": 3}}
	days := h.Days()
	want := []string{"2026-2-1", "2026-9-30", "2026-10-1"}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, days)
		}
	}
}

func TestIncrementProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("incrementing by a then b equals incrementing by a+b", prop.ForAll(
		func(start, a, b int64) bool {
			split := TrackHistory{History: map[string]int64{"2026-3-7": start}}
			split.Increment("2026-3-7", a)
			split.Increment("2026-3-7", b)

			joined := TrackHistory{History: map[string]int64{"2026-3-7": start}}
			joined.Increment("2026-3-7", a+b)

			swapped := TrackHistory{History: map[string]int64{"2026-3-7": start}}
			swapped.Increment("2026-3-7", b)
			swapped.Increment("2026-3-7", a)

			return split.ForDay("2026-3-7") == joined.ForDay("2026-3-7") &&
				split.ForDay("2026-3-7") == swapped.ForDay("2026-3-7")
		},
		gen.Int64Range(0, 1<<30),
		gen.Int64Range(0, 1<<30),
		gen.Int64Range(0, 1<<30),
	))

	properties.Property("retain leaves at most the kept day", prop.ForAll(
		func(days []int, keepToday bool) bool {
			h := NewTrackHistory()
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			for _, offset := range days {
				h.Increment(DayKey(base.AddDate(0, 0, offset)), 60)
			}
			today := DayKey(base.AddDate(0, 0, 400))
			if keepToday {
				h.Increment(today, 1)
			}
			h.Retain(today)
			if keepToday {
				return len(h.History) == 1 && h.ForDay(today) == 1
			}
			return len(h.History) == 0
		},
		gen.SliceOf(gen.IntRange(0, 365)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
