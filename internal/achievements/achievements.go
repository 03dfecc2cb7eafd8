// Package achievements derives attendance achievements from raw attendance
// records. Nothing is persisted; results are recomputed per request and are
// deterministic for the same input.
package achievements

import (
	"context"
	"sort"
	"time"

	"matscout/server/internal/store"
)

const (
	KindMilestone = "milestone"
	KindStreak    = "streak"
)

var (
	milestoneCounts = []int{5, 10, 25, 50, 100}
	streakLengths   = []int{3, 5, 10}
)

// Achievement is a derived descriptor summarizing a pattern in a user's
// attendance history.
type Achievement struct {
	Kind       string         `json:"kind"`
	TeamID     string         `json:"teamId,omitempty"`
	AchievedAt time.Time      `json:"achievedAt"`
	Metadata   map[string]int `json:"metadata"`
}

// Derive computes milestone and streak achievements from the given records.
// Only present records count. Records on or after now are ignored so future
// scheduled sessions do not produce achievements early.
func Derive(records []store.AttendanceRecord, now time.Time) []Achievement {
	attended := make([]store.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if r.Present && r.SessionDate.Before(now) {
			attended = append(attended, r)
		}
	}
	sort.Slice(attended, func(i, j int) bool {
		return attended[i].SessionDate.Before(attended[j].SessionDate)
	})

	out := deriveMilestones(attended)
	out = append(out, deriveStreaks(attended)...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AchievedAt.Equal(out[j].AchievedAt) {
			return out[i].AchievedAt.Before(out[j].AchievedAt)
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func deriveMilestones(attended []store.AttendanceRecord) []Achievement {
	var out []Achievement
	for _, count := range milestoneCounts {
		if len(attended) < count {
			break
		}
		out = append(out, Achievement{
			Kind:       KindMilestone,
			AchievedAt: attended[count-1].SessionDate,
			Metadata:   map[string]int{"count": count},
		})
	}
	return out
}

// deriveStreaks finds runs of consecutive session dates within each team.
// Duplicate dates (two sessions the same day) extend the run without breaking
// it. Each threshold is awarded once per team, at the date the run first
// reaches it.
func deriveStreaks(attended []store.AttendanceRecord) []Achievement {
	byTeam := make(map[string][]time.Time)
	for _, r := range attended {
		byTeam[r.TeamID] = append(byTeam[r.TeamID], r.SessionDate)
	}

	var out []Achievement
	for teamID, dates := range byTeam {
		awarded := make(map[int]bool)
		run := 0
		var prev time.Time
		for _, d := range dates {
			d = d.Truncate(24 * time.Hour)
			switch {
			case run == 0:
				run = 1
			case d.Equal(prev):
				// second session on the same day, run unchanged
			case d.Sub(prev) == 24*time.Hour:
				run++
			default:
				run = 1
			}
			prev = d
			for _, length := range streakLengths {
				if run == length && !awarded[length] {
					awarded[length] = true
					out = append(out, Achievement{
						Kind:       KindStreak,
						TeamID:     teamID,
						AchievedAt: d,
						Metadata:   map[string]int{"length": length},
					})
				}
			}
		}
	}
	return out
}

// Deriver loads a user's attendance and derives achievements from it.
type Deriver struct {
	store store.Store
}

func NewDeriver(s store.Store) *Deriver {
	return &Deriver{store: s}
}

func (d *Deriver) ForUser(ctx context.Context, userID string) ([]Achievement, error) {
	records, err := d.store.ListAttendanceByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Derive(records, time.Now().UTC()), nil
}
