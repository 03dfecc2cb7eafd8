package achievements

import (
	"testing"
	"time"

	"matscout/server/internal/store"
)

func day(n int) time.Time {
	return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func present(team string, days ...int) []store.AttendanceRecord {
	records := make([]store.AttendanceRecord, 0, len(days))
	for _, n := range days {
		records = append(records, store.AttendanceRecord{
			UserID:      "user-1",
			TeamID:      team,
			SessionDate: day(n),
			Present:     true,
		})
	}
	return records
}

func find(t *testing.T, got []Achievement, kind string, value int) Achievement {
	t.Helper()
	for _, a := range got {
		if a.Kind != kind {
			continue
		}
		if kind == KindMilestone && a.Metadata["count"] == value {
			return a
		}
		if kind == KindStreak && a.Metadata["length"] == value {
			return a
		}
	}
	t.Fatalf("no %s achievement with value %d in %+v", kind, value, got)
	return Achievement{}
}

func TestDeriveEmpty(t *testing.T) {
	if got := Derive(nil, day(100)); len(got) != 0 {
		t.Fatalf("expected no achievements, got %+v", got)
	}
}

func TestDeriveMilestones(t *testing.T) {
	// 12 attended sessions every other day: milestones at 5 and 10, not 25.
	var days []int
	for i := 0; i < 12; i++ {
		days = append(days, i*2)
	}
	got := Derive(present("team-a", days...), day(100))

	m5 := find(t, got, KindMilestone, 5)
	if !m5.AchievedAt.Equal(day(8)) {
		t.Fatalf("milestone 5 achieved at %v, want %v", m5.AchievedAt, day(8))
	}
	m10 := find(t, got, KindMilestone, 10)
	if !m10.AchievedAt.Equal(day(18)) {
		t.Fatalf("milestone 10 achieved at %v, want %v", m10.AchievedAt, day(18))
	}
	for _, a := range got {
		if a.Kind == KindMilestone && a.Metadata["count"] == 25 {
			t.Fatalf("milestone 25 should not be awarded with 12 sessions")
		}
	}
}

func TestDeriveStreaks(t *testing.T) {
	// Six consecutive days then a gap then two more: streaks 3 and 5, not 10.
	got := Derive(present("team-a", 0, 1, 2, 3, 4, 5, 8, 9), day(100))

	s3 := find(t, got, KindStreak, 3)
	if !s3.AchievedAt.Equal(day(2)) {
		t.Fatalf("streak 3 achieved at %v, want %v", s3.AchievedAt, day(2))
	}
	if s3.TeamID != "team-a" {
		t.Fatalf("streak team = %q, want team-a", s3.TeamID)
	}
	s5 := find(t, got, KindStreak, 5)
	if !s5.AchievedAt.Equal(day(4)) {
		t.Fatalf("streak 5 achieved at %v, want %v", s5.AchievedAt, day(4))
	}
	for _, a := range got {
		if a.Kind == KindStreak && a.Metadata["length"] == 10 {
			t.Fatalf("streak 10 should not be awarded")
		}
	}
}

func TestDeriveStreaksPerTeam(t *testing.T) {
	// Alternating teams: neither team alone has consecutive dates.
	records := append(present("team-a", 0, 2, 4), present("team-b", 1, 3, 5)...)
	got := Derive(records, day(100))
	for _, a := range got {
		if a.Kind == KindStreak {
			t.Fatalf("unexpected streak across teams: %+v", a)
		}
	}
}

func TestDeriveSameDaySessionsExtendStreak(t *testing.T) {
	// Two sessions on day 1 must not break the day 0..2 run, and the
	// duplicate must not count as an extra consecutive day.
	got := Derive(present("team-a", 0, 1, 1, 2), day(100))
	s3 := find(t, got, KindStreak, 3)
	if !s3.AchievedAt.Equal(day(2)) {
		t.Fatalf("streak 3 achieved at %v, want %v", s3.AchievedAt, day(2))
	}
}

func TestDeriveIgnoresAbsentAndFuture(t *testing.T) {
	records := present("team-a", 0, 1, 2, 3)
	records[2].Present = false
	// A record dated after now must not count.
	records = append(records, store.AttendanceRecord{
		UserID: "user-1", TeamID: "team-a", SessionDate: day(50), Present: true,
	})
	got := Derive(records, day(10))
	for _, a := range got {
		if a.Kind == KindStreak && a.Metadata["length"] >= 3 {
			t.Fatalf("absence should break the streak: %+v", a)
		}
	}
}

func TestDeriveDeterministicOrder(t *testing.T) {
	records := present("team-a", 0, 1, 2, 3, 4)
	first := Derive(records, day(100))
	second := Derive(records, day(100))
	if len(first) != len(second) {
		t.Fatalf("non-deterministic length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Kind != second[i].Kind || !first[i].AchievedAt.Equal(second[i].AchievedAt) {
			t.Fatalf("non-deterministic order at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i].AchievedAt.Before(first[i-1].AchievedAt) {
			t.Fatalf("achievements out of order: %+v", first)
		}
	}
}
