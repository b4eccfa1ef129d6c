package core_test

import (
	"testing"
	"time"

	"mer-review-engine/internal/core"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSubtractMonthsDayClamp(t *testing.T) {
	got := core.SubtractMonths(date("2026-02-28"), 2)
	want := date("2025-12-28")
	if !got.Equal(want) {
		t.Errorf("SubtractMonths(2026-02-28, 2) = %s, want %s", got, want)
	}

	// Mar 31 - 1 month has no Feb 31; clamps to Feb 28 (2025, non-leap).
	got2 := core.SubtractMonths(date("2025-03-31"), 1)
	want2 := date("2025-02-28")
	if !got2.Equal(want2) {
		t.Errorf("SubtractMonths(2025-03-31, 1) = %s, want %s", got2, want2)
	}
}

func TestInferCadence(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  core.Cadence
	}{
		{"monthly", "2025-01-01", "2025-01-31", core.CadenceMonthly},
		{"quarterly", "2025-01-01", "2025-03-31", core.CadenceQuarterly},
		{"annual", "2025-01-01", "2025-12-31", core.CadenceAnnual},
		{"ambiguous", "2025-01-01", "2025-02-10", core.CadenceUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.InferCadence(date(tt.start), date(tt.end))
			if got != tt.want {
				t.Errorf("InferCadence(%s, %s) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestExpectedPeriodEndRollsForwardQuarterly(t *testing.T) {
	latestFiledEnd := date("2025-03-31")
	periodEnd := date("2025-12-31")
	got := core.ExpectedPeriodEnd(latestFiledEnd, periodEnd, core.CadenceQuarterly)
	want := date("2025-09-30")
	if !got.Equal(want) {
		t.Errorf("ExpectedPeriodEnd = %s, want %s", got, want)
	}
}

// TestExpectedPeriodEndMonthEndAware mirrors spec.md §8 scenario 5: the
// latest filed return ends Jun 30 (a 30-day month); rolling forward one
// quarter must land on Sep 30 and two quarters on Dec 31, not Dec 30 — a
// naive day-preserving roll would under-clamp since 30 < 31.
func TestExpectedPeriodEndMonthEndAware(t *testing.T) {
	latestFiledEnd := date("2025-06-30")
	periodEnd := date("2025-12-31")
	got := core.ExpectedPeriodEnd(latestFiledEnd, periodEnd, core.CadenceQuarterly)
	want := date("2025-09-30")
	if !got.Equal(want) {
		t.Errorf("ExpectedPeriodEnd = %s, want %s", got, want)
	}

	rolled := core.RollForward(latestFiledEnd, core.CadenceQuarterly)
	wantRolled := date("2025-09-30")
	if !rolled.Equal(wantRolled) {
		t.Errorf("RollForward(2025-06-30, quarterly) = %s, want %s", rolled, wantRolled)
	}

	rolledTwice := core.RollForward(rolled, core.CadenceQuarterly)
	wantRolledTwice := date("2025-12-31")
	if !rolledTwice.Equal(wantRolledTwice) {
		t.Errorf("RollForward(2025-09-30, quarterly) = %s, want %s", rolledTwice, wantRolledTwice)
	}
}
