package core_test

import (
	"testing"

	"mer-review-engine/internal/core"
)

func TestWorst(t *testing.T) {
	tests := []struct {
		a, b, want core.Status
	}{
		{core.StatusPass, core.StatusNotApplicable, core.StatusPass},
		{core.StatusWarn, core.StatusPass, core.StatusWarn},
		{core.StatusFail, core.StatusNeedsReview, core.StatusFail},
		{core.StatusNeedsReview, core.StatusWarn, core.StatusNeedsReview},
		{core.StatusNotApplicable, core.StatusNotApplicable, core.StatusNotApplicable},
	}
	for _, tt := range tests {
		if got := core.Worst(tt.a, tt.b); got != tt.want {
			t.Errorf("Worst(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
		if got := core.Worst(tt.b, tt.a); got != tt.want {
			t.Errorf("Worst(%s, %s) = %s, want %s (not symmetric)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestWorstOf(t *testing.T) {
	got := core.WorstOf([]core.Status{core.StatusPass, core.StatusWarn, core.StatusNotApplicable})
	if got != core.StatusWarn {
		t.Errorf("WorstOf(...) = %s, want WARN", got)
	}
	if got := core.WorstOf(nil); got != core.StatusNotApplicable {
		t.Errorf("WorstOf(nil) = %s, want NOT_APPLICABLE", got)
	}
}
