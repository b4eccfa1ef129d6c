package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"mer-review-engine/internal/core"
)

func TestParseQuantize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantPlaces int32
		wantConfig bool
		wantErr    bool
	}{
		{"empty", "", 0, false, false},
		{"cents", "0.01", 2, true, false},
		{"whole", "1", 0, true, false},
		{"negative rejected", "-0.01", 0, false, true},
		{"zero rejected", "0", 0, false, true},
		{"malformed", "abc", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			places, configured, err := core.ParseQuantize(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if places != tt.wantPlaces || configured != tt.wantConfig {
				t.Errorf("got (%d, %v), want (%d, %v)", places, configured, tt.wantPlaces, tt.wantConfig)
			}
		})
	}
}

func TestQuantizeBankersRounding(t *testing.T) {
	d := decimal.RequireFromString("1.005")
	got := core.Quantize(d, 2, true)
	want := decimal.RequireFromString("1.00")
	if !got.Equal(want) {
		t.Errorf("Quantize(1.005, 2 places) = %s, want %s (banker's rounding)", got, want)
	}

	d2 := decimal.RequireFromString("1.015")
	got2 := core.Quantize(d2, 2, true)
	want2 := decimal.RequireFromString("1.02")
	if !got2.Equal(want2) {
		t.Errorf("Quantize(1.015, 2 places) = %s, want %s (banker's rounding)", got2, want2)
	}
}

func TestQuantizeUnconfiguredPassesThrough(t *testing.T) {
	d := decimal.RequireFromString("1.23456")
	got := core.Quantize(d, 0, false)
	if !got.Equal(d) {
		t.Errorf("Quantize with configured=false = %s, want unchanged %s", got, d)
	}
}

func TestDecimalsEqual(t *testing.T) {
	a := decimal.RequireFromString("10.001")
	b := decimal.RequireFromString("10.004")
	if core.DecimalsEqual(a, b, 0, false) {
		t.Error("expected exact comparison to differ")
	}
	if !core.DecimalsEqual(a, b, 2, true) {
		t.Error("expected quantized comparison at 2 places to match")
	}
}

func TestAllowedVariance(t *testing.T) {
	floor := decimal.RequireFromString("10")
	pct := decimal.RequireFromString("0.001")
	amount := decimal.RequireFromString("100000")

	got := core.AllowedVariance(floor, amount, &pct)
	want := decimal.RequireFromString("100")
	if !got.Equal(want) {
		t.Errorf("AllowedVariance = %s, want %s", got, want)
	}

	gotFloorWins := core.AllowedVariance(floor, decimal.RequireFromString("10"), &pct)
	if !gotFloorWins.Equal(floor) {
		t.Errorf("AllowedVariance = %s, want floor %s", gotFloorWins, floor)
	}

	gotNoPct := core.AllowedVariance(floor, amount, nil)
	if !gotNoPct.Equal(floor) {
		t.Errorf("AllowedVariance with nil pct = %s, want floor %s", gotNoPct, floor)
	}
}
