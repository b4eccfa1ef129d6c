package core_test

import (
	"testing"

	"mer-review-engine/internal/core"
)

func TestNameContains(t *testing.T) {
	if !core.NameContains("Plooto Clearing Account", "plooto") {
		t.Error("expected case-insensitive substring match")
	}
	if core.NameContains("Plooto Clearing Account", "") {
		t.Error("empty needle should never match")
	}
	if core.NameContains("Accounts Payable", "receivable") {
		t.Error("unexpected match")
	}
}

func TestNameContainsAny(t *testing.T) {
	needles := []string{"intercompany", "due to", "due from"}
	if !core.NameContainsAny("Due to Parent Co", needles) {
		t.Error("expected a match against one of the needles")
	}
	if core.NameContainsAny("Office Supplies", needles) {
		t.Error("unexpected match")
	}
}

func TestNameHasTokenDoesNotMatchSubstringOfLongerWord(t *testing.T) {
	if core.NameHasToken("CAP Expenditures", "A/P") {
		t.Error("A/P should not match as a substring of CAP")
	}
	if core.NameHasToken("SNAP Benefits Clearing", "A/P") {
		t.Error("A/P should not match as a substring of SNAP")
	}
	if !core.NameHasToken("A/P Summary", "A/P") {
		t.Error("A/P should match as a standalone token")
	}
	if !core.NameHasToken("a/p summary account", "A/P") {
		t.Error("token match should be case-insensitive")
	}
}

func TestNameHasAnyToken(t *testing.T) {
	if !core.NameHasAnyToken("Accounts A/R Subledger", []string{"A/P", "A/R"}) {
		t.Error("expected a token match")
	}
	if core.NameHasAnyToken("Accounts Payable Summary", []string{"A/P", "A/R"}) {
		t.Error("\"Payable\" should not match the A/P token")
	}
}

func TestNameHasPrefix(t *testing.T) {
	if !core.NameHasPrefix("GST Payable", "gst") {
		t.Error("expected case-insensitive prefix match")
	}
	if core.NameHasPrefix("HST Payable", "gst") {
		t.Error("unexpected prefix match")
	}
}

func TestNameHasAnyPrefix(t *testing.T) {
	if !core.NameHasAnyPrefix("PST Payable - BC", []string{"gst", "pst"}) {
		t.Error("expected a prefix match")
	}
}
