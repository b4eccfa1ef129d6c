package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// allowNameInference resolves the allow_name_inference config flag,
// defaulting to true per the common pattern in spec.md §4.4.
func allowNameInference(flag *bool) bool {
	return flag == nil || *flag
}

// requireAsOfMatch resolves the require_evidence_as_of_date_match_period_end
// config flag, defaulting to true (spec.md §4.4: "as_of match").
func requireAsOfMatch(flag *bool) bool {
	return flag == nil || *flag
}

// asOfMatches reports whether an evidence item satisfies the as-of-date
// requirement against the review's period end.
func asOfMatches(item EvidenceItem, periodEnd time.Time, required bool) bool {
	if !required {
		return true
	}
	if item.AsOfDate == nil {
		return false
	}
	return item.AsOfDate.Equal(periodEnd)
}

// hasAnyClassification reports whether any account in the snapshot carries
// a Type or Subtype, which is the signal rules use to decide whether
// type/subtype-based inference is even possible (spec.md §4.4.1: "if
// inference required but type/subtype are absent → NEEDS_REVIEW (never
// guess by name)").
func hasAnyClassification(bs BalanceSheetSnapshot) bool {
	for _, a := range bs.Accounts {
		if a.Type != "" || a.Subtype != "" {
			return true
		}
	}
	return false
}

// filterByTypeSet returns the leaf accounts whose Type or Subtype is in types.
func filterByTypeSet(accounts []AccountBalance, types []string) []AccountBalance {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	out := []AccountBalance{}
	for _, a := range accounts {
		if set[a.Type] || set[a.Subtype] {
			out = append(out, a)
		}
	}
	return out
}

// filterByNameSubstrings returns the accounts whose name contains any of
// needles, case-insensitively.
func filterByNameSubstrings(accounts []AccountBalance, needles []string) []AccountBalance {
	out := []AccountBalance{}
	for _, a := range accounts {
		if NameContainsAny(a.Name, needles) {
			out = append(out, a)
		}
	}
	return out
}

// excludeByTypeSet returns the accounts whose Type is NOT in types — used
// by BS-CLEARING-ACCOUNTS-NON-SALES-ZERO, which keeps accounts clearing
// inference would normally exclude (spec.md §4.4.5).
func excludeByTypeSet(accounts []AccountBalance, types []string) []AccountBalance {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	out := []AccountBalance{}
	for _, a := range accounts {
		if !set[a.Type] {
			out = append(out, a)
		}
	}
	return out
}

// refineScope applies include_accounts/exclude_accounts on top of an
// inferred or explicit account set, preserving the balance sheet's own
// account ordering (spec.md §9: ordering is observable and tested).
func refineScope(bs BalanceSheetSnapshot, inferred []AccountBalance, include, exclude []string) []AccountBalance {
	inferredSet := make(map[string]bool, len(inferred))
	for _, a := range inferred {
		inferredSet[a.AccountRef] = true
	}
	includeSet := make(map[string]bool, len(include))
	for _, r := range include {
		includeSet[r] = true
	}
	excludeSet := make(map[string]bool, len(exclude))
	for _, r := range exclude {
		excludeSet[r] = true
	}

	out := []AccountBalance{}
	for _, a := range bs.Accounts {
		if excludeSet[a.AccountRef] {
			continue
		}
		if inferredSet[a.AccountRef] || includeSet[a.AccountRef] {
			out = append(out, a)
		}
	}
	return out
}

// parseFlexibleDate parses a date in either ISO (YYYY-MM-DD) or DD/MM/YYYY
// form, per spec.md §6's accepted txn_date formats.
func parseFlexibleDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// toMapSlice narrows a []any (as produced by decoding arbitrary JSON into
// map[string]any) into a []map[string]any, dropping anything that isn't an
// object.
func toMapSlice(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// metaItems reads meta["items"] as a []map[string]any, the shape every
// *_items[] evidence field in spec.md §6 uses.
func metaItems(meta map[string]any) []map[string]any {
	if meta == nil {
		return nil
	}
	raw, ok := meta["items"].([]any)
	if !ok {
		return nil
	}
	return toMapSlice(raw)
}

// metaString reads a string field from an item map, tolerating absence.
func metaString(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return s
}

// itemDecimal extracts an exact decimal amount from an item map decoded
// from arbitrary JSON, where the value may arrive as a JSON number
// (float64, via the standard decoder) or as a string. Monetary comparisons
// always go through decimal.Decimal, never float64 arithmetic.
func itemDecimal(item map[string]any, key string) (decimal.Decimal, bool) {
	switch v := item[key].(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}

// initialismTokens returns the A/P or A/R token alternates for a label like
// "Accounts Payable" or "Accounts Receivable", matched as whole tokens
// (spec.md §9).
func initialismTokens(label string) []string {
	switch {
	case strings.Contains(label, "Payable"):
		return []string{"A/P", "AP"}
	case strings.Contains(label, "Receivable"):
		return []string{"A/R", "AR"}
	default:
		return nil
	}
}
