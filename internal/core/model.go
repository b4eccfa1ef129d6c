// Package core implements the MER balance-sheet rules engine: the pure,
// I/O-free decision logic that turns a client's period-end accounting
// snapshot plus supporting evidence into a structured rule-by-rule report.
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportAccountPrefix marks a balance-sheet row as an aggregate "report
// totals" line rather than a leaf account. Rows with this prefix never
// represent an individually reconcilable account.
const ReportAccountPrefix = "report::"

// AccountBalance is a single row of a balance-sheet snapshot.
type AccountBalance struct {
	AccountRef string          `json:"account_ref"`
	Name       string          `json:"name"`
	Balance    decimal.Decimal `json:"balance"`
	Type       string          `json:"type,omitempty"`
	Subtype    string          `json:"subtype,omitempty"`
}

// IsLeaf reports whether this row is an individually reconcilable account
// rather than a "report::"-prefixed subtotal line.
func (a AccountBalance) IsLeaf() bool {
	return !hasReportPrefix(a.AccountRef)
}

func hasReportPrefix(ref string) bool {
	return len(ref) >= len(ReportAccountPrefix) && ref[:len(ReportAccountPrefix)] == ReportAccountPrefix
}

// BalanceSheetSnapshot is the canonical, immutable balance sheet as of a
// single date. At most one row exists per AccountRef, except for
// "report::"-prefixed aggregate rows.
type BalanceSheetSnapshot struct {
	AsOfDate time.Time        `json:"as_of_date"`
	Accounts []AccountBalance `json:"accounts"`
}

// ByRef returns the first row matching the given account_ref, if any.
func (b BalanceSheetSnapshot) ByRef(ref string) (AccountBalance, bool) {
	for _, a := range b.Accounts {
		if a.AccountRef == ref {
			return a, true
		}
	}
	return AccountBalance{}, false
}

// Leaves returns all non-"report::" rows.
func (b BalanceSheetSnapshot) Leaves() []AccountBalance {
	out := make([]AccountBalance, 0, len(b.Accounts))
	for _, a := range b.Accounts {
		if a.IsLeaf() {
			out = append(out, a)
		}
	}
	return out
}

// ProfitAndLossSnapshot is the canonical P&L for a period. The core only
// ever reads totals["revenue"]; other keys are carried but unused.
type ProfitAndLossSnapshot struct {
	PeriodStart time.Time                  `json:"period_start"`
	PeriodEnd   time.Time                  `json:"period_end"`
	Totals      map[string]decimal.Decimal `json:"totals"`
}

// Revenue returns totals["revenue"] and whether it was present.
func (p *ProfitAndLossSnapshot) Revenue() (decimal.Decimal, bool) {
	if p == nil || p.Totals == nil {
		return decimal.Zero, false
	}
	v, ok := p.Totals["revenue"]
	return v, ok
}

// EvidenceItem is one piece of supporting evidence gathered for the review.
// Meta carries per-evidence-type structured fields documented in spec.md §6.
type EvidenceItem struct {
	EvidenceType      string          `json:"evidence_type"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	AsOfDate          *time.Time      `json:"as_of_date,omitempty"`
	StatementEndDate  *time.Time      `json:"statement_end_date,omitempty"`
	URI               string          `json:"uri,omitempty"`
	Source            string          `json:"source,omitempty"`
	Meta              map[string]any  `json:"meta,omitempty"`
}

// EvidenceBundle is the unordered collection of evidence gathered for a
// review. Rules look items up by EvidenceType (and sometimes meta.account_ref).
type EvidenceBundle struct {
	Items []EvidenceItem `json:"items"`
}

// First returns the first item of the given evidence_type, if any.
func (b EvidenceBundle) First(evidenceType string) (EvidenceItem, bool) {
	for _, it := range b.Items {
		if it.EvidenceType == evidenceType {
			return it, true
		}
	}
	return EvidenceItem{}, false
}

// All returns every item of the given evidence_type, in bundle order.
func (b EvidenceBundle) All(evidenceType string) []EvidenceItem {
	var out []EvidenceItem
	for _, it := range b.Items {
		if it.EvidenceType == evidenceType {
			out = append(out, it)
		}
	}
	return out
}

// ReconciliationSnapshot is one bank/credit-card reconciliation as of a
// statement end date. Meta carries the uncleared-items structure (spec.md §6).
type ReconciliationSnapshot struct {
	AccountRef                    string          `json:"account_ref"`
	AccountName                   string          `json:"account_name"`
	StatementEndDate              time.Time       `json:"statement_end_date"`
	StatementEndingBalance        decimal.Decimal `json:"statement_ending_balance"`
	BookBalanceAsOfStatementEnd   decimal.Decimal `json:"book_balance_as_of_statement_end"`
	BookBalanceAsOfPeriodEnd      *decimal.Decimal `json:"book_balance_as_of_period_end,omitempty"`
	Meta                          map[string]any  `json:"meta,omitempty"`
}

// ClientRulesConfig is the per-client envelope of per-rule config payloads,
// keyed by rule id. Unknown ids are ignored by the runner.
type ClientRulesConfig struct {
	Rules map[string]map[string]any `json:"rules"`
}

// RawConfig returns the raw config payload for a rule id, or nil if absent.
func (c ClientRulesConfig) RawConfig(ruleID string) map[string]any {
	if c.Rules == nil {
		return nil
	}
	return c.Rules[ruleID]
}

// RuleContext is the immutable input envelope passed to every rule.
type RuleContext struct {
	PeriodEnd         time.Time
	BalanceSheet      BalanceSheetSnapshot
	PriorBalanceSheet *BalanceSheetSnapshot
	ProfitAndLoss     *ProfitAndLossSnapshot
	Evidence          EvidenceBundle
	Reconciliations   []ReconciliationSnapshot
	ClientConfig      ClientRulesConfig
}

// ReconciliationFor returns the latest (by StatementEndDate) reconciliation
// snapshot for the given account ref, if any.
func (c RuleContext) ReconciliationFor(accountRef string) (ReconciliationSnapshot, bool) {
	var best ReconciliationSnapshot
	found := false
	for _, r := range c.Reconciliations {
		if r.AccountRef != accountRef {
			continue
		}
		if !found || r.StatementEndDate.After(best.StatementEndDate) {
			best = r
			found = true
		}
	}
	return best, found
}

// Detail is a single structured finding within a RuleResult, keyed by an
// identifier such as an account_ref. Details keep their insertion order
// within RuleResult.Details (spec.md §9: "details[] ... is ordered"); Fields
// is a plain map, so the order in which fields were set is not kept
// (encoding/json writes its keys in sorted order).
type Detail struct {
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`
}

// NewDetail constructs a Detail with an initialized Fields map.
func NewDetail(key string) Detail {
	return Detail{Key: key, Fields: map[string]any{}}
}

// Set assigns a field and returns the Detail for chaining.
func (d Detail) Set(name string, value any) Detail {
	d.Fields[name] = value
	return d
}

// RuleResult is the output of evaluating one rule against one RuleContext.
type RuleResult struct {
	RuleID       string         `json:"rule_id"`
	RuleTitle    string         `json:"rule_title"`
	Status       Status         `json:"status"`
	Severity     Severity       `json:"severity"`
	Summary      string         `json:"summary"`
	Details      []Detail       `json:"details"`
	EvidenceUsed []EvidenceItem `json:"evidence_used"`
	HumanAction  string         `json:"human_action"`
}

// RuleRunReport is the full output of a runner pass: every rule result in
// registration order, plus a status histogram.
type RuleRunReport struct {
	RunID   string           `json:"run_id"`
	Results []RuleResult     `json:"results"`
	Totals  map[Status]int   `json:"totals"`
}
