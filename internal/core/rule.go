package core

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

// Rule is a named, pure evaluator over a RuleContext (spec.md §4.1). Rules
// MUST NOT perform I/O or mutate the context, and MUST be deterministic for
// identical inputs.
type Rule interface {
	ID() string
	Title() string
	BestPracticesReference() string
	Sources() []string
	ConfigSchema() *jsonschema.Schema
	Evaluate(ctx RuleContext) RuleResult
}

// RuleFactory constructs a fresh Rule instance. Rules are stateless, so a
// factory typically just returns a shared value, but the indirection keeps
// the registry free of any assumption about rule construction cost.
type RuleFactory func() Rule

// ResultBuilder assembles a RuleResult field by field, mirroring the
// teacher's preference for small fluent constructors over large struct
// literals scattered through each rule body.
type ResultBuilder struct {
	res RuleResult
}

// NewResultBuilder starts building a result for the given rule.
func NewResultBuilder(ruleID, title string) *ResultBuilder {
	return &ResultBuilder{res: RuleResult{
		RuleID:       ruleID,
		RuleTitle:    title,
		Details:      []Detail{},
		EvidenceUsed: []EvidenceItem{},
	}}
}

// Status sets the result status and, unless Severity is called afterward,
// its default severity per the status→severity map (spec.md §3).
func (b *ResultBuilder) Status(s Status) *ResultBuilder {
	b.res.Status = s
	b.res.Severity = defaultSeverity(s)
	return b
}

// Severity overrides the default severity derived from Status.
func (b *ResultBuilder) Severity(s Severity) *ResultBuilder {
	b.res.Severity = s
	return b
}

// Summary sets the short human-readable summary line.
func (b *ResultBuilder) Summary(s string) *ResultBuilder {
	b.res.Summary = s
	return b
}

// Summaryf sets the summary via fmt.Sprintf.
func (b *ResultBuilder) Summaryf(format string, args ...any) *ResultBuilder {
	b.res.Summary = fmt.Sprintf(format, args...)
	return b
}

// HumanAction sets the reviewer-actionable instruction (spec.md §3:
// "empty for clean PASS; a reviewer instruction otherwise").
func (b *ResultBuilder) HumanAction(s string) *ResultBuilder {
	b.res.HumanAction = s
	return b
}

// HumanActionf sets the human action via fmt.Sprintf.
func (b *ResultBuilder) HumanActionf(format string, args ...any) *ResultBuilder {
	b.res.HumanAction = fmt.Sprintf(format, args...)
	return b
}

// Detail appends one structured finding, preserving insertion order
// (spec.md §9: "details[] within a rule is ordered").
func (b *ResultBuilder) Detail(d Detail) *ResultBuilder {
	b.res.Details = append(b.res.Details, d)
	return b
}

// Evidence appends evidence items consulted while evaluating the rule.
func (b *ResultBuilder) Evidence(items ...EvidenceItem) *ResultBuilder {
	b.res.EvidenceUsed = append(b.res.EvidenceUsed, items...)
	return b
}

// Build finalizes the result. PASS and NOT_APPLICABLE results do not need
// an explicit HumanAction; every other status should have had HumanAction
// or HumanActionf called before Build.
func (b *ResultBuilder) Build() RuleResult {
	return b.res
}

// NotApplicableDisabled builds the standard NOT_APPLICABLE result for a
// rule whose config sets enabled=false (spec.md §4.1 preamble step 1).
func NotApplicableDisabled(ruleID, title string) RuleResult {
	return NewResultBuilder(ruleID, title).
		Status(StatusNotApplicable).
		Summary("rule disabled by client configuration").
		Build()
}

// ConfigInvalidResult builds the NEEDS_REVIEW result for a rule whose
// config payload failed to decode (spec.md §7 ConfigurationError: "bad
// type or bad decimal literal is fatal for that rule → NEEDS_REVIEW with
// 'configuration invalid' summary").
func ConfigInvalidResult(ruleID, title string, err error) RuleResult {
	return NewResultBuilder(ruleID, title).
		Status(StatusNeedsReview).
		Summary("configuration invalid").
		HumanActionf("fix the %s rule configuration before the next review: %v", ruleID, err).
		Build()
}

// MissingDataConfig is embedded by rule configs that expose a
// missing_data_policy field (spec.md §7 MissingData: "Routed per rule's
// missing_data_policy (NEEDS_REVIEW or NOT_APPLICABLE)").
type MissingDataConfig struct {
	MissingDataPolicy string `json:"missing_data_policy,omitempty" jsonschema_description:"Status to report when required input is missing: NEEDS_REVIEW (default) or NOT_APPLICABLE."`
}

// Resolve returns the configured missing-data status, defaulting to
// NEEDS_REVIEW for anything other than an explicit "NOT_APPLICABLE".
func (m MissingDataConfig) Resolve() Status {
	if m.MissingDataPolicy == string(StatusNotApplicable) {
		return StatusNotApplicable
	}
	return StatusNeedsReview
}
