package core

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// defaultMaxWorkers bounds how many rules run concurrently, mirroring
// opensource-finance-osprey's rule engine (internal/rules/engine.go), which
// defaults its worker pool to 10 when the caller doesn't specify one.
const defaultMaxWorkers = 10

// Runner executes every rule in a Registry against a RuleContext and
// assembles a RuleRunReport (spec.md §4.3).
type Runner struct {
	registry   *Registry
	maxWorkers int
}

// NewRunner builds a Runner with the default concurrency bound.
func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry, maxWorkers: defaultMaxWorkers}
}

// NewRunnerWithConcurrency builds a Runner with an explicit bound on how
// many rules may evaluate concurrently. maxWorkers <= 0 runs rules
// sequentially (equivalent to a limit of 1).
func NewRunnerWithConcurrency(registry *Registry, maxWorkers int) *Runner {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Runner{registry: registry, maxWorkers: maxWorkers}
}

// Run executes every registered rule against ctx and returns the
// aggregated report. Rules run in registration order but may execute
// concurrently (spec.md §5); results are written into a pre-sized slice by
// index so the output order always matches registration order regardless
// of completion order.
func (r *Runner) Run(ctx RuleContext) RuleRunReport {
	rules := r.registry.Rules()
	results := make([]RuleResult, len(rules))

	g := new(errgroup.Group)
	g.SetLimit(r.maxWorkers)
	for i, rule := range rules {
		i, rule := i, rule
		g.Go(func() error {
			results[i] = evaluateIsolated(rule, ctx)
			return nil
		})
	}
	_ = g.Wait() // evaluateIsolated recovers internally; Wait never reports an error

	totals := make(map[Status]int, len(statusRank))
	for _, res := range results {
		totals[res.Status]++
	}

	return RuleRunReport{
		RunID:   uuid.NewString(),
		Results: results,
		Totals:  totals,
	}
}

// evaluateIsolated runs a single rule, converting any panic into a
// NEEDS_REVIEW result so one rule's bug never crashes the run (spec.md
// §4.3, §7 Internal: "caught by runner → NEEDS_REVIEW for that rule only;
// does not propagate").
func evaluateIsolated(rule Rule, ctx RuleContext) (result RuleResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = NewResultBuilder(rule.ID(), rule.Title()).
				Status(StatusNeedsReview).
				Summary("internal error").
				HumanActionf("rule %s failed unexpectedly during evaluation and needs manual review: %v", rule.ID(), rec).
				Build()
		}
	}()
	return rule.Evaluate(ctx)
}

// ExplainTotals is a small debugging helper used by cmd/app to print a
// one-line status histogram summary.
func ExplainTotals(totals map[Status]int) string {
	return fmt.Sprintf("PASS=%d WARN=%d FAIL=%d NEEDS_REVIEW=%d NOT_APPLICABLE=%d",
		totals[StatusPass], totals[StatusWarn], totals[StatusFail], totals[StatusNeedsReview], totals[StatusNotApplicable])
}
