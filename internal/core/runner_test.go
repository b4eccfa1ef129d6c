package core_test

import (
	"testing"

	"github.com/invopop/jsonschema"

	"mer-review-engine/internal/core"
)

type orderedRule struct {
	id string
}

func (r orderedRule) ID() string                     { return r.id }
func (r orderedRule) Title() string                   { return r.id }
func (r orderedRule) BestPracticesReference() string  { return "" }
func (r orderedRule) Sources() []string               { return nil }
func (r orderedRule) ConfigSchema() *jsonschema.Schema { return nil }
func (r orderedRule) Evaluate(ctx core.RuleContext) core.RuleResult {
	return core.NewResultBuilder(r.id, r.id).Status(core.StatusPass).Build()
}

type panickyRule struct{}

func (panickyRule) ID() string                     { return "PANIC-RULE" }
func (panickyRule) Title() string                   { return "Panics on purpose" }
func (panickyRule) BestPracticesReference() string  { return "" }
func (panickyRule) Sources() []string               { return nil }
func (panickyRule) ConfigSchema() *jsonschema.Schema { return nil }
func (panickyRule) Evaluate(ctx core.RuleContext) core.RuleResult {
	panic("boom")
}

func TestRunnerPreservesRegistrationOrder(t *testing.T) {
	reg := core.NewRegistry()
	ids := []string{"R-1", "R-2", "R-3", "R-4", "R-5"}
	for _, id := range ids {
		id := id
		reg.MustRegister(id, func() core.Rule { return orderedRule{id: id} })
	}

	report := core.NewRunner(reg).Run(core.RuleContext{})
	if len(report.Results) != len(ids) {
		t.Fatalf("got %d results, want %d", len(report.Results), len(ids))
	}
	for i, id := range ids {
		if report.Results[i].RuleID != id {
			t.Errorf("Results[%d].RuleID = %s, want %s", i, report.Results[i].RuleID, id)
		}
	}
	if report.RunID == "" {
		t.Error("expected a non-empty RunID")
	}
}

func TestRunnerIsolatesPanicsAsNeedsReview(t *testing.T) {
	reg := core.NewRegistry()
	reg.MustRegister("OK-RULE", func() core.Rule { return orderedRule{id: "OK-RULE"} })
	reg.MustRegister("PANIC-RULE", func() core.Rule { return panickyRule{} })

	report := core.NewRunner(reg).Run(core.RuleContext{})

	var okResult, panicResult *core.RuleResult
	for i := range report.Results {
		switch report.Results[i].RuleID {
		case "OK-RULE":
			okResult = &report.Results[i]
		case "PANIC-RULE":
			panicResult = &report.Results[i]
		}
	}
	if okResult == nil || okResult.Status != core.StatusPass {
		t.Errorf("expected OK-RULE to PASS unaffected by the other rule's panic, got %+v", okResult)
	}
	if panicResult == nil || panicResult.Status != core.StatusNeedsReview {
		t.Fatalf("expected PANIC-RULE to be isolated to NEEDS_REVIEW, got %+v", panicResult)
	}
	if panicResult.HumanAction == "" {
		t.Error("expected a HumanAction describing the internal failure")
	}
}

func TestRunnerTotalsHistogram(t *testing.T) {
	reg := core.NewRegistry()
	reg.MustRegister("OK-RULE", func() core.Rule { return orderedRule{id: "OK-RULE"} })
	reg.MustRegister("PANIC-RULE", func() core.Rule { return panickyRule{} })

	report := core.NewRunner(reg).Run(core.RuleContext{})
	if report.Totals[core.StatusPass] != 1 {
		t.Errorf("Totals[PASS] = %d, want 1", report.Totals[core.StatusPass])
	}
	if report.Totals[core.StatusNeedsReview] != 1 {
		t.Errorf("Totals[NEEDS_REVIEW] = %d, want 1", report.Totals[core.StatusNeedsReview])
	}
}

func TestNewRunnerWithConcurrencyClampsToOne(t *testing.T) {
	reg := core.NewRegistry()
	reg.MustRegister("R-1", func() core.Rule { return orderedRule{id: "R-1"} })

	report := core.NewRunnerWithConcurrency(reg, 0).Run(core.RuleContext{})
	if len(report.Results) != 1 || report.Results[0].Status != core.StatusPass {
		t.Errorf("expected a single PASS result running sequentially, got %+v", report.Results)
	}
}
