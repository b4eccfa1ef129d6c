package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"mer-review-engine/internal/core"
)

func pettyCashContext(bsBalance, supportAmount string) core.RuleContext {
	amount := decimal.RequireFromString(supportAmount)
	return core.RuleContext{
		PeriodEnd: date("2026-01-31"),
		BalanceSheet: core.BalanceSheetSnapshot{
			AsOfDate: date("2026-01-31"),
			Accounts: []core.AccountBalance{
				{AccountRef: "pc-1", Name: "Petty Cash", Balance: decimal.RequireFromString(bsBalance)},
			},
		},
		Evidence: core.EvidenceBundle{
			Items: []core.EvidenceItem{
				{EvidenceType: "petty_cash_support", Amount: &amount},
			},
		},
		ClientConfig: core.ClientRulesConfig{
			Rules: map[string]map[string]any{
				"BS-PETTY-CASH-MATCH": {"account_ref": "pc-1"},
			},
		},
	}
}

func TestPettyCashMatchPasses(t *testing.T) {
	res := core.NewPettyCashRule().Evaluate(pettyCashContext("250.00", "250.00"))
	if res.Status != core.StatusPass {
		t.Errorf("Status = %s, want PASS: %+v", res.Status, res)
	}
}

func TestPettyCashMismatchFails(t *testing.T) {
	res := core.NewPettyCashRule().Evaluate(pettyCashContext("250.00", "200.00"))
	if res.Status != core.StatusFail {
		t.Errorf("Status = %s, want FAIL: %+v", res.Status, res)
	}
	if res.HumanAction == "" {
		t.Error("expected a HumanAction on a FAIL result")
	}
}

func TestPettyCashMissingAccountRefIsConfigInvalid(t *testing.T) {
	ctx := pettyCashContext("250.00", "250.00")
	ctx.ClientConfig = core.ClientRulesConfig{
		Rules: map[string]map[string]any{"BS-PETTY-CASH-MATCH": {}},
	}
	res := core.NewPettyCashRule().Evaluate(ctx)
	if res.Status != core.StatusNeedsReview {
		t.Errorf("Status = %s, want NEEDS_REVIEW for a missing account_ref", res.Status)
	}
}

func TestPettyCashDisabledIsNotApplicable(t *testing.T) {
	ctx := pettyCashContext("250.00", "250.00")
	ctx.ClientConfig.Rules["BS-PETTY-CASH-MATCH"]["enabled"] = false
	res := core.NewPettyCashRule().Evaluate(ctx)
	if res.Status != core.StatusNotApplicable {
		t.Errorf("Status = %s, want NOT_APPLICABLE when disabled", res.Status)
	}
}

func TestPettyCashMissingSupportEvidenceNeedsReview(t *testing.T) {
	ctx := pettyCashContext("250.00", "250.00")
	ctx.Evidence = core.EvidenceBundle{}
	res := core.NewPettyCashRule().Evaluate(ctx)
	if res.Status != core.StatusNeedsReview {
		t.Errorf("Status = %s, want NEEDS_REVIEW when support evidence is missing", res.Status)
	}
}
