package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"mer-review-engine/internal/core"
)

func undepositedFundsContext(balance string, pctOfRevenue *string) core.RuleContext {
	rawCfg := map[string]any{}
	if pctOfRevenue != nil {
		rawCfg["pct_of_revenue"] = *pctOfRevenue
	}
	return core.RuleContext{
		PeriodEnd: date("2026-01-31"),
		BalanceSheet: core.BalanceSheetSnapshot{
			AsOfDate: date("2026-01-31"),
			Accounts: []core.AccountBalance{
				{AccountRef: "uf-1", Name: "Undeposited Funds", Balance: decimal.RequireFromString(balance)},
			},
		},
		ProfitAndLoss: &core.ProfitAndLossSnapshot{
			Totals: map[string]decimal.Decimal{"revenue": decimal.RequireFromString("100000")},
		},
		ClientConfig: core.ClientRulesConfig{
			Rules: map[string]map[string]any{"BS-UNDEPOSITED-FUNDS-ZERO": rawCfg},
		},
	}
}

func TestUndepositedFundsZeroPasses(t *testing.T) {
	res := core.NewUndepositedFundsRule().Evaluate(undepositedFundsContext("0.00", nil))
	if res.Status != core.StatusPass {
		t.Errorf("Status = %s, want PASS", res.Status)
	}
}

func TestUndepositedFundsNonZeroNoThresholdNeedsReview(t *testing.T) {
	res := core.NewUndepositedFundsRule().Evaluate(undepositedFundsContext("15.00", nil))
	if res.Status != core.StatusNeedsReview {
		t.Errorf("Status = %s, want NEEDS_REVIEW with no threshold configured", res.Status)
	}
}

func TestUndepositedFundsWithinToleranceWarns(t *testing.T) {
	pct := "0.01" // 1% of 100000 = 1000 allowed
	res := core.NewUndepositedFundsRule().Evaluate(undepositedFundsContext("15.00", &pct))
	if res.Status != core.StatusWarn {
		t.Errorf("Status = %s, want WARN within tolerance", res.Status)
	}
}

func TestUndepositedFundsBeyondToleranceFails(t *testing.T) {
	pct := "0.0001" // 0.01% of 100000 = 10 allowed
	res := core.NewUndepositedFundsRule().Evaluate(undepositedFundsContext("500.00", &pct))
	if res.Status != core.StatusFail {
		t.Errorf("Status = %s, want FAIL beyond tolerance", res.Status)
	}
}

func TestUndepositedFundsAbsentAccountNotApplicable(t *testing.T) {
	ctx := undepositedFundsContext("0.00", nil)
	ctx.BalanceSheet.Accounts[0].Name = "Office Supplies"
	res := core.NewUndepositedFundsRule().Evaluate(ctx)
	if res.Status != core.StatusNotApplicable {
		t.Errorf("Status = %s, want NOT_APPLICABLE when no matching account exists", res.Status)
	}
}

func plootoClearingContext(balance string) core.RuleContext {
	return core.RuleContext{
		PeriodEnd: date("2026-01-31"),
		BalanceSheet: core.BalanceSheetSnapshot{
			AsOfDate: date("2026-01-31"),
			Accounts: []core.AccountBalance{
				{AccountRef: "plc-1", Name: "Plooto Clearing", Balance: decimal.RequireFromString(balance)},
			},
		},
	}
}

func TestPlootoClearingZeroPasses(t *testing.T) {
	res := core.NewPlootoClearingRule().Evaluate(plootoClearingContext("0.00"))
	if res.Status != core.StatusPass {
		t.Errorf("Status = %s, want PASS", res.Status)
	}
}

func TestPlootoClearingNonZeroFails(t *testing.T) {
	res := core.NewPlootoClearingRule().Evaluate(plootoClearingContext("42.00"))
	if res.Status != core.StatusFail {
		t.Errorf("Status = %s, want FAIL", res.Status)
	}
}

func TestPlootoInstantMissingAccountResolvesPolicy(t *testing.T) {
	ctx := core.RuleContext{
		PeriodEnd:    date("2026-01-31"),
		BalanceSheet: core.BalanceSheetSnapshot{AsOfDate: date("2026-01-31")},
	}
	res := core.NewPlootoInstantRule().Evaluate(ctx)
	if res.Status != core.StatusNeedsReview {
		t.Errorf("Status = %s, want NEEDS_REVIEW default missing-data policy", res.Status)
	}
}

func clearingAccountsContext(accountType, balance string) core.RuleContext {
	periodEnd := date("2026-01-31")
	return core.RuleContext{
		PeriodEnd: periodEnd,
		BalanceSheet: core.BalanceSheetSnapshot{
			AsOfDate: periodEnd,
			Accounts: []core.AccountBalance{
				{AccountRef: "clr-1", Name: "Stripe Clearing", Balance: decimal.RequireFromString(balance), Type: accountType},
			},
		},
	}
}

func TestClearingAccountsZeroPasses(t *testing.T) {
	res := core.NewClearingAccountsRule().Evaluate(clearingAccountsContext("Bank", "0.00"))
	if res.Status != core.StatusPass {
		t.Errorf("Status = %s, want PASS", res.Status)
	}
}

func TestClearingAccountsNonZeroNoThresholdNeedsReview(t *testing.T) {
	res := core.NewClearingAccountsRule().Evaluate(clearingAccountsContext("Bank", "25.00"))
	if res.Status != core.StatusNeedsReview {
		t.Errorf("Status = %s, want NEEDS_REVIEW with no threshold configured", res.Status)
	}
}

func TestClearingAccountsWrongTypeNotApplicable(t *testing.T) {
	res := core.NewClearingAccountsRule().Evaluate(clearingAccountsContext("Fixed Asset", "25.00"))
	if res.Status != core.StatusNotApplicable {
		t.Errorf("Status = %s, want NOT_APPLICABLE when the matched account's type isn't a current-asset type", res.Status)
	}
}

func TestClearingAccountsNonSalesZeroPasses(t *testing.T) {
	res := core.NewClearingAccountsNonSalesRule().Evaluate(clearingAccountsContext("Fixed Asset", "0.00"))
	if res.Status != core.StatusPass {
		t.Errorf("Status = %s, want PASS: %+v", res.Status, res)
	}
}

func TestClearingAccountsNonSalesNonZeroFails(t *testing.T) {
	res := core.NewClearingAccountsNonSalesRule().Evaluate(clearingAccountsContext("Fixed Asset", "25.00"))
	if res.Status != core.StatusFail {
		t.Errorf("Status = %s, want FAIL (no tolerance for non-sales clearing accounts): %+v", res.Status, res)
	}
}

func TestClearingAccountsNonSalesExcludesCurrentAssetTypes(t *testing.T) {
	res := core.NewClearingAccountsNonSalesRule().Evaluate(clearingAccountsContext("Bank", "25.00"))
	if res.Status != core.StatusNotApplicable {
		t.Errorf("Status = %s, want NOT_APPLICABLE since Bank is a current-asset type excluded from the non-sales scope", res.Status)
	}
}

func TestClearingAccountsNoClassificationNeedsReview(t *testing.T) {
	ctx := clearingAccountsContext("", "25.00")
	res := core.NewClearingAccountsRule().Evaluate(ctx)
	if res.Status != core.StatusNeedsReview {
		t.Errorf("Status = %s, want NEEDS_REVIEW when balance sheet rows carry no type/subtype", res.Status)
	}
}

func TestPlootoInstantNonZeroWarnsNotFails(t *testing.T) {
	ctx := core.RuleContext{
		PeriodEnd: date("2026-01-31"),
		BalanceSheet: core.BalanceSheetSnapshot{
			AsOfDate: date("2026-01-31"),
			Accounts: []core.AccountBalance{
				{AccountRef: "pi-1", Name: "Plooto Instant", Balance: decimal.RequireFromString("300.00")},
			},
		},
	}
	res := core.NewPlootoInstantRule().Evaluate(ctx)
	if res.Status != core.StatusWarn {
		t.Errorf("Status = %s, want WARN (disclosure, not a failure)", res.Status)
	}
}
