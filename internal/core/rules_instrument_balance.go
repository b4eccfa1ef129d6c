package core

import (
	"time"

	"github.com/invopop/jsonschema"
)

// InstrumentBalanceConfig configures the single-instrument tie-out rules
// (BS-LOAN-BALANCE-MATCH, BS-INVESTMENT-BALANCE-MATCH; spec.md §4.4.16/17).
type InstrumentBalanceConfig struct {
	BaseConfig
	AccountRef          string `json:"account_ref,omitempty" jsonschema_description:"The loan/investment account. When unset, the account is located by name match."`
	RequireAsOfMatch    *bool  `json:"require_evidence_as_of_date_match_period_end,omitempty"`
}

type instrumentBalanceRule struct {
	ruleID        string
	title         string
	nameNeedle    string
	evidenceType  string
}

// NewLoanBalanceRule returns BS-LOAN-BALANCE-MATCH.
func NewLoanBalanceRule() Rule {
	return instrumentBalanceRule{
		ruleID:       "BS-LOAN-BALANCE-MATCH",
		title:        "Loan balance matches the loan schedule",
		nameNeedle:   "loan",
		evidenceType: "loan_schedule_balance",
	}
}

// NewInvestmentBalanceRule returns BS-INVESTMENT-BALANCE-MATCH.
func NewInvestmentBalanceRule() Rule {
	return instrumentBalanceRule{
		ruleID:       "BS-INVESTMENT-BALANCE-MATCH",
		title:        "Investment balance matches the custodian statement",
		nameNeedle:   "investment",
		evidenceType: "investment_statement_balance",
	}
}

func (r instrumentBalanceRule) ID() string    { return r.ruleID }
func (r instrumentBalanceRule) Title() string { return r.title }
func (instrumentBalanceRule) BestPracticesReference() string {
	return "Month-end close checklist: loan/investment tie-out"
}
func (instrumentBalanceRule) Sources() []string { return []string{"QBO Balance Sheet", "Loan schedules", "Investment statements"} }
func (instrumentBalanceRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[InstrumentBalanceConfig]()
}

func (r instrumentBalanceRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := r.ID(), r.Title()
	cfg, err := DecodeConfig[InstrumentBalanceConfig](id, ctx.ClientConfig.RawConfig(id))
	if err != nil {
		return ConfigInvalidResult(id, title, err)
	}
	if !cfg.IsEnabled() {
		return NotApplicableDisabled(id, title)
	}
	places, quantized, err := cfg.Quantization()
	if err != nil {
		return ConfigInvalidResult(id, title, err)
	}
	requireAsOf := requireAsOfMatch(cfg.RequireAsOfMatch)

	b := NewResultBuilder(id, title)

	var acct AccountBalance
	switch {
	case cfg.AccountRef != "":
		found, ok := ctx.BalanceSheet.ByRef(cfg.AccountRef)
		if !ok {
			return b.Status(StatusNotApplicable).Summary("configured account not present on the balance sheet").Build()
		}
		acct = found
	default:
		matches := filterByNameSubstrings(ctx.BalanceSheet.Leaves(), []string{r.nameNeedle})
		switch len(matches) {
		case 0:
			return b.Status(StatusNotApplicable).Summary("no matching account found").Build()
		case 1:
			acct = matches[0]
		default:
			return b.Status(StatusNeedsReview).
				Summary("multiple matching accounts found; configure account_ref to disambiguate").
				HumanActionf("set account_ref explicitly for %s", id).
				Build()
		}
	}

	evidence, ok := ctx.Evidence.First(r.evidenceType)
	if !ok || evidence.Amount == nil || !asOfMatches(evidence, ctx.PeriodEnd, requireAsOf) {
		return b.Status(StatusNeedsReview).
			Summaryf("missing or stale %s evidence", r.evidenceType).
			HumanActionf("obtain current %s evidence for %s", r.evidenceType, id).
			Build()
	}
	b.Evidence(evidence)

	bsBalance := Quantize(acct.Balance, places, quantized)
	evidenceAmount := Quantize(*evidence.Amount, places, quantized)
	b.Detail(NewDetail(acct.AccountRef).
		Set("name", acct.Name).
		Set("bs_balance", bsBalance).
		Set("evidence_amount", evidenceAmount))

	if bsBalance.Equal(evidenceAmount) {
		return b.Status(StatusPass).Summary("balance matches the supporting schedule").Build()
	}
	return b.Status(StatusFail).
		Summary("balance does not match the supporting schedule").
		HumanActionf("investigate the balance discrepancy for %s", id).
		Build()
}

// WorkingPaperConfig configures BS-WORKING-PAPER-RECONCILES.
type WorkingPaperConfig struct {
	BaseConfig
	NamePatterns     []string `json:"name_patterns,omitempty"`
	RequireAsOfMatch *bool    `json:"require_evidence_as_of_date_match_period_end,omitempty"`
}

type workingPaperRule struct{}

// NewWorkingPaperRule returns the BS-WORKING-PAPER-RECONCILES rule.
func NewWorkingPaperRule() Rule { return workingPaperRule{} }

func (workingPaperRule) ID() string    { return "BS-WORKING-PAPER-RECONCILES" }
func (workingPaperRule) Title() string { return "Balance sheet account reconciles to its working paper" }
func (workingPaperRule) BestPracticesReference() string {
	return "Month-end close checklist: prepaid/accrual working papers"
}
func (workingPaperRule) Sources() []string { return []string{"QBO Balance Sheet", "Working papers"} }
func (workingPaperRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[WorkingPaperConfig]()
}

var defaultWorkingPaperNamePatterns = []string{"prepaid", "deferred revenue", "accrual"}

func (rl workingPaperRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[WorkingPaperConfig](id, ctx.ClientConfig.RawConfig(id))
	if err != nil {
		return ConfigInvalidResult(id, title, err)
	}
	if !cfg.IsEnabled() {
		return NotApplicableDisabled(id, title)
	}
	places, quantized, err := cfg.Quantization()
	if err != nil {
		return ConfigInvalidResult(id, title, err)
	}
	requireAsOf := requireAsOfMatch(cfg.RequireAsOfMatch)
	patterns := cfg.NamePatterns
	if len(patterns) == 0 {
		patterns = defaultWorkingPaperNamePatterns
	}

	b := NewResultBuilder(id, title)

	accounts := filterByNameSubstrings(ctx.BalanceSheet.Leaves(), patterns)
	if len(accounts) == 0 {
		return b.Status(StatusNotApplicable).Summary("no accounts matched the configured working paper patterns").Build()
	}

	workingPapers := ctx.Evidence.All("working_paper_balance")

	overall := StatusPass
	for _, acct := range accounts {
		wp, ok := findWorkingPaperFor(workingPapers, acct, ctx.PeriodEnd, requireAsOf)
		d := NewDetail(acct.AccountRef).Set("name", acct.Name).Set("bs_balance", Quantize(acct.Balance, places, quantized))
		if !ok {
			d.Set("issue", "no matching working_paper_balance evidence")
			overall = Worst(overall, StatusNeedsReview)
			b.Detail(d)
			continue
		}
		b.Evidence(wp)
		wpAmount := Quantize(*wp.Amount, places, quantized)
		d.Set("working_paper_amount", wpAmount)
		bsBalance := Quantize(acct.Balance, places, quantized)
		if !bsBalance.Equal(wpAmount) {
			d.Set("issue", "mismatch")
			overall = Worst(overall, StatusFail)
		}
		b.Detail(d)
	}

	b.Status(overall)
	if overall == StatusPass {
		b.Summary("all working-paper-supported accounts reconcile")
		return b.Build()
	}
	b.Summary("one or more working-paper-supported accounts do not reconcile")
	b.HumanActionf("investigate the flagged working paper discrepancies for %s", id)
	return b.Build()
}

func findWorkingPaperFor(items []EvidenceItem, acct AccountBalance, periodEnd time.Time, requireAsOf bool) (EvidenceItem, bool) {
	for _, item := range items {
		if item.Amount == nil || !asOfMatches(item, periodEnd, requireAsOf) {
			continue
		}
		ref, _ := item.Meta["account_ref"].(string)
		if ref != "" && ref != acct.AccountRef {
			continue
		}
		if ref == "" {
			name, _ := item.Meta["account_name"].(string)
			if name != "" && !NameContains(acct.Name, name) {
				continue
			}
		}
		return item, true
	}
	return EvidenceItem{}, false
}
