package core

import (
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// IntercompanyConfig configures the family of rules matching BS accounts to
// a counterparty balance by name pattern (spec.md §4.4.13/§4.4.15).
type IntercompanyConfig struct {
	BaseConfig
	NamePatterns []string `json:"name_patterns,omitempty" jsonschema_description:"Substrings used to find due-to/due-from/intercompany/shareholder accounts on the balance sheet. Defaults vary per rule."`
}

type intercompanyRule struct {
	ruleID              string
	title               string
	defaultNamePatterns []string
}

// NewIntercompanyShareholderRule returns BS-AP-AR-INTERCOMPANY-OR-SHAREHOLDER-PAID.
func NewIntercompanyShareholderRule() Rule {
	return intercompanyRule{
		ruleID:              "BS-AP-AR-INTERCOMPANY-OR-SHAREHOLDER-PAID",
		title:               "Intercompany/shareholder AP-AR balances reconcile to counterparty records",
		defaultNamePatterns: []string{"due to", "due from", "intercompany", "inter-company"},
	}
}

// NewIntercompanyBalancesRule returns BS-INTERCOMPANY-BALANCES-RECONCILE.
func NewIntercompanyBalancesRule() Rule {
	return intercompanyRule{
		ruleID: "BS-INTERCOMPANY-BALANCES-RECONCILE",
		title:  "Intercompany and shareholder loan balances reconcile to counterparty records",
		defaultNamePatterns: []string{
			"due to", "due from", "intercompany", "inter-company",
			"intercompany loan", "loan from", "loan to", "shareholder loan",
		},
	}
}

func (r intercompanyRule) ID() string                         { return r.ruleID }
func (r intercompanyRule) Title() string                      { return r.title }
func (intercompanyRule) BestPracticesReference() string       { return "Month-end close checklist: intercompany reconciliation" }
func (intercompanyRule) Sources() []string                    { return []string{"QBO Balance Sheet", "Intercompany balance records"} }
func (intercompanyRule) ConfigSchema() *jsonschema.Schema     { return SchemaFor[IntercompanyConfig]() }

func (r intercompanyRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := r.ID(), r.Title()
	cfg, err := DecodeConfig[IntercompanyConfig](id, ctx.ClientConfig.RawConfig(id))
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

	patterns := cfg.NamePatterns
	if len(patterns) == 0 {
		patterns = r.defaultNamePatterns
	}
	matches := filterByNameSubstrings(ctx.BalanceSheet.Leaves(), patterns)

	b := NewResultBuilder(id, title)
	if len(matches) == 0 {
		return b.Status(StatusNotApplicable).Summary("no intercompany or shareholder accounts found").Build()
	}

	evidence, ok := ctx.Evidence.First("intercompany_balance_sheet")
	if !ok {
		return b.Status(StatusNeedsReview).
			Summary("intercompany_balance_sheet evidence is missing").
			HumanActionf("obtain intercompany balance records for %s", id).
			Build()
	}
	b.Evidence(evidence)
	counterparties := metaItems(evidence.Meta)

	overall := StatusPass
	for _, acct := range matches {
		counterpartyBalance, found := findCounterpartyBalance(counterparties, acct.Name)
		d := NewDetail(acct.AccountRef).Set("name", acct.Name).Set("bs_balance", Quantize(acct.Balance, places, quantized))
		if !found {
			d.Set("issue", "no matching counterparty record")
			overall = Worst(overall, StatusNeedsReview)
			b.Detail(d)
			continue
		}
		bsAbs := Quantize(acct.Balance, places, quantized).Abs()
		cpAbs := Quantize(counterpartyBalance, places, quantized).Abs()
		d.Set("counterparty_balance", cpAbs)
		if !bsAbs.Equal(cpAbs) {
			d.Set("issue", "counterparty balance mismatch")
			overall = Worst(overall, StatusNeedsReview)
		}
		b.Detail(d)
	}

	b.Status(overall)
	if overall == StatusPass {
		b.Summary("all intercompany/shareholder balances reconcile to counterparty records")
		return b.Build()
	}
	b.Summary("one or more intercompany/shareholder balances do not reconcile to counterparty records")
	b.HumanActionf("investigate the flagged intercompany balances for %s", id)
	return b.Build()
}

// findCounterpartyBalance infers the counterparty from the account name
// (the account name is expected to carry the counterparty's identity,
// e.g. "Due to ABC Holdings") and looks up its balance in the
// intercompany_balance_sheet evidence meta.items[] (spec.md §4.4.13).
func findCounterpartyBalance(items []map[string]any, accountName string) (decimal.Decimal, bool) {
	for _, item := range items {
		counterparty := metaString(item, "counterparty")
		if counterparty == "" {
			continue
		}
		if NameContains(accountName, counterparty) {
			if bal, ok := itemDecimal(item, "balance"); ok {
				return bal, true
			}
		}
	}
	return decimal.Decimal{}, false
}

// YearEndBatchAdjustmentsConfig configures BS-AP-AR-YEAR_END_BATCH_ADJUSTMENTS.
type YearEndBatchAdjustmentsConfig struct {
	BaseConfig
	NamePatterns     []string `json:"name_patterns,omitempty"`
	RequireAsOfMatch *bool    `json:"require_evidence_as_of_date_match_period_end,omitempty"`
}

type yearEndBatchAdjustmentsRule struct{}

// NewYearEndBatchAdjustmentsRule returns BS-AP-AR-YEAR_END_BATCH_ADJUSTMENTS.
func NewYearEndBatchAdjustmentsRule() Rule { return yearEndBatchAdjustmentsRule{} }

func (yearEndBatchAdjustmentsRule) ID() string { return "BS-AP-AR-YEAR_END_BATCH_ADJUSTMENTS" }
func (yearEndBatchAdjustmentsRule) Title() string {
	return "No unreviewed year-end batch adjustments in AP/AR"
}
func (yearEndBatchAdjustmentsRule) BestPracticesReference() string {
	return "Month-end close checklist: year-end adjustment review"
}
func (yearEndBatchAdjustmentsRule) Sources() []string { return []string{"AP/AR aging reports"} }
func (yearEndBatchAdjustmentsRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[YearEndBatchAdjustmentsConfig]()
}

var defaultYearEndNamePatterns = []string{"yer supplier", "year-end review", "ye adj", "year end", "y/e"}
var defaultYearEndPrefixes = []string{"YE", "Y/E", "Year End"}

func (rl yearEndBatchAdjustmentsRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[YearEndBatchAdjustmentsConfig](id, ctx.ClientConfig.RawConfig(id))
	if err != nil {
		return ConfigInvalidResult(id, title, err)
	}
	if !cfg.IsEnabled() {
		return NotApplicableDisabled(id, title)
	}
	requireAsOf := requireAsOfMatch(cfg.RequireAsOfMatch)
	patterns := cfg.NamePatterns
	if len(patterns) == 0 {
		patterns = defaultYearEndNamePatterns
	}

	b := NewResultBuilder(id, title)

	found := false
	var flagged []map[string]any
	for _, t := range []string{"ap_aging_detail_rows", "ar_aging_detail_rows"} {
		item, ok := ctx.Evidence.First(t)
		if !ok || !asOfMatches(item, ctx.PeriodEnd, requireAsOf) {
			continue
		}
		found = true
		b.Evidence(item)
		for _, row := range metaItems(item.Meta) {
			name := metaString(row, "name")
			if NameContainsAny(name, patterns) || NameHasAnyPrefix(name, defaultYearEndPrefixes) {
				flagged = append(flagged, row)
			}
		}
	}

	if !found {
		return b.Status(StatusNotApplicable).Summary("AP/AR aging detail rows evidence is missing or stale").Build()
	}

	if len(flagged) == 0 {
		return b.Status(StatusPass).Summary("no year-end batch adjustment entries found in AP/AR detail").Build()
	}

	for _, row := range flagged {
		b.Detail(NewDetail("flagged").Set("name", metaString(row, "name")).Set("amount", row["amount"]))
	}
	return b.Status(StatusNeedsReview).
		Summaryf("%d year-end batch adjustment entries require review", len(flagged)).
		HumanActionf("review the flagged year-end batch adjustment entries for %s", id).
		Build()
}
