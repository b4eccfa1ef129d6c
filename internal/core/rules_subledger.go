package core

import (
	"time"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// SubledgerConfig configures BS-AP-SUBLEDGER-RECONCILES and
// BS-AR-SUBLEDGER-RECONCILES (spec.md §4.4.9/§4.4.10).
type SubledgerConfig struct {
	BaseConfig
	AccountRefs               []string `json:"account_refs,omitempty" jsonschema_description:"Explicit accounts making up the subledger total, used when no report:: summary row exists."`
	AccountNameMatch          string   `json:"account_name_match,omitempty" jsonschema_description:"Name substring used to infer subledger accounts. Defaults per rule."`
	AllowNameInference        *bool    `json:"allow_name_inference,omitempty" jsonschema_description:"Whether falling back to name-substring inference is permitted. Defaults to true."`
	RequireAsOfMatch          *bool    `json:"require_evidence_as_of_date_match_period_end,omitempty" jsonschema_description:"Whether evidence as_of_date must equal period_end. Defaults to true."`
	SummaryEvidenceType       string   `json:"summary_evidence_type,omitempty"`
	DetailEvidenceType        string   `json:"detail_evidence_type,omitempty"`
}

// subledgerKind captures the AP/AR-specific defaults the two rules share
// everything else around.
type subledgerKind struct {
	ruleID             string
	title              string
	reportRowSuffix    string
	defaultNameMatch   string
	initialismLabel    string
	defaultSummaryType string
	defaultDetailType  string
}

var apSubledgerKind = subledgerKind{
	ruleID:             "BS-AP-SUBLEDGER-RECONCILES",
	title:              "Accounts Payable subledger reconciles to the balance sheet",
	reportRowSuffix:    "Total Accounts Payable",
	defaultNameMatch:   "Accounts Payable",
	initialismLabel:    "Payable",
	defaultSummaryType: "ap_aging_summary_total",
	defaultDetailType:  "ap_aging_detail_total",
}

var arSubledgerKind = subledgerKind{
	ruleID:             "BS-AR-SUBLEDGER-RECONCILES",
	title:              "Accounts Receivable subledger reconciles to the balance sheet",
	reportRowSuffix:    "Total Accounts Receivable",
	defaultNameMatch:   "Accounts Receivable",
	initialismLabel:    "Receivable",
	defaultSummaryType: "ar_aging_summary_total",
	defaultDetailType:  "ar_aging_detail_total",
}

type subledgerRule struct{ kind subledgerKind }

// NewAPSubledgerRule returns BS-AP-SUBLEDGER-RECONCILES.
func NewAPSubledgerRule() Rule { return subledgerRule{kind: apSubledgerKind} }

// NewARSubledgerRule returns BS-AR-SUBLEDGER-RECONCILES.
func NewARSubledgerRule() Rule { return subledgerRule{kind: arSubledgerKind} }

func (r subledgerRule) ID() string    { return r.kind.ruleID }
func (r subledgerRule) Title() string { return r.kind.title }
func (subledgerRule) BestPracticesReference() string {
	return "Month-end close checklist: AP/AR subledger tie-out"
}
func (subledgerRule) Sources() []string {
	return []string{"QBO Balance Sheet", "AP/AR aging reports"}
}
func (subledgerRule) ConfigSchema() *jsonschema.Schema { return SchemaFor[SubledgerConfig]() }

// subledgerTotal resolves the balance-sheet subledger total per spec.md
// §4.4.9/§4.4.10's three-tier fallback, returning the total, whether it
// resolved at all, and whether a configured ref was missing from the
// balance sheet.
func subledgerTotal(bs BalanceSheetSnapshot, kind subledgerKind, cfg SubledgerConfig) (total decimal.Decimal, resolved bool, missingConfigured bool) {
	if row, ok := bs.ByRef(ReportAccountPrefix + kind.reportRowSuffix); ok {
		return row.Balance, true, false
	}
	if len(cfg.AccountRefs) > 0 {
		sum := decimal.Zero
		missing := false
		for _, ref := range cfg.AccountRefs {
			a, ok := bs.ByRef(ref)
			if !ok {
				missing = true
				continue
			}
			sum = sum.Add(a.Balance)
		}
		return sum, true, missing
	}
	if allowNameInference(cfg.AllowNameInference) {
		needle := cfg.AccountNameMatch
		if needle == "" {
			needle = kind.defaultNameMatch
		}
		sum := decimal.Zero
		found := false
		for _, a := range bs.Leaves() {
			if NameContains(a.Name, needle) || NameHasAnyToken(a.Name, initialismTokens(kind.initialismLabel)) {
				sum = sum.Add(a.Balance)
				found = true
			}
		}
		return sum, found, false
	}
	return decimal.Zero, false, false
}

func (r subledgerRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := r.ID(), r.Title()
	cfg, err := DecodeConfig[SubledgerConfig](id, ctx.ClientConfig.RawConfig(id))
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

	b := NewResultBuilder(id, title)

	total, resolved, missingConfigured := subledgerTotal(ctx.BalanceSheet, r.kind, cfg)
	if !resolved {
		return b.Status(StatusNotApplicable).Summary("no subledger accounts found on the balance sheet").Build()
	}
	if missingConfigured {
		return b.Status(StatusNeedsReview).
			Summary("one or more configured account_refs are missing from the balance sheet").
			HumanActionf("fix the account_refs configured for %s", id).
			Build()
	}

	summaryType := cfg.SummaryEvidenceType
	if summaryType == "" {
		summaryType = r.kind.defaultSummaryType
	}
	detailType := cfg.DetailEvidenceType
	if detailType == "" {
		detailType = r.kind.defaultDetailType
	}
	requireAsOf := requireAsOfMatch(cfg.RequireAsOfMatch)

	summary, ok := ctx.Evidence.First(summaryType)
	if !ok || summary.Amount == nil || !asOfMatches(summary, ctx.PeriodEnd, requireAsOf) {
		return b.Status(StatusNeedsReview).
			Summaryf("missing or stale %s evidence", summaryType).
			HumanActionf("obtain current %s evidence for %s", summaryType, id).
			Build()
	}
	detail, ok := ctx.Evidence.First(detailType)
	if !ok || detail.Amount == nil || !asOfMatches(detail, ctx.PeriodEnd, requireAsOf) {
		return b.Status(StatusNeedsReview).
			Summaryf("missing or stale %s evidence", detailType).
			HumanActionf("obtain current %s evidence for %s", detailType, id).
			Build()
	}
	b.Evidence(summary, detail)

	bsTotal := Quantize(total, places, quantized)
	summaryAmt := Quantize(*summary.Amount, places, quantized)
	detailAmt := Quantize(*detail.Amount, places, quantized)

	b.Detail(NewDetail("totals").
		Set("balance_sheet_total", bsTotal).
		Set("summary_total", summaryAmt).
		Set("detail_total", detailAmt))

	if bsTotal.Equal(summaryAmt) && bsTotal.Equal(detailAmt) {
		b.Status(StatusPass).Summary("subledger reconciles to the balance sheet")
		return b.Build()
	}
	b.Status(StatusFail).Summary("subledger does not reconcile to the balance sheet")
	b.HumanActionf("investigate the subledger tie-out discrepancy for %s", id)
	return b.Build()
}

// AgingOver60Config configures BS-AP-AR-ITEMS-OLDER-THAN-60-DAYS.
type AgingOver60Config struct {
	BaseConfig
	RequireAsOfMatch *bool `json:"require_evidence_as_of_date_match_period_end,omitempty"`
	AgeThresholdDays *int  `json:"age_threshold_days,omitempty" jsonschema_description:"Age in days, counted back from period end, beyond which an open item is flagged. Defaults to 60."`
}

type agingOver60Rule struct{}

// NewAgingOver60Rule returns the BS-AP-AR-ITEMS-OLDER-THAN-60-DAYS rule.
func NewAgingOver60Rule() Rule { return agingOver60Rule{} }

func (agingOver60Rule) ID() string    { return "BS-AP-AR-ITEMS-OLDER-THAN-60-DAYS" }
func (agingOver60Rule) Title() string { return "No AP/AR open items older than the age threshold" }
func (agingOver60Rule) BestPracticesReference() string {
	return "Month-end close checklist: aged AP/AR review"
}
func (agingOver60Rule) Sources() []string { return []string{"AP/AR aging reports"} }
func (agingOver60Rule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[AgingOver60Config]()
}

func (rl agingOver60Rule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[AgingOver60Config](id, ctx.ClientConfig.RawConfig(id))
	if err != nil {
		return ConfigInvalidResult(id, title, err)
	}
	if !cfg.IsEnabled() {
		return NotApplicableDisabled(id, title)
	}

	ageThreshold := 60
	if cfg.AgeThresholdDays != nil {
		ageThreshold = *cfg.AgeThresholdDays
	}
	requireAsOf := requireAsOfMatch(cfg.RequireAsOfMatch)
	thresholdDate := ctx.PeriodEnd.AddDate(0, 0, -ageThreshold)

	b := NewResultBuilder(id, title)

	required := []string{"ap_aging_summary_over_60", "ap_aging_detail_over_60", "ar_aging_summary_over_60", "ar_aging_detail_over_60"}
	items := map[string]EvidenceItem{}
	for _, t := range required {
		item, ok := ctx.Evidence.First(t)
		if !ok || !asOfMatches(item, ctx.PeriodEnd, requireAsOf) {
			return b.Status(StatusNeedsReview).
				Summaryf("missing or stale %s evidence", t).
				HumanActionf("obtain current AP/AR aging evidence for %s", id).
				Build()
		}
		items[t] = item
		b.Evidence(item)
	}

	overall := StatusPass
	for _, side := range []string{"ap", "ar"} {
		overSummary := items[side+"_aging_summary_over_60"]
		overDetail := items[side+"_aging_detail_over_60"]

		var flaggedItems []map[string]any
		for _, item := range metaItems(overDetail.Meta) {
			if isOverAgeThreshold(item, thresholdDate, ageThreshold) {
				flaggedItems = append(flaggedItems, item)
			}
		}
		if len(flaggedItems) > 0 {
			overall = Worst(overall, StatusNeedsReview)
			for _, item := range flaggedItems {
				b.Detail(NewDetail(side).
					Set("name", metaString(item, "name")).
					Set("amount", item["amount"]))
			}
		}

		summaryByName := sumAmountsByName(metaItems(overSummary.Meta))
		detailByName := sumAmountsByName(metaItems(overDetail.Meta))
		if !namedTotalsMatch(summaryByName, detailByName) {
			overall = Worst(overall, StatusNeedsReview)
			b.Detail(NewDetail(side + "_summary_detail_mismatch"))
		}
	}

	b.Status(overall)
	if overall == StatusPass {
		b.Summary("no AP/AR open items older than the age threshold")
		return b.Build()
	}
	b.Summary("aged AP/AR open items or a summary/detail discrepancy require review")
	b.HumanActionf("review the flagged aged AP/AR items for %s", id)
	return b.Build()
}

// isOverAgeThreshold reports whether an aging-detail item is older than the
// configured age threshold, preferring txn_date and falling back to
// age_bucket/days_past_due (spec.md §4.4.11).
func isOverAgeThreshold(item map[string]any, thresholdDate time.Time, ageThresholdDays int) bool {
	if txnDate, ok := parseFlexibleDate(metaString(item, "txn_date")); ok {
		return txnDate.Before(thresholdDate)
	}
	if days, ok := itemDecimal(item, "days_past_due"); ok {
		return days.GreaterThan(decimal.NewFromInt(int64(ageThresholdDays)))
	}
	switch metaString(item, "age_bucket") {
	case "61-90", "91-120", "120+", "over_90", "over_120":
		return true
	default:
		return false
	}
}

func sumAmountsByName(items []map[string]any) map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, item := range items {
		name := metaString(item, "name")
		amt, _ := itemDecimal(item, "amount")
		out[name] = out[name].Add(amt)
	}
	return out
}

func namedTotalsMatch(a, b map[string]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for name, amt := range a {
		other, ok := b[name]
		if !ok || !amt.Equal(other) {
			return false
		}
	}
	return true
}

// NegativeOpenItemsConfig configures BS-AP-AR-NEGATIVE-OPEN-ITEMS.
type NegativeOpenItemsConfig struct {
	BaseConfig
	MissingDataConfig
	RequireAsOfMatch *bool `json:"require_evidence_as_of_date_match_period_end,omitempty"`
}

type negativeOpenItemsRule struct{}

// NewNegativeOpenItemsRule returns the BS-AP-AR-NEGATIVE-OPEN-ITEMS rule.
func NewNegativeOpenItemsRule() Rule { return negativeOpenItemsRule{} }

func (negativeOpenItemsRule) ID() string    { return "BS-AP-AR-NEGATIVE-OPEN-ITEMS" }
func (negativeOpenItemsRule) Title() string { return "No negative open items in AP/AR aging detail" }
func (negativeOpenItemsRule) BestPracticesReference() string {
	return "Month-end close checklist: aged AP/AR review"
}
func (negativeOpenItemsRule) Sources() []string { return []string{"AP/AR aging reports"} }
func (negativeOpenItemsRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[NegativeOpenItemsConfig]()
}

func (rl negativeOpenItemsRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[NegativeOpenItemsConfig](id, ctx.ClientConfig.RawConfig(id))
	if err != nil {
		return ConfigInvalidResult(id, title, err)
	}
	if !cfg.IsEnabled() {
		return NotApplicableDisabled(id, title)
	}
	requireAsOf := requireAsOfMatch(cfg.RequireAsOfMatch)
	missingStatus := cfg.Resolve()

	b := NewResultBuilder(id, title)

	overall := StatusPass
	found := false
	for _, t := range []string{"ap_aging_detail_rows", "ar_aging_detail_rows"} {
		item, ok := ctx.Evidence.First(t)
		if !ok || !asOfMatches(item, ctx.PeriodEnd, requireAsOf) {
			overall = Worst(overall, missingStatus)
			b.Detail(NewDetail(t).Set("issue", "missing or stale evidence"))
			continue
		}
		found = true
		b.Evidence(item)
		for _, row := range metaItems(item.Meta) {
			ob, ok := itemDecimal(row, "open_balance")
			if ok && ob.IsNegative() {
				overall = Worst(overall, StatusNeedsReview)
				b.Detail(NewDetail(t).
					Set("name", metaString(row, "name")).
					Set("open_balance", row["open_balance"]))
			}
		}
	}
	if !found {
		b.Status(missingStatus).Summary("AP/AR aging detail rows evidence is missing")
		if missingStatus != StatusNotApplicable {
			b.HumanActionf("obtain current AP/AR aging detail rows evidence for %s", id)
		}
		return b.Build()
	}

	b.Status(overall)
	if overall == StatusPass {
		b.Summary("no negative open items in AP/AR aging detail")
		return b.Build()
	}
	b.Summary("negative open items found in AP/AR aging detail")
	b.HumanActionf("investigate the negative open items for %s", id)
	return b.Build()
}
