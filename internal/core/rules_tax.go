package core

import (
	"time"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// taxAgency is a decoded row of the tax_agencies evidence meta.items[].
type taxAgency struct {
	ID                string
	DisplayName       string
	LastFileDate      time.Time
	TaxTrackedOnSales bool
}

func decodeTaxAgencies(items []map[string]any) []taxAgency {
	out := make([]taxAgency, 0, len(items))
	for _, item := range items {
		tracked, _ := item["tax_tracked_on_sales"].(bool)
		lastFile, _ := parseFlexibleDate(metaString(item, "last_file_date"))
		out = append(out, taxAgency{
			ID:                metaString(item, "id"),
			DisplayName:       metaString(item, "display_name"),
			LastFileDate:      lastFile,
			TaxTrackedOnSales: tracked,
		})
	}
	return out
}

// taxReturn is a decoded row of the tax_returns evidence meta.items[].
type taxReturn struct {
	AgencyID        string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	FileDate        time.Time
	NetTaxAmountDue decimal.Decimal
}

func decodeTaxReturns(items []map[string]any) []taxReturn {
	out := make([]taxReturn, 0, len(items))
	for _, item := range items {
		start, _ := parseFlexibleDate(metaString(item, "start_date"))
		end, _ := parseFlexibleDate(metaString(item, "end_date"))
		file, _ := parseFlexibleDate(metaString(item, "file_date"))
		netDue, _ := itemDecimal(item, "net_tax_amount_due")
		out = append(out, taxReturn{
			AgencyID:        metaString(item, "agency_id"),
			PeriodStart:     start,
			PeriodEnd:       end,
			FileDate:        file,
			NetTaxAmountDue: netDue,
		})
	}
	return out
}

// latestFiledReturn returns the return for agencyID with the latest
// PeriodEnd among those that have been filed; returns without a FileDate
// are ignored.
func latestFiledReturn(returns []taxReturn, agencyID string) (taxReturn, bool) {
	var best taxReturn
	found := false
	for _, r := range returns {
		if r.AgencyID != agencyID || r.FileDate.IsZero() {
			continue
		}
		if !found || r.PeriodEnd.After(best.PeriodEnd) {
			best = r
			found = true
		}
	}
	return best, found
}

// TaxFilingsUpToDateConfig configures BS-TAX-FILINGS-UP-TO-DATE.
type TaxFilingsUpToDateConfig struct {
	BaseConfig
	ExcludeAgencyNamePatterns []string `json:"exclude_agency_name_patterns,omitempty" jsonschema_description:"Agency display_name substrings to exclude even if tax_tracked_on_sales is true. Defaults to [\"no tax agency\"]."`
	DelinquentStatus          string   `json:"delinquent_status,omitempty" jsonschema_description:"Status to report for a delinquent agency: FAIL (default) or WARN."`
}

type taxFilingsUpToDateRule struct{}

// NewTaxFilingsUpToDateRule returns the BS-TAX-FILINGS-UP-TO-DATE rule.
func NewTaxFilingsUpToDateRule() Rule { return taxFilingsUpToDateRule{} }

func (taxFilingsUpToDateRule) ID() string    { return "BS-TAX-FILINGS-UP-TO-DATE" }
func (taxFilingsUpToDateRule) Title() string { return "Sales tax filings are up to date" }
func (taxFilingsUpToDateRule) BestPracticesReference() string {
	return "Month-end close checklist: sales tax filing currency"
}
func (taxFilingsUpToDateRule) Sources() []string { return []string{"Tax agency records", "Tax filing history"} }
func (taxFilingsUpToDateRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[TaxFilingsUpToDateConfig]()
}

func (rl taxFilingsUpToDateRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[TaxFilingsUpToDateConfig](id, ctx.ClientConfig.RawConfig(id))
	if err != nil {
		return ConfigInvalidResult(id, title, err)
	}
	if !cfg.IsEnabled() {
		return NotApplicableDisabled(id, title)
	}
	excludePatterns := cfg.ExcludeAgencyNamePatterns
	if len(excludePatterns) == 0 {
		excludePatterns = []string{"no tax agency"}
	}
	delinquentStatus := StatusFail
	if cfg.DelinquentStatus == string(StatusWarn) {
		delinquentStatus = StatusWarn
	}

	b := NewResultBuilder(id, title)

	agenciesEvidence, ok := ctx.Evidence.First("tax_agencies")
	if !ok {
		return b.Status(StatusNeedsReview).Summary("tax_agencies evidence is missing").
			HumanActionf("obtain the tax agency list for %s", id).Build()
	}
	returnsEvidence, ok := ctx.Evidence.First("tax_returns")
	if !ok {
		return b.Status(StatusNeedsReview).Summary("tax_returns evidence is missing").
			HumanActionf("obtain tax filing history for %s", id).Build()
	}
	b.Evidence(agenciesEvidence, returnsEvidence)

	agencies := decodeTaxAgencies(metaItems(agenciesEvidence.Meta))
	returns := decodeTaxReturns(metaItems(returnsEvidence.Meta))

	var salesAgencies []taxAgency
	for _, a := range agencies {
		if !a.TaxTrackedOnSales {
			continue
		}
		if NameContainsAny(a.DisplayName, excludePatterns) {
			continue
		}
		salesAgencies = append(salesAgencies, a)
	}

	if len(salesAgencies) == 0 {
		return b.Status(StatusNotApplicable).Summary("no sales-tax-tracked agencies in scope").Build()
	}

	overall := StatusPass
	for _, agency := range salesAgencies {
		d := NewDetail(agency.ID).Set("agency", agency.DisplayName)

		latest, found := latestFiledReturn(returns, agency.ID)
		if !found {
			d.Set("issue", "no filed returns found")
			overall = Worst(overall, StatusNeedsReview)
			b.Detail(d)
			continue
		}

		cadence := InferCadence(latest.PeriodStart, latest.PeriodEnd)
		if cadence == CadenceUnknown {
			d.Set("issue", "filing cadence could not be inferred")
			overall = Worst(overall, StatusNeedsReview)
			b.Detail(d)
			continue
		}

		expected := ExpectedPeriodEnd(latest.PeriodEnd, ctx.PeriodEnd, cadence)
		d.Set("latest_filed_end", latest.PeriodEnd.Format("2006-01-02")).
			Set("expected_period_end", expected.Format("2006-01-02"))

		status := StatusPass
		if latest.PeriodEnd.Before(expected) {
			status = delinquentStatus
		}
		d.Set("status", string(status))
		overall = Worst(overall, status)
		b.Detail(d)
	}

	b.Status(overall)
	if overall == StatusPass {
		b.Summary("all in-scope sales tax agencies are filed up to date")
		return b.Build()
	}
	b.Summary("one or more sales tax agencies are delinquent or unresolved")
	b.HumanActionf("review the flagged tax agencies for %s", id)
	return b.Build()
}

// TaxPayableReconcilesConfig configures
// BS-TAX-PAYABLE-AND-SUSPENSE-RECONCILE-TO-RETURN.
type TaxPayableReconcilesConfig struct {
	BaseConfig
	MissingDataConfig
	AccountNamePatterns []string `json:"account_name_patterns,omitempty" jsonschema_description:"Substrings identifying payable/suspense accounts. Defaults to GST/HST/PST payable and suspense variants."`
	DelinquentStatus    string   `json:"delinquent_status,omitempty"`
	RefundGraceDays     *int     `json:"refund_grace_days,omitempty" jsonschema_description:"Days a refund position may sit before it's flagged. Defaults to 60."`
}

var defaultTaxPayableNamePatterns = []string{
	"GST Payable", "HST Payable", "PST Payable",
	"GST Suspense", "HST Suspense", "PST Suspense",
}

// agencyForAccountName maps an account name to an agency id by substring,
// per spec.md §4.4.20 ("GST, HST -> CRA; PST -> Finance").
func agencyForAccountName(name string) string {
	switch {
	case NameContains(name, "GST"), NameContains(name, "HST"):
		return "CRA"
	case NameContains(name, "PST"):
		return "Finance"
	default:
		return ""
	}
}

type taxPayableReconcilesRule struct{}

// NewTaxPayableReconcilesRule returns BS-TAX-PAYABLE-AND-SUSPENSE-RECONCILE-TO-RETURN.
func NewTaxPayableReconcilesRule() Rule { return taxPayableReconcilesRule{} }

func (taxPayableReconcilesRule) ID() string {
	return "BS-TAX-PAYABLE-AND-SUSPENSE-RECONCILE-TO-RETURN"
}
func (taxPayableReconcilesRule) Title() string {
	return "Tax payable and suspense balances reconcile to the filed return"
}
func (taxPayableReconcilesRule) BestPracticesReference() string {
	return "Month-end close checklist: sales tax balance tie-out"
}
func (taxPayableReconcilesRule) Sources() []string {
	return []string{"QBO Balance Sheet", "Tax filing history", "Tax payment history"}
}
func (taxPayableReconcilesRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[TaxPayableReconcilesConfig]()
}

func (rl taxPayableReconcilesRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[TaxPayableReconcilesConfig](id, ctx.ClientConfig.RawConfig(id))
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
	patterns := cfg.AccountNamePatterns
	if len(patterns) == 0 {
		patterns = defaultTaxPayableNamePatterns
	}
	delinquentStatus := StatusFail
	if cfg.DelinquentStatus == string(StatusWarn) {
		delinquentStatus = StatusWarn
	}
	refundGraceDays := 60
	if cfg.RefundGraceDays != nil {
		refundGraceDays = *cfg.RefundGraceDays
	}
	missingStatus := cfg.Resolve()

	b := NewResultBuilder(id, title)

	matched := filterByNameSubstrings(ctx.BalanceSheet.Leaves(), patterns)
	if len(matched) == 0 {
		return b.Status(StatusNotApplicable).Summary("no tax payable/suspense accounts found").Build()
	}

	returnsEvidence, ok := ctx.Evidence.First("tax_returns")
	if !ok {
		return b.Status(missingStatus).Summary("tax_returns evidence is missing").
			HumanActionf("obtain tax filing history for %s", id).Build()
	}
	paymentsEvidence, _ := ctx.Evidence.First("tax_payments")
	b.Evidence(returnsEvidence)
	if paymentsEvidence.EvidenceType != "" {
		b.Evidence(paymentsEvidence)
	}
	returns := decodeTaxReturns(metaItems(returnsEvidence.Meta))
	payments := metaItems(paymentsEvidence.Meta)

	byAgency := map[string][]AccountBalance{}
	var agencyOrder []string
	for _, acct := range matched {
		agency := agencyForAccountName(acct.Name)
		if agency == "" {
			continue
		}
		if _, seen := byAgency[agency]; !seen {
			agencyOrder = append(agencyOrder, agency)
		}
		byAgency[agency] = append(byAgency[agency], acct)
	}
	if len(byAgency) == 0 {
		return b.Status(missingStatus).Summary("matched accounts could not be mapped to a tax agency").
			HumanActionf("map the tax payable/suspense accounts to a tax agency for %s", id).Build()
	}

	overall := StatusPass
	for _, agencyID := range agencyOrder {
		accounts := byAgency[agencyID]
		combined := decimal.Zero
		for _, a := range accounts {
			combined = combined.Add(a.Balance)
		}
		combined = Quantize(combined, places, quantized)

		latest, found := latestFiledReturn(returns, agencyID)
		if !found {
			overall = Worst(overall, missingStatus)
			b.Detail(NewDetail(agencyID).Set("combined_balance", combined).Set("issue", "no filed return found"))
			continue
		}
		cadence := InferCadence(latest.PeriodStart, latest.PeriodEnd)
		if cadence == CadenceUnknown {
			overall = Worst(overall, StatusNeedsReview)
			b.Detail(NewDetail(agencyID).Set("combined_balance", combined).Set("issue", "filing cadence could not be inferred"))
			continue
		}
		expectedPeriodEnd := ExpectedPeriodEnd(latest.PeriodEnd, ctx.PeriodEnd, cadence)
		target := latest
		if latest.PeriodEnd.Before(expectedPeriodEnd) {
			if r, ok := findReturnForPeriodEnd(returns, agencyID, expectedPeriodEnd); ok {
				target = r
			}
		}

		paid := decimal.Zero
		for _, p := range payments {
			if metaString(p, "agency_id") != agencyID {
				continue
			}
			payDate, ok := parseFlexibleDate(metaString(p, "payment_date"))
			if !ok || payDate.After(ctx.PeriodEnd) {
				continue
			}
			amt, _ := itemDecimal(p, "payment_amount")
			paid = paid.Add(amt)
		}

		expectedTotal := Quantize(target.NetTaxAmountDue.Sub(paid), places, quantized)

		d := NewDetail(agencyID).
			Set("combined_balance", combined).
			Set("expected_total", expectedTotal)

		matches := combined.Equal(expectedTotal)
		isAgedRefund := expectedTotal.IsNegative() &&
			target.FileDate.Add(time.Duration(refundGraceDays)*24*time.Hour).Before(ctx.PeriodEnd)

		var status Status
		switch {
		case matches && isAgedRefund:
			status = StatusWarn
			d.Set("note", "refund position aged beyond refund_grace_days")
		case matches:
			status = StatusPass
		case expectedTotal.IsNegative():
			status = StatusWarn
			d.Set("note", "refund position; balance does not yet match the return")
		default:
			status = delinquentStatus
		}
		d.Set("status", string(status))
		overall = Worst(overall, status)
		b.Detail(d)
	}

	b.Status(overall)
	if overall == StatusPass {
		b.Summary("tax payable and suspense balances reconcile to the filed return")
		return b.Build()
	}
	b.Summary("one or more tax agencies have an unreconciled payable/suspense balance")
	b.HumanActionf("investigate the flagged tax agency balances for %s", id)
	return b.Build()
}

func findReturnForPeriodEnd(returns []taxReturn, agencyID string, periodEnd time.Time) (taxReturn, bool) {
	for _, r := range returns {
		if r.AgencyID == agencyID && r.PeriodEnd.Equal(periodEnd) {
			return r, true
		}
	}
	return taxReturn{}, false
}
