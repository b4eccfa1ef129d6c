package core

import (
	"github.com/invopop/jsonschema"
)

// BankReconciledConfig configures BS-BANK-RECONCILED-THROUGH-PERIOD-END.
type BankReconciledConfig struct {
	BaseConfig
	MissingDataConfig
	ExpectedAccounts                   []string `json:"expected_accounts,omitempty" jsonschema_description:"Explicit list of account_refs in scope. When set, overrides type/subtype inference entirely."`
	IncludeAccounts                    []string `json:"include_accounts,omitempty" jsonschema_description:"Account refs to add to the inferred scope."`
	ExcludeAccounts                    []string `json:"exclude_accounts,omitempty" jsonschema_description:"Account refs to remove from the inferred scope."`
	RequireStatementEndDateGtePeriodEnd *bool   `json:"require_statement_end_date_gte_period_end,omitempty" jsonschema_description:"Whether the latest reconciliation must cover through period end. Defaults to true."`
}

type bankReconciledRule struct{}

// NewBankReconciledRule returns the BS-BANK-RECONCILED-THROUGH-PERIOD-END rule.
func NewBankReconciledRule() Rule { return bankReconciledRule{} }

func (bankReconciledRule) ID() string { return "BS-BANK-RECONCILED-THROUGH-PERIOD-END" }
func (bankReconciledRule) Title() string {
	return "Bank and credit card accounts reconciled through period end"
}
func (bankReconciledRule) BestPracticesReference() string {
	return "Month-end close checklist: cash and bank reconciliations"
}
func (bankReconciledRule) Sources() []string {
	return []string{"QBO Balance Sheet", "Reconciliation reports", "Statement attachments"}
}
func (bankReconciledRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[BankReconciledConfig]()
}

func (rl bankReconciledRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[BankReconciledConfig](id, ctx.ClientConfig.RawConfig(id))
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

	requireCoverage := cfg.RequireStatementEndDateGtePeriodEnd == nil || *cfg.RequireStatementEndDateGtePeriodEnd
	missingStatus := cfg.Resolve()
	b := NewResultBuilder(id, title)

	var scope []AccountBalance
	if len(cfg.ExpectedAccounts) > 0 {
		missing := 0
		for _, ref := range cfg.ExpectedAccounts {
			if a, ok := ctx.BalanceSheet.ByRef(ref); ok {
				scope = append(scope, a)
				continue
			}
			missing++
		}
		if missing > 0 {
			return b.Status(StatusNeedsReview).
				Detail(NewDetail("scope_count").
					Set("expected_count", len(cfg.ExpectedAccounts)).
					Set("missing_count", missing)).
				Summary("one or more configured expected_accounts are missing from the balance sheet").
				HumanActionf("fix the expected_accounts list configured for %s", id).
				Build()
		}
	} else {
		if !hasAnyClassification(ctx.BalanceSheet) {
			return b.Status(StatusNeedsReview).
				Summary("cannot infer bank/credit card accounts: balance sheet rows carry no type/subtype").
				HumanAction("add account type/subtype to the balance sheet export, or configure expected_accounts explicitly").
				Build()
		}
		scope = filterByTypeSet(ctx.BalanceSheet.Leaves(), []string{"Bank", "Credit Card"})
	}
	scope = refineScope(ctx.BalanceSheet, scope, cfg.IncludeAccounts, cfg.ExcludeAccounts)

	if len(scope) == 0 {
		return b.Status(StatusNotApplicable).Summary("no bank or credit card accounts in scope").Build()
	}

	overall := StatusPass
	issues := 0
	for _, acct := range scope {
		status, detail, evidence := evaluateBankAccountReconciliation(ctx, acct, requireCoverage, missingStatus, places, quantized)
		b.Detail(detail)
		b.Evidence(evidence...)
		if status != StatusPass {
			issues++
		}
		overall = Worst(overall, status)
	}

	b.Status(overall)
	if overall == StatusPass {
		b.Summary("all in-scope bank/credit-card accounts reconciled through period end")
		return b.Build()
	}
	b.Summaryf("%d of %d in-scope accounts have unresolved reconciliation issues", issues, len(scope))
	b.HumanActionf("review the flagged accounts' statement and attachment tie-outs for %s", id)
	return b.Build()
}

func evaluateBankAccountReconciliation(ctx RuleContext, acct AccountBalance, requireCoverage bool, missingStatus Status, places int32, quantized bool) (Status, Detail, []EvidenceItem) {
	d := NewDetail(acct.AccountRef).Set("name", acct.Name)

	recon, ok := ctx.ReconciliationFor(acct.AccountRef)
	if !ok {
		d.Set("issue", "no reconciliation snapshot found")
		return missingStatus, d, nil
	}

	overall := StatusPass
	var usedEvidence []EvidenceItem

	coverageStatus := StatusPass
	if requireCoverage && recon.StatementEndDate.Before(ctx.PeriodEnd) {
		coverageStatus = StatusFail
	}
	d.Set("coverage", string(coverageStatus))
	d.Set("statement_end_date", recon.StatementEndDate.Format("2006-01-02"))
	overall = Worst(overall, coverageStatus)

	statementTieOut := StatusPass
	if !DecimalsEqual(recon.BookBalanceAsOfStatementEnd, recon.StatementEndingBalance, places, quantized) {
		statementTieOut = StatusFail
	}
	d.Set("statement_tie_out", string(statementTieOut))
	overall = Worst(overall, statementTieOut)

	attachmentStatus := missingStatus
	for _, item := range ctx.Evidence.All("statement_balance_attachment") {
		ref, _ := item.Meta["account_ref"].(string)
		if ref != acct.AccountRef {
			continue
		}
		usedEvidence = append(usedEvidence, item)
		if item.Amount == nil {
			attachmentStatus = missingStatus
			break
		}
		attachmentStatus = StatusPass
		if !DecimalsEqual(*item.Amount, recon.StatementEndingBalance, places, quantized) {
			attachmentStatus = StatusFail
		}
		if item.StatementEndDate != nil && !item.StatementEndDate.Equal(recon.StatementEndDate) {
			attachmentStatus = StatusFail
		}
		break
	}
	d.Set("attachment_tie_out", string(attachmentStatus))
	overall = Worst(overall, attachmentStatus)

	periodEndStatus := missingStatus
	if recon.BookBalanceAsOfPeriodEnd != nil {
		periodEndStatus = StatusPass
		if !DecimalsEqual(*recon.BookBalanceAsOfPeriodEnd, acct.Balance, places, quantized) {
			periodEndStatus = StatusFail
		}
	}
	d.Set("period_end_tie_out", string(periodEndStatus))
	overall = Worst(overall, periodEndStatus)

	return overall, d, usedEvidence
}

// UnclearedItemsConfig configures BS-UNCLEARED-ITEMS-INVESTIGATED-AND-FLAGGED.
type UnclearedItemsConfig struct {
	BaseConfig
	MissingDataConfig
	MonthsOldThreshold     *int   `json:"months_old_threshold,omitempty" jsonschema_description:"Calendar months before an uncleared item is considered stale. Defaults to 2."`
	StaleItemStatus        string `json:"stale_item_status,omitempty" jsonschema_description:"Status reported when stale items are found: WARN (default) or FAIL."`
	MaxFlaggedItemsInDetail *int  `json:"max_flagged_items_in_detail,omitempty" jsonschema_description:"Cap on how many flagged items appear in details[]. Defaults to 20."`
}

type unclearedItemsRule struct{}

// NewUnclearedItemsRule returns the BS-UNCLEARED-ITEMS-INVESTIGATED-AND-FLAGGED rule.
func NewUnclearedItemsRule() Rule { return unclearedItemsRule{} }

func (unclearedItemsRule) ID() string { return "BS-UNCLEARED-ITEMS-INVESTIGATED-AND-FLAGGED" }
func (unclearedItemsRule) Title() string {
	return "Uncleared reconciliation items investigated and flagged"
}
func (unclearedItemsRule) BestPracticesReference() string {
	return "Month-end close checklist: aged uncleared items on bank reconciliations"
}
func (unclearedItemsRule) Sources() []string { return []string{"Reconciliation reports"} }
func (unclearedItemsRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[UnclearedItemsConfig]()
}

func (rl unclearedItemsRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[UnclearedItemsConfig](id, ctx.ClientConfig.RawConfig(id))
	if err != nil {
		return ConfigInvalidResult(id, title, err)
	}
	if !cfg.IsEnabled() {
		return NotApplicableDisabled(id, title)
	}

	monthsOld := 2
	if cfg.MonthsOldThreshold != nil {
		monthsOld = *cfg.MonthsOldThreshold
	}
	staleStatus := StatusWarn
	if cfg.StaleItemStatus == string(StatusFail) {
		staleStatus = StatusFail
	}
	maxDetail := 20
	if cfg.MaxFlaggedItemsInDetail != nil {
		maxDetail = *cfg.MaxFlaggedItemsInDetail
	}
	missingStatus := cfg.Resolve()

	b := NewResultBuilder(id, title)

	refs := uniqueReconciledAccountRefs(ctx.Reconciliations)
	if len(refs) == 0 {
		return b.Status(StatusNotApplicable).Summary("no reconciliation snapshots supplied").Build()
	}

	overall := StatusPass
	totalFlagged := 0
	detailsEmitted := 0

	for _, ref := range refs {
		recon, _ := ctx.ReconciliationFor(ref)
		threshold := SubtractMonths(recon.StatementEndDate, monthsOld)
		items, hasSection := unclearedAsAtItems(recon.Meta)
		if !hasSection {
			continue
		}

		var flagged []map[string]any
		missingDate := false
		for _, item := range items {
			txnDate, ok := parseFlexibleDate(metaString(item, "txn_date"))
			if !ok {
				missingDate = true
				continue
			}
			if txnDate.Before(threshold) {
				flagged = append(flagged, item)
			}
		}

		if missingDate {
			overall = Worst(overall, missingStatus)
			b.Detail(NewDetail(ref).Set("issue", "uncleared item missing or unparseable txn_date"))
		}
		if len(flagged) > 0 {
			overall = Worst(overall, staleStatus)
			totalFlagged += len(flagged)
			for _, item := range flagged {
				if detailsEmitted >= maxDetail {
					break
				}
				b.Detail(NewDetail(ref).
					Set("description", metaString(item, "description")).
					Set("amount", item["amount"]).
					Set("txn_date", metaString(item, "txn_date")))
				detailsEmitted++
			}
		}
	}

	b.Status(overall)
	if overall == StatusPass {
		b.Summary("no uncleared items older than the configured threshold")
		return b.Build()
	}
	b.Summaryf("%d uncleared item(s) flagged as older than %d calendar month(s)", totalFlagged, monthsOld)
	b.HumanActionf("investigate the flagged uncleared items for %s and clear or explain them", id)
	return b.Build()
}

func uniqueReconciledAccountRefs(recs []ReconciliationSnapshot) []string {
	seen := map[string]bool{}
	var order []string
	for _, r := range recs {
		if !seen[r.AccountRef] {
			seen[r.AccountRef] = true
			order = append(order, r.AccountRef)
		}
	}
	return order
}

// unclearedAsAtItems reads the "as at" uncleared items from a
// reconciliation's Meta, accepting either the canonical nested shape
// (meta.uncleared_items.as_at) or the flat convenience key
// (meta.uncleared_items_as_at). The "after_date" section is never read
// (spec.md §4.4.2: "ignores the 'after date' section entirely").
func unclearedAsAtItems(meta map[string]any) ([]map[string]any, bool) {
	if meta == nil {
		return nil, false
	}
	if nested, ok := meta["uncleared_items"].(map[string]any); ok {
		if asAt, ok := nested["as_at"].([]any); ok {
			return toMapSlice(asAt), true
		}
	}
	if flat, ok := meta["uncleared_items_as_at"].([]any); ok {
		return toMapSlice(flat), true
	}
	return nil, false
}
