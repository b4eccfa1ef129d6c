package core

import (
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// ZeroBalanceConfig configures the family of rules that expect an interim
// account to net to zero, tolerating a configured variance (spec.md
// §4.4.3/§4.4.4).
type ZeroBalanceConfig struct {
	BaseConfig
	AccountRefs                []string         `json:"account_refs,omitempty" jsonschema_description:"Explicit accounts in scope. When empty, accounts are inferred by name substring."`
	NameSubstrings              []string         `json:"name_substrings,omitempty" jsonschema_description:"Substrings used to infer in-scope accounts by name. Defaults vary per rule."`
	CurrentAssetTypes           []string         `json:"current_asset_types,omitempty" jsonschema_description:"Account types an inferred clearing account must additionally carry. Defaults to Bank, Accounts Receivable, Other Current Asset, Cash and Cash Equivalents."`
	FloorAmount                 *decimal.Decimal `json:"floor_amount,omitempty" jsonschema_description:"Minimum allowed variance, regardless of revenue."`
	PctOfRevenue                *decimal.Decimal `json:"pct_of_revenue,omitempty" jsonschema_description:"Allowed variance as a fraction of P&L revenue, e.g. 0.001 for 0.1%."`
	UnconfiguredThresholdPolicy string           `json:"unconfigured_threshold_policy,omitempty" jsonschema_description:"Status to report when neither floor_amount nor pct_of_revenue is set: NEEDS_REVIEW (default) or NOT_APPLICABLE."`
}

func (c ZeroBalanceConfig) defaultCurrentAssetTypes() []string {
	if len(c.CurrentAssetTypes) > 0 {
		return c.CurrentAssetTypes
	}
	return []string{"Bank", "Accounts Receivable", "Other Current Asset", "Cash and Cash Equivalents"}
}

func (c ZeroBalanceConfig) unconfiguredThresholdStatus() Status {
	if c.UnconfiguredThresholdPolicy == string(StatusNotApplicable) {
		return StatusNotApplicable
	}
	return StatusNeedsReview
}

// scopeByRefsOrNameSubstrings resolves in-scope accounts: explicit refs take
// priority, else name-substring inference, preserving balance-sheet order.
func scopeByRefsOrNameSubstrings(bs BalanceSheetSnapshot, refs []string, needles []string) []AccountBalance {
	if len(refs) > 0 {
		refSet := make(map[string]bool, len(refs))
		for _, r := range refs {
			refSet[r] = true
		}
		var out []AccountBalance
		for _, a := range bs.Accounts {
			if refSet[a.AccountRef] {
				out = append(out, a)
			}
		}
		return out
	}
	return filterByNameSubstrings(bs.Leaves(), needles)
}

// evaluateZeroBalanceAccounts runs the shared zero-balance-with-tolerance
// logic used by undeposited-funds and clearing-account rules, returning the
// worst aggregate status and the per-account details.
func evaluateZeroBalanceAccounts(accounts []AccountBalance, revenue decimal.Decimal, haveRevenue bool, cfg ZeroBalanceConfig, places int32, quantized bool) (Status, []Detail) {
	overall := StatusPass
	var details []Detail
	hasThreshold := cfg.FloorAmount != nil || cfg.PctOfRevenue != nil

	for _, acct := range accounts {
		bal := Quantize(acct.Balance, places, quantized)
		d := NewDetail(acct.AccountRef).Set("name", acct.Name).Set("balance", bal)

		if bal.IsZero() {
			d.Set("status", string(StatusPass))
			details = append(details, d)
			continue
		}

		if !hasThreshold {
			status := cfg.unconfiguredThresholdStatus()
			d.Set("status", string(status)).Set("issue", "no variance threshold configured")
			details = append(details, d)
			overall = Worst(overall, status)
			continue
		}

		floor := decimal.Zero
		if cfg.FloorAmount != nil {
			floor = *cfg.FloorAmount
		}
		var revenueComponent *decimal.Decimal
		if haveRevenue {
			revenueComponent = &revenue
		}
		allowed := AllowedVariance(floor, zeroIfNil(revenueComponent), cfg.PctOfRevenue)

		status := StatusWarn
		if bal.Abs().GreaterThan(allowed) {
			status = StatusFail
		}
		d.Set("status", string(status)).Set("allowed_variance", allowed)
		details = append(details, d)
		overall = Worst(overall, status)
	}

	return overall, details
}

func zeroIfNil(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

type undepositedFundsRule struct{}

// NewUndepositedFundsRule returns the BS-UNDEPOSITED-FUNDS-ZERO rule.
func NewUndepositedFundsRule() Rule { return undepositedFundsRule{} }

func (undepositedFundsRule) ID() string       { return "BS-UNDEPOSITED-FUNDS-ZERO" }
func (undepositedFundsRule) Title() string    { return "Undeposited Funds is zero (or within tolerance)" }
func (undepositedFundsRule) BestPracticesReference() string {
	return "Month-end close checklist: undeposited funds cleared"
}
func (undepositedFundsRule) Sources() []string { return []string{"QBO Balance Sheet", "P&L"} }
func (undepositedFundsRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[ZeroBalanceConfig]()
}

func (rl undepositedFundsRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[ZeroBalanceConfig](id, ctx.ClientConfig.RawConfig(id))
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

	needles := cfg.NameSubstrings
	if len(needles) == 0 {
		needles = []string{"undeposited"}
	}
	accounts := scopeByRefsOrNameSubstrings(ctx.BalanceSheet, cfg.AccountRefs, needles)
	if len(accounts) == 0 {
		return NewResultBuilder(id, title).Status(StatusNotApplicable).Summary("no undeposited funds account found").Build()
	}

	revenue, haveRevenue := ctx.ProfitAndLoss.Revenue()
	overall, details := evaluateZeroBalanceAccounts(accounts, revenue, haveRevenue, cfg, places, quantized)

	b := NewResultBuilder(id, title).Status(overall)
	for _, d := range details {
		b.Detail(d)
	}
	if overall == StatusPass {
		b.Summary("undeposited funds is zero across all in-scope accounts")
		return b.Build()
	}
	b.Summary("undeposited funds has a non-zero balance outside tolerance")
	b.HumanActionf("investigate and clear the undeposited funds balance for %s", id)
	return b.Build()
}

// clearingAccountsRule backs both BS-CLEARING-ACCOUNTS-ZERO (4.4.4) and
// BS-CLEARING-ACCOUNTS-NON-SALES-ZERO (4.4.5), which share everything but
// the account-type filter direction.
type clearingAccountsRule struct {
	excludeCurrentAssetTypes bool
}

// NewClearingAccountsRule returns BS-CLEARING-ACCOUNTS-ZERO.
func NewClearingAccountsRule() Rule { return clearingAccountsRule{} }

// NewClearingAccountsNonSalesRule returns BS-CLEARING-ACCOUNTS-NON-SALES-ZERO.
func NewClearingAccountsNonSalesRule() Rule { return clearingAccountsRule{excludeCurrentAssetTypes: true} }

func (r clearingAccountsRule) ID() string {
	if r.excludeCurrentAssetTypes {
		return "BS-CLEARING-ACCOUNTS-NON-SALES-ZERO"
	}
	return "BS-CLEARING-ACCOUNTS-ZERO"
}

func (r clearingAccountsRule) Title() string {
	if r.excludeCurrentAssetTypes {
		return "Non-sales clearing accounts are zero"
	}
	return "Clearing accounts are zero (or within tolerance)"
}

func (clearingAccountsRule) BestPracticesReference() string {
	return "Month-end close checklist: clearing accounts cleared"
}
func (clearingAccountsRule) Sources() []string { return []string{"QBO Balance Sheet", "P&L"} }
func (clearingAccountsRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[ZeroBalanceConfig]()
}

func (rl clearingAccountsRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[ZeroBalanceConfig](id, ctx.ClientConfig.RawConfig(id))
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

	needles := cfg.NameSubstrings
	if len(needles) == 0 {
		needles = []string{"clearing"}
	}

	var accounts []AccountBalance
	if len(cfg.AccountRefs) > 0 {
		accounts = scopeByRefsOrNameSubstrings(ctx.BalanceSheet, cfg.AccountRefs, nil)
	} else {
		if !hasAnyClassification(ctx.BalanceSheet) {
			return NewResultBuilder(id, title).
				Status(StatusNeedsReview).
				Summary("cannot classify clearing accounts: balance sheet rows carry no type/subtype").
				HumanActionf("add account type/subtype to the balance sheet export, or configure account_refs explicitly for %s", id).
				Build()
		}
		matched := filterByNameSubstrings(ctx.BalanceSheet.Leaves(), needles)
		if rl.excludeCurrentAssetTypes {
			accounts = excludeByTypeSet(matched, cfg.defaultCurrentAssetTypes())
		} else {
			accounts = filterByTypeSet(matched, cfg.defaultCurrentAssetTypes())
		}
	}

	if len(accounts) == 0 {
		return NewResultBuilder(id, title).Status(StatusNotApplicable).Summary("no clearing accounts in scope").Build()
	}

	b := NewResultBuilder(id, title)

	if rl.excludeCurrentAssetTypes {
		overall := StatusPass
		for _, acct := range accounts {
			bal := Quantize(acct.Balance, places, quantized)
			d := NewDetail(acct.AccountRef).Set("name", acct.Name).Set("balance", bal)
			status := StatusPass
			if !bal.IsZero() {
				status = StatusFail
			}
			d.Set("status", string(status))
			b.Detail(d)
			overall = Worst(overall, status)
		}
		b.Status(overall)
		if overall == StatusPass {
			b.Summary("all non-sales clearing accounts are zero")
			return b.Build()
		}
		b.Summary("one or more non-sales clearing accounts carry a non-zero balance")
		b.HumanActionf("investigate the non-zero non-sales clearing accounts for %s", id)
		return b.Build()
	}

	revenue, haveRevenue := ctx.ProfitAndLoss.Revenue()
	overall, details := evaluateZeroBalanceAccounts(accounts, revenue, haveRevenue, cfg, places, quantized)
	for _, d := range details {
		b.Detail(d)
	}
	b.Status(overall)
	if overall == StatusPass {
		b.Summary("all clearing accounts are zero")
		return b.Build()
	}
	b.Summary("one or more clearing accounts are outside the allowed variance")
	b.HumanActionf("investigate the flagged clearing accounts for %s", id)
	return b.Build()
}

// plootoAccountConfig configures the Plooto-specific single-account rules.
type plootoAccountConfig struct {
	BaseConfig
	MissingDataConfig
	AccountRef    string `json:"account_ref,omitempty"`
	NameSubstring string `json:"name_substring,omitempty"`
}

func (c plootoAccountConfig) locate(bs BalanceSheetSnapshot, defaultNeedle string) []AccountBalance {
	if c.AccountRef != "" {
		if a, ok := bs.ByRef(c.AccountRef); ok {
			return []AccountBalance{a}
		}
		return nil
	}
	needle := c.NameSubstring
	if needle == "" {
		needle = defaultNeedle
	}
	return filterByNameSubstrings(bs.Leaves(), []string{needle})
}

type plootoClearingRule struct{}

// NewPlootoClearingRule returns the BS-PLOOTO-CLEARING-ZERO rule.
func NewPlootoClearingRule() Rule { return plootoClearingRule{} }

func (plootoClearingRule) ID() string                           { return "BS-PLOOTO-CLEARING-ZERO" }
func (plootoClearingRule) Title() string                        { return "Plooto Clearing account is zero" }
func (plootoClearingRule) BestPracticesReference() string        { return "Plooto payment reconciliation" }
func (plootoClearingRule) Sources() []string                    { return []string{"QBO Balance Sheet"} }
func (plootoClearingRule) ConfigSchema() *jsonschema.Schema      { return SchemaFor[plootoAccountConfig]() }

func (rl plootoClearingRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[plootoAccountConfig](id, ctx.ClientConfig.RawConfig(id))
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

	accounts := cfg.locate(ctx.BalanceSheet, "Plooto Clearing")
	if len(accounts) == 0 {
		return NewResultBuilder(id, title).Status(StatusNotApplicable).Summary("no Plooto Clearing account found").Build()
	}

	b := NewResultBuilder(id, title)
	overall := StatusPass
	for _, acct := range accounts {
		bal := Quantize(acct.Balance, places, quantized)
		status := StatusPass
		if !bal.IsZero() {
			status = StatusFail
		}
		b.Detail(NewDetail(acct.AccountRef).Set("name", acct.Name).Set("balance", bal).Set("status", string(status)))
		overall = Worst(overall, status)
	}
	b.Status(overall)
	if overall == StatusPass {
		b.Summary("Plooto Clearing is zero")
		return b.Build()
	}
	b.Summary("Plooto Clearing carries a non-zero balance")
	b.HumanActionf("investigate the non-zero Plooto Clearing balance for %s", id)
	return b.Build()
}

type plootoInstantRule struct{}

// NewPlootoInstantRule returns the BS-PLOOTO-INSTANT-BALANCE-DISCLOSURE rule.
func NewPlootoInstantRule() Rule { return plootoInstantRule{} }

func (plootoInstantRule) ID() string    { return "BS-PLOOTO-INSTANT-BALANCE-DISCLOSURE" }
func (plootoInstantRule) Title() string { return "Plooto Instant balance disclosed" }
func (plootoInstantRule) BestPracticesReference() string {
	return "Plooto payment reconciliation"
}
func (plootoInstantRule) Sources() []string { return []string{"QBO Balance Sheet"} }
func (plootoInstantRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[plootoAccountConfig]()
}

func (rl plootoInstantRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[plootoAccountConfig](id, ctx.ClientConfig.RawConfig(id))
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

	accounts := cfg.locate(ctx.BalanceSheet, "Plooto Instant")
	if len(accounts) == 0 {
		return NewResultBuilder(id, title).Status(cfg.Resolve()).Summary("no Plooto Instant account found").
			HumanActionf("confirm whether the client uses a Plooto Instant account for %s", id).Build()
	}

	b := NewResultBuilder(id, title)
	overall := StatusPass
	for _, acct := range accounts {
		bal := Quantize(acct.Balance, places, quantized)
		status := StatusPass
		if !bal.IsZero() {
			status = StatusWarn
		}
		b.Detail(NewDetail(acct.AccountRef).Set("name", acct.Name).Set("balance", bal).Set("status", string(status)))
		overall = Worst(overall, status)
	}
	b.Status(overall)
	if overall == StatusPass {
		b.Summary("Plooto Instant carries no balance to disclose")
		return b.Build()
	}
	b.Summary("Plooto Instant carries a balance requiring disclosure")
	b.HumanActionf("disclose the Plooto Instant balance in the review notes for %s", id)
	return b.Build()
}
