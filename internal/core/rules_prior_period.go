package core

import "github.com/invopop/jsonschema"

// PriorPeriodUnchangedConfig configures BS-BALANCE-UNCHANGED-PRIOR-MONTH.
type PriorPeriodUnchangedConfig struct {
	BaseConfig
	IncludeZeroBalances *bool `json:"include_zero_balances,omitempty" jsonschema_description:"Whether accounts that are zero in both periods are flagged. Defaults to false (zero balances are skipped)."`
}

type priorPeriodUnchangedRule struct{}

// NewPriorPeriodUnchangedRule returns the BS-BALANCE-UNCHANGED-PRIOR-MONTH rule.
func NewPriorPeriodUnchangedRule() Rule { return priorPeriodUnchangedRule{} }

func (priorPeriodUnchangedRule) ID() string    { return "BS-BALANCE-UNCHANGED-PRIOR-MONTH" }
func (priorPeriodUnchangedRule) Title() string { return "No account balance is unchanged from the prior month" }
func (priorPeriodUnchangedRule) BestPracticesReference() string {
	return "Month-end close checklist: stale balance detection"
}
func (priorPeriodUnchangedRule) Sources() []string { return []string{"QBO Balance Sheet", "Prior month balance sheet"} }
func (priorPeriodUnchangedRule) ConfigSchema() *jsonschema.Schema {
	return SchemaFor[PriorPeriodUnchangedConfig]()
}

func (rl priorPeriodUnchangedRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[PriorPeriodUnchangedConfig](id, ctx.ClientConfig.RawConfig(id))
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

	if ctx.PriorBalanceSheet == nil {
		return b.Status(StatusNotApplicable).Summary("no prior month balance sheet supplied").Build()
	}
	includeZero := cfg.IncludeZeroBalances != nil && *cfg.IncludeZeroBalances

	overall := StatusPass
	flaggedCount := 0
	for _, acct := range ctx.BalanceSheet.Leaves() {
		prior, ok := ctx.PriorBalanceSheet.ByRef(acct.AccountRef)
		if !ok {
			continue
		}
		current := Quantize(acct.Balance, places, quantized)
		priorQ := Quantize(prior.Balance, places, quantized)
		if !current.Equal(priorQ) {
			continue
		}
		if current.IsZero() && !includeZero {
			continue
		}
		flaggedCount++
		overall = StatusWarn
		b.Detail(NewDetail(acct.AccountRef).
			Set("name", acct.Name).
			Set("balance", current))
	}

	b.Status(overall)
	if overall == StatusPass {
		b.Summary("no account balances are unchanged from the prior month")
		return b.Build()
	}
	b.Summaryf("%d account balance(s) unchanged from the prior month", flaggedCount)
	b.HumanActionf("confirm the unchanged balances for %s are expected, not stale postings", id)
	return b.Build()
}
