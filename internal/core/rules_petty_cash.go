package core

import "github.com/invopop/jsonschema"

// PettyCashConfig configures BS-PETTY-CASH-MATCH.
type PettyCashConfig struct {
	BaseConfig
	AccountRef string `json:"account_ref" jsonschema_description:"The petty cash account's account_ref. Required."`
}

type pettyCashRule struct{}

// NewPettyCashRule returns the BS-PETTY-CASH-MATCH rule.
func NewPettyCashRule() Rule { return pettyCashRule{} }

func (pettyCashRule) ID() string                      { return "BS-PETTY-CASH-MATCH" }
func (pettyCashRule) Title() string                   { return "Petty cash balance matches supporting count" }
func (pettyCashRule) BestPracticesReference() string   { return "Month-end close checklist: petty cash reconciliation" }
func (pettyCashRule) Sources() []string                { return []string{"QBO Balance Sheet", "Petty cash support"} }
func (pettyCashRule) ConfigSchema() *jsonschema.Schema  { return SchemaFor[PettyCashConfig]() }

func (rl pettyCashRule) Evaluate(ctx RuleContext) RuleResult {
	id, title := rl.ID(), rl.Title()
	cfg, err := DecodeConfig[PettyCashConfig](id, ctx.ClientConfig.RawConfig(id))
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

	if cfg.AccountRef == "" {
		return ConfigInvalidResult(id, title, errMissingAccountRef)
	}
	acct, ok := ctx.BalanceSheet.ByRef(cfg.AccountRef)
	if !ok {
		return b.Status(StatusNotApplicable).Summary("configured petty cash account not present on the balance sheet").Build()
	}

	support, ok := ctx.Evidence.First("petty_cash_support")
	if !ok || support.Amount == nil {
		return b.Status(StatusNeedsReview).
			Summary("petty cash support evidence missing or lacks an amount").
			HumanActionf("obtain petty cash count support for %s", id).
			Build()
	}
	b.Evidence(support)

	bsBalance := Quantize(acct.Balance, places, quantized)
	supportAmount := Quantize(*support.Amount, places, quantized)
	diff := bsBalance.Sub(supportAmount).Abs()

	if diff.IsZero() {
		return b.Status(StatusPass).
			Detail(NewDetail(acct.AccountRef).Set("bs_balance", bsBalance).Set("support_amount", supportAmount)).
			Summary("petty cash balance matches the supporting count").
			Build()
	}

	return b.Status(StatusFail).
		Detail(NewDetail(acct.AccountRef).
			Set("bs_balance", bsBalance).
			Set("support_amount", supportAmount).
			Set("difference", diff)).
		Summaryf("petty cash balance differs from supporting count by %s", diff.String()).
		HumanActionf("reconcile the petty cash count against the books for %s", id).
		Build()
}
