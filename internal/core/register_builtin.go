package core

// RegisterBuiltinRules registers the full built-in balance-sheet rule
// catalog into registry, in the fixed order the runner and catalog export
// both rely on (spec.md §9: "expose an explicit register_builtin_rules()
// entry point rather than relying on import side effects").
func RegisterBuiltinRules(registry *Registry) {
	registry.MustRegister("BS-BANK-RECONCILED-THROUGH-PERIOD-END", func() Rule { return NewBankReconciledRule() })
	registry.MustRegister("BS-UNCLEARED-ITEMS-INVESTIGATED-AND-FLAGGED", func() Rule { return NewUnclearedItemsRule() })
	registry.MustRegister("BS-UNDEPOSITED-FUNDS-ZERO", func() Rule { return NewUndepositedFundsRule() })
	registry.MustRegister("BS-CLEARING-ACCOUNTS-ZERO", func() Rule { return NewClearingAccountsRule() })
	registry.MustRegister("BS-CLEARING-ACCOUNTS-NON-SALES-ZERO", func() Rule { return NewClearingAccountsNonSalesRule() })
	registry.MustRegister("BS-PLOOTO-CLEARING-ZERO", func() Rule { return NewPlootoClearingRule() })
	registry.MustRegister("BS-PLOOTO-INSTANT-BALANCE-DISCLOSURE", func() Rule { return NewPlootoInstantRule() })
	registry.MustRegister("BS-PETTY-CASH-MATCH", func() Rule { return NewPettyCashRule() })
	registry.MustRegister("BS-AP-SUBLEDGER-RECONCILES", func() Rule { return NewAPSubledgerRule() })
	registry.MustRegister("BS-AR-SUBLEDGER-RECONCILES", func() Rule { return NewARSubledgerRule() })
	registry.MustRegister("BS-AP-AR-ITEMS-OLDER-THAN-60-DAYS", func() Rule { return NewAgingOver60Rule() })
	registry.MustRegister("BS-AP-AR-NEGATIVE-OPEN-ITEMS", func() Rule { return NewNegativeOpenItemsRule() })
	registry.MustRegister("BS-AP-AR-INTERCOMPANY-OR-SHAREHOLDER-PAID", func() Rule { return NewIntercompanyShareholderRule() })
	registry.MustRegister("BS-AP-AR-YEAR_END_BATCH_ADJUSTMENTS", func() Rule { return NewYearEndBatchAdjustmentsRule() })
	registry.MustRegister("BS-INTERCOMPANY-BALANCES-RECONCILE", func() Rule { return NewIntercompanyBalancesRule() })
	registry.MustRegister("BS-LOAN-BALANCE-MATCH", func() Rule { return NewLoanBalanceRule() })
	registry.MustRegister("BS-INVESTMENT-BALANCE-MATCH", func() Rule { return NewInvestmentBalanceRule() })
	registry.MustRegister("BS-WORKING-PAPER-RECONCILES", func() Rule { return NewWorkingPaperRule() })
	registry.MustRegister("BS-TAX-FILINGS-UP-TO-DATE", func() Rule { return NewTaxFilingsUpToDateRule() })
	registry.MustRegister("BS-TAX-PAYABLE-AND-SUSPENSE-RECONCILE-TO-RETURN", func() Rule { return NewTaxPayableReconcilesRule() })
	registry.MustRegister("BS-BALANCE-UNCHANGED-PRIOR-MONTH", func() Rule { return NewPriorPeriodUnchangedRule() })
}
