package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mer-review-engine/internal/core"
)

func main() {
	_ = godotenv.Load()

	periodEnd := flag.String("period-end", "", "review period end, YYYY-MM-DD (required)")
	bsPath := flag.String("balance-sheet", "", "path to the balance sheet snapshot JSON (required)")
	priorBSPath := flag.String("prior-balance-sheet", "", "path to the prior month balance sheet snapshot JSON")
	plPath := flag.String("pl", "", "path to the P&L snapshot JSON")
	evidencePath := flag.String("evidence", "", "path to the evidence bundle JSON")
	reconPath := flag.String("reconciliations", "", "path to the reconciliation snapshots JSON")
	configPath := flag.String("config", "", "path to the client rules config JSON")
	format := flag.String("format", "table", "output format: table or json")
	flag.Parse()

	if *periodEnd == "" || *bsPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: app -period-end YYYY-MM-DD -balance-sheet bs.json [-pl pl.json] [-evidence evidence.json] [-reconciliations recon.json] [-config config.json] [-prior-balance-sheet prior.json] [-format table|json]")
		os.Exit(2)
	}

	ctx, err := loadContext(*periodEnd, *bsPath, *priorBSPath, *plPath, *evidencePath, *reconPath, *configPath)
	if err != nil {
		log.Fatalf("Failed to load review context: %v", err)
	}

	registry := core.NewRegistry()
	core.RegisterBuiltinRules(registry)
	runner := core.NewRunner(registry)

	report := runner.Run(ctx)

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("Failed to encode report: %v", err)
		}
	default:
		printReport(report)
	}
}

func loadContext(periodEndRaw, bsPath, priorBSPath, plPath, evidencePath, reconPath, configPath string) (core.RuleContext, error) {
	periodEnd, err := time.Parse("2006-01-02", periodEndRaw)
	if err != nil {
		return core.RuleContext{}, fmt.Errorf("invalid -period-end %q: %w", periodEndRaw, err)
	}

	var bs core.BalanceSheetSnapshot
	if err := decodeJSONFile(bsPath, &bs); err != nil {
		return core.RuleContext{}, fmt.Errorf("balance sheet: %w", err)
	}

	var priorBS *core.BalanceSheetSnapshot
	if priorBSPath != "" {
		var p core.BalanceSheetSnapshot
		if err := decodeJSONFile(priorBSPath, &p); err != nil {
			return core.RuleContext{}, fmt.Errorf("prior balance sheet: %w", err)
		}
		priorBS = &p
	}

	var pl *core.ProfitAndLossSnapshot
	if plPath != "" {
		var p core.ProfitAndLossSnapshot
		if err := decodeJSONFile(plPath, &p); err != nil {
			return core.RuleContext{}, fmt.Errorf("P&L: %w", err)
		}
		pl = &p
	}

	var evidence core.EvidenceBundle
	if evidencePath != "" {
		if err := decodeJSONFile(evidencePath, &evidence); err != nil {
			return core.RuleContext{}, fmt.Errorf("evidence: %w", err)
		}
	}

	var recons []core.ReconciliationSnapshot
	if reconPath != "" {
		if err := decodeJSONFile(reconPath, &recons); err != nil {
			return core.RuleContext{}, fmt.Errorf("reconciliations: %w", err)
		}
	}

	var clientConfig core.ClientRulesConfig
	if configPath != "" {
		if err := decodeJSONFile(configPath, &clientConfig); err != nil {
			return core.RuleContext{}, fmt.Errorf("client config: %w", err)
		}
	}

	return core.RuleContext{
		PeriodEnd:         periodEnd,
		BalanceSheet:      bs,
		PriorBalanceSheet: priorBS,
		ProfitAndLoss:     pl,
		Evidence:          evidence,
		Reconciliations:   recons,
		ClientConfig:      clientConfig,
	}, nil
}

func decodeJSONFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	return dec.Decode(v)
}

func printReport(report core.RuleRunReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 78))
	fmt.Printf("  MONTH-END REVIEW — run %s\n", report.RunID)
	fmt.Println(strings.Repeat("=", 78))
	fmt.Printf("  %-50s %-14s %s\n", "RULE", "STATUS", "SEVERITY")
	fmt.Println(strings.Repeat("-", 78))
	for _, r := range report.Results {
		fmt.Printf("  %-50s %-14s %s\n", r.RuleID, r.Status, r.Severity)
		if r.Summary != "" {
			fmt.Printf("    %s\n", r.Summary)
		}
		if r.HumanAction != "" {
			fmt.Printf("    action: %s\n", r.HumanAction)
		}
	}
	fmt.Println(strings.Repeat("-", 78))
	fmt.Printf("  %s\n", core.ExplainTotals(report.Totals))
	fmt.Println(strings.Repeat("=", 78))
}
