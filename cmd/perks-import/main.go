package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"perks/internal/backend"
	"perks/internal/catalog"
	"perks/internal/config"
	"perks/internal/core"
	"perks/internal/log"
	"perks/internal/services"
	"perks/internal/statement"
)

func main() {
	_ = godotenv.Load()

	var (
		cardID = flag.String("card", "", "card id the statement belongs to")
		file   = flag.String("file", "", "path to the CSV statement export")
		dryRun = flag.Bool("dry-run", false, "classify and match without writing to the store")
	)
	flag.Parse()

	logger := log.New(log.Config{Level: slog.LevelWarn, Component: "perks-import"})
	log.SetDefault(logger)

	if *cardID == "" || *file == "" {
		fmt.Fprintln(os.Stderr, "usage: perks-import -card <card-id> -file <statement.csv> [-dry-run]")
		os.Exit(2)
	}

	if err := run(*cardID, *file, *dryRun, logger); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func run(cardID, file string, dryRun bool, logger *log.Logger) error {
	cat, err := catalog.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	card, err := cat.Card(cardID)
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open statement: %w", err)
	}
	defer f.Close()

	records, err := statement.Parse(f)
	if err != nil {
		return err
	}

	defs := cat.CardBenefits(card.ID)
	report, usage := services.ReconcileStatement(records, card, defs)
	printReport(card, len(records), report)

	if dryRun {
		color.Yellow("\ndry run: nothing written")
		return nil
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	store, cleanup, err := backend.Open(cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	if err := store.MergeUsage(ctx, usage); err != nil {
		return fmt.Errorf("merge usage: %w", err)
	}

	stored := make([]core.StoredTransaction, 0, len(report.Matched)+len(report.Unmatched))
	for _, m := range report.Matched {
		stored = append(stored, m.Transaction)
	}
	stored = append(stored, report.Unmatched...)
	if err := store.AppendCardTransactions(ctx, card.ID, stored); err != nil {
		return fmt.Errorf("append card transactions: %w", err)
	}

	color.Green("\nmerged %d matched credits into the store", report.TotalMatched)
	return nil
}

func printReport(card core.Card, totalRecords int, report core.MatchReport) {
	bold := color.New(color.Bold)
	bold.Printf("%s (%s): %d statement lines, %d credits\n\n",
		card.Name, card.ID, totalRecords, report.TotalMatched+report.TotalUnmatched)

	if len(report.Matched) > 0 {
		color.Green("matched (%d):", report.TotalMatched)
		for _, m := range report.Matched {
			periodNote := "flat"
			if m.PeriodID != "" {
				periodNote = m.PeriodID
			}
			fmt.Printf("  %s  %8s  %-40s -> %s [%s]\n",
				m.Transaction.Date, m.Transaction.Amount, truncate(m.Transaction.Description, 40),
				m.BenefitName, periodNote)
		}
	}

	if len(report.Unmatched) > 0 {
		color.Yellow("\nunmatched (%d):", report.TotalUnmatched)
		for _, tx := range report.Unmatched {
			fmt.Printf("  %s  %8s  %s\n", tx.Date, tx.Amount, truncate(tx.Description, 60))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
