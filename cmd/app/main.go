package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ledger-core/internal/app"
	"ledger-core/internal/config"
	"ledger-core/internal/core"
	"ledger-core/internal/db"
)

// Command line utility for operating a tenant's ledger without the HTTP
// server. The acting user comes from LEDGER_USER_ID.
func main() {
	cfg := config.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	accountRepo := db.NewAccountRepo(pool)
	journalRepo := db.NewJournalRepo(pool)
	statementRepo := db.NewStatementRepo(pool)
	roleRepo := db.NewRoleMappingRepo(pool)
	outboxRepo := db.NewOutboxRepo(pool)

	tenants := core.NewTenantResolver(roleRepo, logger)
	accounts := core.NewChartOfAccounts(accountRepo, logger)
	ledger := core.NewJournalLedger(journalRepo, accountRepo, logger)
	balances := core.NewBalanceEngine(journalRepo, accountRepo, logger)
	reports := core.NewReportGenerator(balances, accountRepo, journalRepo, statementRepo, logger)
	outbox := core.NewPostingOutbox(outboxRepo, ledger, logger)

	svc := app.NewService(tenants, accounts, ledger, balances, reports, outbox)

	userID, err := strconv.ParseInt(os.Getenv("LEDGER_USER_ID"), 10, 64)
	if err != nil || userID <= 0 {
		log.Fatal("LEDGER_USER_ID must be set to a positive integer")
	}

	if len(os.Args) < 2 {
		log.Fatal("Usage: app <seed|post|reverse|entries|balances|trial-balance|report|flush|retry>")
	}

	switch os.Args[1] {
	case "seed":
		created, err := svc.SeedAccounts(ctx, userID)
		if err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		fmt.Printf("Seeded %d accounts.\n", created)

	case "post":
		var req app.PostEntryRequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			log.Fatalf("Invalid JSON: %v", err)
		}
		entry, err := svc.PostEntry(ctx, userID, req)
		if err != nil {
			log.Fatalf("Post failed: %v", err)
		}
		printJSON(entry)

	case "reverse":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app reverse <entry-id> [reason]")
		}
		entryID, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("Invalid entry id: %v", err)
		}
		reason := ""
		if len(os.Args) > 3 {
			reason = os.Args[3]
		}
		entry, err := svc.ReverseEntry(ctx, userID, entryID, reason)
		if err != nil {
			log.Fatalf("Reverse failed: %v", err)
		}
		printJSON(entry)

	case "entries":
		result := svc.ListEntries(ctx, userID)
		if result.Degraded {
			fmt.Fprintln(os.Stderr, "warning: entry listing degraded, showing partial data")
		}
		printJSON(result.Data)

	case "balances":
		rows, err := svc.GetBalances(ctx, userID)
		if err != nil {
			log.Fatalf("Balances failed: %v", err)
		}
		for _, b := range rows {
			fmt.Printf("%-8s %-40s %12s\n", b.Code, b.Name, b.Balance.StringFixed(2))
		}

	case "trial-balance":
		tb, err := svc.GetTrialBalance(ctx, userID, time.Time{}, time.Now())
		if err != nil {
			log.Fatalf("Trial balance failed: %v", err)
		}
		for _, row := range tb.Rows {
			fmt.Printf("%-8s %-40s %12s %12s\n", row.Code, row.Name, row.TotalDebit.StringFixed(2), row.TotalCredit.StringFixed(2))
		}
		fmt.Printf("%-49s %12s %12s\n", "TOTAL", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))

	case "report":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app report <trial-balance|balance-sheet|income-statement|cash-flow>")
		}
		runReport(ctx, svc, userID, os.Args[2])

	case "flush":
		result, err := svc.FlushPostings(ctx, userID)
		if err != nil {
			log.Fatalf("Flush failed: %v", err)
		}
		fmt.Printf("Posted %d, failed %d.\n", result.Posted, result.Failed)

	case "retry":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app retry <posting-id>")
		}
		postingID, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("Invalid posting id: %v", err)
		}
		if err := svc.RetryPosting(ctx, userID, postingID); err != nil {
			log.Fatalf("Retry failed: %v", err)
		}
		fmt.Println("Posting re-queued.")

	default:
		log.Fatalf("Unknown command: %s", os.Args[1])
	}
}

func runReport(ctx context.Context, svc app.ApplicationService, userID int64, kind string) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var report any
	var err error
	switch kind {
	case "trial-balance":
		report, err = svc.GenerateTrialBalance(ctx, userID, now)
	case "balance-sheet":
		report, err = svc.GenerateBalanceSheet(ctx, userID, now)
	case "income-statement":
		report, err = svc.GenerateIncomeStatement(ctx, userID, monthStart, now)
	case "cash-flow":
		report, err = svc.GenerateCashFlowStatement(ctx, userID, monthStart, now)
	default:
		log.Fatalf("Unknown report: %s", kind)
	}
	if err != nil {
		log.Fatalf("Report failed: %v", err)
	}
	printJSON(report)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
