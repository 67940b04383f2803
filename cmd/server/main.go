package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	webAdapter "ledger-core/internal/adapters/web"
	"ledger-core/internal/app"
	"ledger-core/internal/config"
	"ledger-core/internal/core"
	"ledger-core/internal/db"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
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
	handler := webAdapter.NewHandler(svc, logger)
	router := webAdapter.NewRouter(handler, logger, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
