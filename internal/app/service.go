package app

import (
	"context"
	"time"

	"ledger-core/internal/core"
)

// ApplicationService is the single interface all adapters (HTTP, CLI) call.
// It decouples presentation from business logic; implementations contain
// no display logic of any kind. Every method takes the authenticated user
// id and resolves it to the owning tenant before touching the ledger.
type ApplicationService interface {
	// ResolveTenant maps a user id to its owning tenant id. Never fails.
	ResolveTenant(ctx context.Context, userID int64) int64

	// ListAccounts returns the tenant's chart of accounts ordered by code.
	ListAccounts(ctx context.Context, userID int64) ([]core.Account, error)

	// CreateAccount creates an account after type normalization.
	CreateAccount(ctx context.Context, userID int64, input core.AccountInput) (*core.Account, error)

	// UpdateAccount replaces an account's editable fields.
	UpdateAccount(ctx context.Context, userID, accountID int64, input core.AccountInput) (*core.Account, error)

	// DeleteAccount removes an unreferenced account; a referenced one
	// fails with a core.RelationError.
	DeleteAccount(ctx context.Context, userID, accountID int64) error

	// SeedAccounts bulk-inserts the template chart, skipping existing codes.
	SeedAccounts(ctx context.Context, userID int64) (int, error)

	// PostEntry validates and posts a balanced journal entry.
	PostEntry(ctx context.Context, userID int64, req PostEntryRequest) (*core.JournalEntry, error)

	// ListEntries lists the tenant's entries newest first. The result
	// carries a Degraded flag when the read fell back to empty.
	ListEntries(ctx context.Context, userID int64) core.ReadResult[[]core.JournalEntry]

	// ReverseEntry posts a compensating entry and marks the original reversed.
	ReverseEntry(ctx context.Context, userID, entryID int64, reason string) (*core.JournalEntry, error)

	// GetBalances returns per-account balances signed by normal balance.
	GetBalances(ctx context.Context, userID int64) ([]core.AccountBalance, error)

	// GetAccountBalance returns one account's type-signed balance as of a date.
	GetAccountBalance(ctx context.Context, userID, accountID int64, asOf time.Time) (*AccountBalanceResult, error)

	// GetTrialBalance returns the per-account debit/credit sums for a range.
	GetTrialBalance(ctx context.Context, userID int64, from, to time.Time) (*core.TrialBalance, error)

	// Report generation. Each call appends an immutable snapshot.
	GenerateTrialBalance(ctx context.Context, userID int64, asOf time.Time) (*core.TrialBalanceReport, error)
	GenerateBalanceSheet(ctx context.Context, userID int64, asOf time.Time) (*core.BalanceSheetReport, error)
	GenerateIncomeStatement(ctx context.Context, userID int64, from, to time.Time) (*core.IncomeStatementReport, error)
	GenerateCashFlowStatement(ctx context.Context, userID int64, from, to time.Time) (*core.CashFlowReport, error)
	ListStatements(ctx context.Context, userID int64) ([]core.FinancialStatement, error)

	// EnqueuePosting records a producer posting for a later flush.
	EnqueuePosting(ctx context.Context, userID int64, source string, req PostEntryRequest) (*core.PendingPosting, error)

	// FlushPostings posts all pending producer postings for the tenant.
	FlushPostings(ctx context.Context, userID int64) (core.FlushResult, error)

	// RetryPosting re-queues a failed producer posting for the next flush.
	RetryPosting(ctx context.Context, userID, postingID int64) error
}

// Service wires the core services behind ApplicationService.
type Service struct {
	tenants  *core.TenantResolver
	accounts *core.ChartOfAccounts
	ledger   *core.JournalLedger
	balances *core.BalanceEngine
	reports  *core.ReportGenerator
	outbox   *core.PostingOutbox
}

func NewService(
	tenants *core.TenantResolver,
	accounts *core.ChartOfAccounts,
	ledger *core.JournalLedger,
	balances *core.BalanceEngine,
	reports *core.ReportGenerator,
	outbox *core.PostingOutbox,
) *Service {
	return &Service{
		tenants:  tenants,
		accounts: accounts,
		ledger:   ledger,
		balances: balances,
		reports:  reports,
		outbox:   outbox,
	}
}

func (s *Service) ResolveTenant(ctx context.Context, userID int64) int64 {
	return s.tenants.Resolve(ctx, userID)
}

func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.accounts.GetAll(ctx, s.tenants.Resolve(ctx, userID))
}

func (s *Service) CreateAccount(ctx context.Context, userID int64, input core.AccountInput) (*core.Account, error) {
	return s.accounts.Create(ctx, s.tenants.Resolve(ctx, userID), input)
}

func (s *Service) UpdateAccount(ctx context.Context, userID, accountID int64, input core.AccountInput) (*core.Account, error) {
	return s.accounts.Update(ctx, s.tenants.Resolve(ctx, userID), accountID, input)
}

func (s *Service) DeleteAccount(ctx context.Context, userID, accountID int64) error {
	tenantID := s.tenants.Resolve(ctx, userID)
	// Ownership check before the relation check, so a foreign account id
	// reads as not-found rather than leaking its relation state.
	accounts, err := s.accounts.GetAll(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a.ID == accountID {
			return s.accounts.Delete(ctx, accountID)
		}
	}
	return &core.AccountNotFoundError{TenantID: tenantID, AccountID: accountID}
}

func (s *Service) SeedAccounts(ctx context.Context, userID int64) (int, error) {
	return s.accounts.SeedFromTemplate(ctx, s.tenants.Resolve(ctx, userID))
}

func (s *Service) PostEntry(ctx context.Context, userID int64, req PostEntryRequest) (*core.JournalEntry, error) {
	tenantID := s.tenants.Resolve(ctx, userID)
	header, lines, err := req.toInputs(ctx, tenantID, s.accounts)
	if err != nil {
		return nil, err
	}
	return s.ledger.PostEntry(ctx, tenantID, header, lines)
}

func (s *Service) ListEntries(ctx context.Context, userID int64) core.ReadResult[[]core.JournalEntry] {
	return s.ledger.GetEntries(ctx, s.tenants.Resolve(ctx, userID))
}

func (s *Service) ReverseEntry(ctx context.Context, userID, entryID int64, reason string) (*core.JournalEntry, error) {
	return s.ledger.Reverse(ctx, s.tenants.Resolve(ctx, userID), entryID, reason)
}

func (s *Service) GetBalances(ctx context.Context, userID int64) ([]core.AccountBalance, error) {
	return s.balances.GetBalances(ctx, s.tenants.Resolve(ctx, userID))
}

func (s *Service) GetAccountBalance(ctx context.Context, userID, accountID int64, asOf time.Time) (*AccountBalanceResult, error) {
	tenantID := s.tenants.Resolve(ctx, userID)
	balance, err := s.balances.GetAccountBalance(ctx, tenantID, accountID, asOf)
	if err != nil {
		return nil, err
	}
	return &AccountBalanceResult{AccountID: accountID, AsOf: asOf, Balance: balance}, nil
}

func (s *Service) GetTrialBalance(ctx context.Context, userID int64, from, to time.Time) (*core.TrialBalance, error) {
	return s.balances.GetTrialBalance(ctx, s.tenants.Resolve(ctx, userID), from, to)
}

func (s *Service) GenerateTrialBalance(ctx context.Context, userID int64, asOf time.Time) (*core.TrialBalanceReport, error) {
	return s.reports.GenerateTrialBalance(ctx, s.tenants.Resolve(ctx, userID), asOf)
}

func (s *Service) GenerateBalanceSheet(ctx context.Context, userID int64, asOf time.Time) (*core.BalanceSheetReport, error) {
	return s.reports.GenerateBalanceSheet(ctx, s.tenants.Resolve(ctx, userID), asOf)
}

func (s *Service) GenerateIncomeStatement(ctx context.Context, userID int64, from, to time.Time) (*core.IncomeStatementReport, error) {
	return s.reports.GenerateIncomeStatement(ctx, s.tenants.Resolve(ctx, userID), from, to)
}

func (s *Service) GenerateCashFlowStatement(ctx context.Context, userID int64, from, to time.Time) (*core.CashFlowReport, error) {
	return s.reports.GenerateCashFlowStatement(ctx, s.tenants.Resolve(ctx, userID), from, to)
}

func (s *Service) ListStatements(ctx context.Context, userID int64) ([]core.FinancialStatement, error) {
	return s.reports.ListSnapshots(ctx, s.tenants.Resolve(ctx, userID))
}

func (s *Service) EnqueuePosting(ctx context.Context, userID int64, source string, req PostEntryRequest) (*core.PendingPosting, error) {
	tenantID := s.tenants.Resolve(ctx, userID)
	header, lines, err := req.toInputs(ctx, tenantID, s.accounts)
	if err != nil {
		return nil, err
	}
	return s.outbox.Enqueue(ctx, tenantID, source, header, lines)
}

func (s *Service) FlushPostings(ctx context.Context, userID int64) (core.FlushResult, error) {
	return s.outbox.Flush(ctx, s.tenants.Resolve(ctx, userID))
}

func (s *Service) RetryPosting(ctx context.Context, userID, postingID int64) error {
	return s.outbox.Retry(ctx, s.tenants.Resolve(ctx, userID), postingID)
}
