package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatementRepository persists immutable report snapshots.
type StatementRepository interface {
	// Append inserts a new snapshot row. Snapshots are never updated.
	Append(ctx context.Context, s *FinancialStatement) (*FinancialStatement, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]FinancialStatement, error)
}

// ReportLine is one account presented on a financial statement.
type ReportLine struct {
	AccountID int64           `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

// TrialBalanceReport wraps the engine's trial balance with the balanced
// flag callers check.
type TrialBalanceReport struct {
	TenantID    int64             `json:"tenant_id"`
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	IsBalanced  bool              `json:"is_balanced"`
	Degraded    bool              `json:"degraded,omitempty"`
}

// BalanceSheetReport groups account balances into assets, liabilities and
// equity as of a date. Section totals are computed from signed balances so
// contra-accounts net correctly; individual lines are shown as absolute
// values. Assets = Liabilities + Equity is not asserted here — callers
// verify it.
type BalanceSheetReport struct {
	TenantID         int64           `json:"tenant_id"`
	AsOf             time.Time       `json:"as_of"`
	Assets           []ReportLine    `json:"assets"`
	Liabilities      []ReportLine    `json:"liabilities"`
	Equity           []ReportLine    `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	Degraded         bool            `json:"degraded,omitempty"`
}

// IncomeStatementReport covers a date range. Income lines keep their sign
// (contra-revenue nets against income); cost and expense lines are shown
// absolute.
type IncomeStatementReport struct {
	TenantID      int64           `json:"tenant_id"`
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Income        []ReportLine    `json:"income"`
	Costs         []ReportLine    `json:"costs"`
	Expenses      []ReportLine    `json:"expenses"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalCosts    decimal.Decimal `json:"total_costs"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
	Degraded      bool            `json:"degraded,omitempty"`
}

// CashFlowLine is one cash movement classified into a statement section.
// Amount is signed: positive for cash in, negative for cash out.
type CashFlowLine struct {
	EntryID     int64           `json:"entry_id"`
	EntryNumber string          `json:"entry_number"`
	EntryDate   time.Time       `json:"entry_date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type CashFlowReport struct {
	TenantID       int64           `json:"tenant_id"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	Operating      []CashFlowLine  `json:"operating"`
	Investing      []CashFlowLine  `json:"investing"`
	Financing      []CashFlowLine  `json:"financing"`
	TotalOperating decimal.Decimal `json:"total_operating"`
	TotalInvesting decimal.Decimal `json:"total_investing"`
	TotalFinancing decimal.Decimal `json:"total_financing"`
	NetCashFlow    decimal.Decimal `json:"net_cash_flow"`
	Degraded       bool            `json:"degraded,omitempty"`
}

// balancedTolerance is the rounding slack allowed before a trial balance
// is reported out of balance.
var balancedTolerance = decimal.RequireFromString("0.01")

// ReportGenerator derives financial statements from the chart of accounts
// and the balance engine, and appends an immutable snapshot per run.
type ReportGenerator struct {
	engine     *BalanceEngine
	accounts   AccountRepository
	entries    JournalRepository
	statements StatementRepository
	log        *zap.Logger
}

func NewReportGenerator(engine *BalanceEngine, accounts AccountRepository, entries JournalRepository, statements StatementRepository, log *zap.Logger) *ReportGenerator {
	return &ReportGenerator{
		engine:     engine,
		accounts:   accounts,
		entries:    entries,
		statements: statements,
		log:        log,
	}
}

// snapshot appends a FinancialStatement row for a generated report. A
// failed append does not fail the report: derivation is a read, persistence
// is best effort, but the caller sees the Degraded flag.
func (g *ReportGenerator) snapshot(ctx context.Context, tenantID int64, typ StatementType, period string, from, to *time.Time, totals map[string]decimal.Decimal) bool {
	_, err := g.statements.Append(ctx, &FinancialStatement{
		TenantID: tenantID,
		Type:     typ,
		Period:   period,
		FromDate: from,
		ToDate:   to,
		Totals:   totals,
		Status:   "final",
	})
	if err != nil {
		g.log.Warn("report snapshot persist failed",
			zap.Int64("tenant_id", tenantID), zap.String("type", string(typ)), zap.Error(err))
		return true
	}
	return false
}

// ListSnapshots returns a tenant's persisted statements, newest first.
func (g *ReportGenerator) ListSnapshots(ctx context.Context, tenantID int64) ([]FinancialStatement, error) {
	statements, err := g.statements.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	return statements, nil
}

func (g *ReportGenerator) GenerateTrialBalance(ctx context.Context, tenantID int64, asOf time.Time) (*TrialBalanceReport, error) {
	tb, err := g.engine.GetTrialBalance(ctx, tenantID, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}
	report := &TrialBalanceReport{
		TenantID:    tenantID,
		AsOf:        asOf,
		Rows:        tb.Rows,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		IsBalanced:  tb.TotalDebit.Sub(tb.TotalCredit).Abs().LessThan(balancedTolerance),
	}
	report.Degraded = g.snapshot(ctx, tenantID, StatementTrialBalance, asOf.Format("2006-01"), nil, &asOf,
		map[string]decimal.Decimal{
			"total_debit":  report.TotalDebit,
			"total_credit": report.TotalCredit,
		})
	return report, nil
}

func (g *ReportGenerator) GenerateBalanceSheet(ctx context.Context, tenantID int64, asOf time.Time) (*BalanceSheetReport, error) {
	accounts, err := g.accounts.GetAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	activity, err := g.entries.Activity(ctx, tenantID, ActivityFilter{To: asOf})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate balance sheet: %w", err)
	}
	sums := make(map[int64]AccountActivity, len(activity))
	for _, a := range activity {
		sums[a.AccountID] = a
	}

	report := &BalanceSheetReport{TenantID: tenantID, AsOf: asOf}
	for _, account := range accounts {
		if !account.IsActive {
			continue
		}
		sum := sums[account.ID]
		switch account.Type {
		case Asset:
			signed := sum.Debit.Sub(sum.Credit)
			report.Assets = append(report.Assets, ReportLine{
				AccountID: account.ID, Code: account.Code, Name: account.Name, Balance: signed.Abs(),
			})
			report.TotalAssets = report.TotalAssets.Add(signed)
		case Liability:
			signed := sum.Credit.Sub(sum.Debit)
			report.Liabilities = append(report.Liabilities, ReportLine{
				AccountID: account.ID, Code: account.Code, Name: account.Name, Balance: signed.Abs(),
			})
			report.TotalLiabilities = report.TotalLiabilities.Add(signed)
		case Equity:
			signed := sum.Credit.Sub(sum.Debit)
			report.Equity = append(report.Equity, ReportLine{
				AccountID: account.ID, Code: account.Code, Name: account.Name, Balance: signed.Abs(),
			})
			report.TotalEquity = report.TotalEquity.Add(signed)
		}
	}

	report.Degraded = g.snapshot(ctx, tenantID, StatementBalanceSheet, asOf.Format("2006-01"), nil, &asOf,
		map[string]decimal.Decimal{
			"total_assets":      report.TotalAssets,
			"total_liabilities": report.TotalLiabilities,
			"total_equity":      report.TotalEquity,
		})
	return report, nil
}

func (g *ReportGenerator) GenerateIncomeStatement(ctx context.Context, tenantID int64, from, to time.Time) (*IncomeStatementReport, error) {
	accounts, err := g.accounts.GetAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	activity, err := g.entries.Activity(ctx, tenantID, ActivityFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate income statement: %w", err)
	}
	sums := make(map[int64]AccountActivity, len(activity))
	for _, a := range activity {
		sums[a.AccountID] = a
	}

	report := &IncomeStatementReport{TenantID: tenantID, From: from, To: to}
	for _, account := range accounts {
		if !account.IsActive {
			continue
		}
		sum := sums[account.ID]
		switch account.Type {
		case Income:
			// Signed: a contra-revenue account (debit-heavy) nets against
			// income instead of inflating it.
			signed := sum.Credit.Sub(sum.Debit)
			report.Income = append(report.Income, ReportLine{
				AccountID: account.ID, Code: account.Code, Name: account.Name, Balance: signed,
			})
			report.TotalIncome = report.TotalIncome.Add(signed)
		case Cost:
			bal := sum.Debit.Sub(sum.Credit).Abs()
			report.Costs = append(report.Costs, ReportLine{
				AccountID: account.ID, Code: account.Code, Name: account.Name, Balance: bal,
			})
			report.TotalCosts = report.TotalCosts.Add(bal)
		case Expense:
			bal := sum.Debit.Sub(sum.Credit).Abs()
			report.Expenses = append(report.Expenses, ReportLine{
				AccountID: account.ID, Code: account.Code, Name: account.Name, Balance: bal,
			})
			report.TotalExpenses = report.TotalExpenses.Add(bal)
		}
	}
	report.NetIncome = report.TotalIncome.Sub(report.TotalCosts).Sub(report.TotalExpenses)

	report.Degraded = g.snapshot(ctx, tenantID, StatementIncomeStatement, to.Format("2006-01"), &from, &to,
		map[string]decimal.Decimal{
			"total_income":   report.TotalIncome,
			"total_costs":    report.TotalCosts,
			"total_expenses": report.TotalExpenses,
			"net_income":     report.NetIncome,
		})
	return report, nil
}

func (g *ReportGenerator) GenerateCashFlowStatement(ctx context.Context, tenantID int64, from, to time.Time) (*CashFlowReport, error) {
	accounts, err := g.accounts.GetAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	cash := make(map[int64]bool)
	for _, account := range accounts {
		if account.IsActive && isCashAccount(account) {
			cash[account.ID] = true
		}
	}

	details, err := g.entries.LineDetails(ctx, tenantID, ActivityFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("failed to load cash movements: %w", err)
	}

	report := &CashFlowReport{TenantID: tenantID, From: from, To: to}
	for _, d := range details {
		if !cash[d.AccountID] {
			continue
		}
		amount := d.DebitAmount.Sub(d.CreditAmount)
		line := CashFlowLine{
			EntryID:     d.EntryID,
			EntryNumber: d.EntryNumber,
			EntryDate:   d.EntryDate,
			Description: d.Description,
			Amount:      amount,
		}
		switch ClassifyFlow(d.FlowCategory, d.Description) {
		case FlowInvesting:
			report.Investing = append(report.Investing, line)
			report.TotalInvesting = report.TotalInvesting.Add(amount)
		case FlowFinancing:
			report.Financing = append(report.Financing, line)
			report.TotalFinancing = report.TotalFinancing.Add(amount)
		default:
			report.Operating = append(report.Operating, line)
			report.TotalOperating = report.TotalOperating.Add(amount)
		}
	}
	report.NetCashFlow = report.TotalOperating.Add(report.TotalInvesting).Add(report.TotalFinancing)

	report.Degraded = g.snapshot(ctx, tenantID, StatementCashFlow, to.Format("2006-01"), &from, &to,
		map[string]decimal.Decimal{
			"total_operating": report.TotalOperating,
			"total_investing": report.TotalInvesting,
			"total_financing": report.TotalFinancing,
			"net_cash_flow":   report.NetCashFlow,
		})
	return report, nil
}
