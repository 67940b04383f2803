package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountBalance is one account's aggregated position.
type AccountBalance struct {
	AccountID     int64           `json:"account_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Type          AccountType     `json:"type"`
	NormalBalance NormalBalance   `json:"normal_balance"`
	TotalDebit    decimal.Decimal `json:"total_debit"`
	TotalCredit   decimal.Decimal `json:"total_credit"`
	Balance       decimal.Decimal `json:"balance"`
}

// TrialBalanceRow is one account's summed movement over a period.
type TrialBalanceRow struct {
	AccountID   int64           `json:"account_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
}

// TrialBalance is the per-account debit/credit summary for a date range.
type TrialBalance struct {
	TenantID    int64             `json:"tenant_id"`
	From        time.Time         `json:"from,omitempty"`
	To          time.Time         `json:"to,omitempty"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}

// BalanceEngine aggregates posted lines into per-account and trial-balance
// figures on demand. No running balance is stored anywhere: every call
// recomputes from the ledger, so results are always consistent with it.
type BalanceEngine struct {
	entries  JournalRepository
	accounts AccountRepository
	log      *zap.Logger
}

func NewBalanceEngine(entries JournalRepository, accounts AccountRepository, log *zap.Logger) *BalanceEngine {
	return &BalanceEngine{entries: entries, accounts: accounts, log: log}
}

// typeSign returns +1 when the account type grows with debits.
// This signs by type rather than the stored normal_balance field, as a
// defensive fallback against a misconfigured account row.
func typeSign(t AccountType) int {
	switch t {
	case Asset, Expense, Cost:
		return 1
	default:
		return -1
	}
}

// GetBalances returns the current balance of every active account, signed
// by the account's stored normal balance.
func (e *BalanceEngine) GetBalances(ctx context.Context, tenantID int64) ([]AccountBalance, error) {
	accounts, err := e.accounts.GetAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	activity, err := e.entries.Activity(ctx, tenantID, ActivityFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger activity: %w", err)
	}
	sums := make(map[int64]AccountActivity, len(activity))
	for _, a := range activity {
		sums[a.AccountID] = a
	}

	balances := make([]AccountBalance, 0, len(accounts))
	for _, account := range accounts {
		if !account.IsActive {
			continue
		}
		sum := sums[account.ID]
		balance := sum.Debit.Sub(sum.Credit)
		if account.NormalBalance == CreditNormal {
			balance = sum.Credit.Sub(sum.Debit)
		}
		balances = append(balances, AccountBalance{
			AccountID:     account.ID,
			Code:          account.Code,
			Name:          account.Name,
			Type:          account.Type,
			NormalBalance: account.NormalBalance,
			TotalDebit:    sum.Debit,
			TotalCredit:   sum.Credit,
			Balance:       balance,
		})
	}
	return balances, nil
}

// GetAccountBalance returns one account's balance from lines dated on or
// before asOf, signed by the account's type.
func (e *BalanceEngine) GetAccountBalance(ctx context.Context, tenantID, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	account, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, &AccountNotFoundError{TenantID: tenantID, AccountID: accountID}
		}
		return decimal.Zero, fmt.Errorf("failed to load account %d: %w", accountID, err)
	}
	if account.TenantID != tenantID {
		return decimal.Zero, &AccountNotFoundError{TenantID: tenantID, AccountID: accountID}
	}

	activity, err := e.entries.Activity(ctx, tenantID, ActivityFilter{AccountID: accountID, To: asOf})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate account %d: %w", accountID, err)
	}
	sum := AccountActivity{}
	if len(activity) > 0 {
		sum = activity[0]
	}
	if typeSign(account.Type) > 0 {
		return sum.Debit.Sub(sum.Credit), nil
	}
	return sum.Credit.Sub(sum.Debit), nil
}

// GetTrialBalance sums debits and credits per account over the date range.
// Every aggregated row re-validates the joined account's tenant id; a
// mismatching row is dropped with a warning rather than leaking another
// tenant's figures through a bad join.
func (e *BalanceEngine) GetTrialBalance(ctx context.Context, tenantID int64, from, to time.Time) (*TrialBalance, error) {
	accounts, err := e.accounts.GetAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	byID := make(map[int64]Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	activity, err := e.entries.Activity(ctx, tenantID, ActivityFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate trial balance: %w", err)
	}

	tb := &TrialBalance{TenantID: tenantID, From: from, To: to}
	for _, sum := range activity {
		if sum.AccountTenantID != tenantID {
			e.log.Warn("trial balance dropped cross-tenant row",
				zap.Int64("tenant_id", tenantID),
				zap.Int64("account_id", sum.AccountID),
				zap.Int64("account_tenant_id", sum.AccountTenantID))
			continue
		}
		account, ok := byID[sum.AccountID]
		if !ok {
			continue
		}
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			AccountID:   account.ID,
			Code:        account.Code,
			Name:        account.Name,
			Type:        account.Type,
			TotalDebit:  sum.Debit,
			TotalCredit: sum.Credit,
		})
		tb.TotalDebit = tb.TotalDebit.Add(sum.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(sum.Credit)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	return tb, nil
}
