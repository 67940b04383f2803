package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Income    AccountType = "income"
	Cost      AccountType = "cost"
	Expense   AccountType = "expense"
)

type NormalBalance string

const (
	DebitNormal  NormalBalance = "debit"
	CreditNormal NormalBalance = "credit"
)

// DefaultNormalBalance returns the normal balance assigned to an account
// whose type is known but whose normal balance was not explicitly set:
// debit for assets and expenses, credit for everything else.
func DefaultNormalBalance(t AccountType) NormalBalance {
	if t == Asset || t == Expense {
		return DebitNormal
	}
	return CreditNormal
}

type Account struct {
	ID            int64         `json:"id"`
	TenantID      int64         `json:"tenant_id"`
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	Type          AccountType   `json:"type"`
	NormalBalance NormalBalance `json:"normal_balance"`
	Level         int           `json:"level"`
	ParentID      *int64        `json:"parent_id,omitempty"`
	IsActive      bool          `json:"is_active"`
	AllowPosting  bool          `json:"allow_posting"`
	IsBankAccount bool          `json:"is_bank_account"`
}

type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "draft"
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
)

// FlowCategory is the explicit cash-flow classification tag carried by a
// journal entry. Entries created before tagging existed have an empty
// category and fall back to description-keyword classification.
type FlowCategory string

const (
	FlowOperating FlowCategory = "operating"
	FlowInvesting FlowCategory = "investing"
	FlowFinancing FlowCategory = "financing"
)

type JournalEntry struct {
	ID              int64           `json:"id"`
	TenantID        int64           `json:"tenant_id"`
	EntryNumber     string          `json:"entry_number"`
	EntryDate       time.Time       `json:"entry_date"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference,omitempty"`
	Status          EntryStatus     `json:"status"`
	FlowCategory    FlowCategory    `json:"flow_category,omitempty"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	IdempotencyKey  string          `json:"idempotency_key,omitempty"`
	ReversedEntryID *int64          `json:"reversed_entry_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Lines           []JournalLine   `json:"lines"`
}

type JournalLine struct {
	ID           int64           `json:"id"`
	EntryID      int64           `json:"entry_id"`
	AccountID    int64           `json:"account_id"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	LineNumber   int             `json:"line_number"`
}

type StatementType string

const (
	StatementTrialBalance    StatementType = "trial_balance"
	StatementBalanceSheet    StatementType = "balance_sheet"
	StatementIncomeStatement StatementType = "income_statement"
	StatementCashFlow        StatementType = "cash_flow"
)

// FinancialStatement is an immutable snapshot of a generated report.
// Re-running a report for the same period appends a new row; snapshots are
// never updated or deleted.
type FinancialStatement struct {
	ID        int64                      `json:"id"`
	TenantID  int64                      `json:"tenant_id"`
	Type      StatementType              `json:"type"`
	Period    string                     `json:"period"`
	FromDate  *time.Time                 `json:"from_date,omitempty"`
	ToDate    *time.Time                 `json:"to_date,omitempty"`
	Totals    map[string]decimal.Decimal `json:"totals"`
	Status    string                     `json:"status"`
	CreatedAt time.Time                  `json:"created_at"`
}

// RoleMapping assigns a sub-user to the tenant (book owner) whose ledger
// its requests operate on. The most recent row for a user wins.
type RoleMapping struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type PostingStatus string

const (
	PostingPending PostingStatus = "pending"
	PostingPosted  PostingStatus = "posted"
	PostingFailed  PostingStatus = "failed"
)

// PendingPosting is a persisted request from a producer (invoice, payment,
// check, depreciation run) to post a journal entry. Producers enqueue the
// payload instead of posting inline, so a failed post stays visible and
// retryable rather than being silently swallowed.
type PendingPosting struct {
	ID        int64         `json:"id"`
	TenantID  int64         `json:"tenant_id"`
	Source    string        `json:"source"`
	Header    EntryInput    `json:"header"`
	Lines     []LineInput   `json:"lines"`
	Status    PostingStatus `json:"status"`
	LastError string        `json:"last_error,omitempty"`
	EntryID   *int64        `json:"entry_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	PostedAt  *time.Time    `json:"posted_at,omitempty"`
}

// EntryInput is the header a caller supplies to PostEntry.
type EntryInput struct {
	EntryNumber    string       `json:"entry_number"`
	EntryDate      time.Time    `json:"entry_date"`
	Description    string       `json:"description"`
	Reference      string       `json:"reference,omitempty"`
	Status         EntryStatus  `json:"status,omitempty"`
	FlowCategory   FlowCategory `json:"flow_category,omitempty"`
	IdempotencyKey string       `json:"idempotency_key,omitempty"`
}

// LineInput is a single debit or credit line supplied to PostEntry.
// Zero-valued amounts and an empty description are normalized by the ledger.
type LineInput struct {
	AccountID    int64           `json:"account_id"`
	Description  string          `json:"description,omitempty"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	LineNumber   int             `json:"line_number,omitempty"`
}
