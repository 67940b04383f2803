package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ActivityFilter restricts an aggregation query. Zero values mean
// unbounded: AccountID 0 covers all accounts, zero times drop the date
// bound. Draft entries are always excluded; posted and reversed entries
// both count, since a reversal nets out against its compensating entry.
type ActivityFilter struct {
	AccountID int64
	From      time.Time
	To        time.Time
}

// AccountActivity is the summed debit/credit movement of one account.
// AccountTenantID is the tenant of the joined account row, carried so
// aggregation consumers can re-validate tenant isolation per row.
type AccountActivity struct {
	AccountID       int64
	AccountTenantID int64
	Debit           decimal.Decimal
	Credit          decimal.Decimal
}

// JournalRepository persists journal entries and aggregates their lines.
type JournalRepository interface {
	// InsertEntry writes the header and all lines atomically: either the
	// whole entry becomes visible or nothing does. A conflicting
	// idempotency key returns a DuplicateEntryError.
	InsertEntry(ctx context.Context, entry *JournalEntry) (*JournalEntry, error)
	GetEntry(ctx context.Context, tenantID, entryID int64) (*JournalEntry, error)
	// GetEntries lists a tenant's entries ordered by entry date descending.
	GetEntries(ctx context.Context, tenantID int64) ([]JournalEntry, error)
	UpdateStatus(ctx context.Context, tenantID, entryID int64, status EntryStatus) error
	HasReversal(ctx context.Context, entryID int64) (bool, error)
	// Activity sums debit and credit amounts per account across non-draft
	// entries of the tenant, within the filter bounds.
	Activity(ctx context.Context, tenantID int64, filter ActivityFilter) ([]AccountActivity, error)
	// LineDetails returns individual non-draft lines with their entry
	// metadata, ordered by entry date then entry id.
	LineDetails(ctx context.Context, tenantID int64, filter ActivityFilter) ([]LineDetail, error)
}

// LineDetail is one journal line joined to its entry header, as consumed
// by the cash-flow statement.
type LineDetail struct {
	EntryID      int64
	EntryNumber  string
	EntryDate    time.Time
	Description  string
	FlowCategory FlowCategory
	AccountID    int64
	DebitAmount  decimal.Decimal
	CreditAmount decimal.Decimal
}

// JournalLedger validates and persists balanced journal entries.
type JournalLedger struct {
	entries  JournalRepository
	accounts AccountRepository
	log      *zap.Logger
}

func NewJournalLedger(entries JournalRepository, accounts AccountRepository, log *zap.Logger) *JournalLedger {
	return &JournalLedger{entries: entries, accounts: accounts, log: log}
}

// PostEntry validates and persists one balanced journal entry.
//
// Lines are normalized first: zero amounts for the missing side, the entry
// description where a line has none, positional line numbers where absent.
// The rounded totals must match or the posting is rejected with an
// UnbalancedEntryError before anything is written. Header and lines commit
// in a single transaction; a header with zero lines is never observable.
func (l *JournalLedger) PostEntry(ctx context.Context, tenantID int64, header EntryInput, lines []LineInput) (*JournalEntry, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Field: "lines", Reason: "entry must have at least one line"}
	}
	if header.EntryDate.IsZero() {
		return nil, &ValidationError{Field: "entry_date", Reason: "must be set"}
	}

	normalized := normalizeLines(header, lines)

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range normalized {
		if line.DebitAmount.IsNegative() || line.CreditAmount.IsNegative() {
			return nil, &ValidationError{Field: "lines", Reason: "amounts must not be negative"}
		}
		totalDebit = totalDebit.Add(line.DebitAmount)
		totalCredit = totalCredit.Add(line.CreditAmount)
	}
	if !totalDebit.Round(2).Equal(totalCredit.Round(2)) {
		return nil, &UnbalancedEntryError{TotalDebit: totalDebit, TotalCredit: totalCredit}
	}

	for _, line := range normalized {
		account, err := l.accounts.GetByID(ctx, line.AccountID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, &AccountNotFoundError{TenantID: tenantID, AccountID: line.AccountID}
			}
			return nil, fmt.Errorf("failed to resolve account %d: %w", line.AccountID, err)
		}
		if account.TenantID != tenantID {
			return nil, &AccountNotFoundError{TenantID: tenantID, AccountID: line.AccountID}
		}
		if !account.AllowPosting {
			return nil, &PostingNotAllowedError{AccountID: account.ID, Code: account.Code}
		}
	}

	status := header.Status
	if status == "" {
		status = EntryStatusPosted
	}
	entry := &JournalEntry{
		TenantID:       tenantID,
		EntryNumber:    header.EntryNumber,
		EntryDate:      header.EntryDate,
		Description:    header.Description,
		Reference:      header.Reference,
		Status:         status,
		FlowCategory:   header.FlowCategory,
		TotalDebit:     totalDebit,
		TotalCredit:    totalCredit,
		IdempotencyKey: header.IdempotencyKey,
		Lines:          normalized,
	}

	posted, err := l.entries.InsertEntry(ctx, entry)
	if err != nil {
		var dup *DuplicateEntryError
		if errors.As(err, &dup) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to post entry %s: %w", header.EntryNumber, err)
	}
	return posted, nil
}

// normalizeLines fills per-line defaults from the entry header.
func normalizeLines(header EntryInput, lines []LineInput) []JournalLine {
	normalized := make([]JournalLine, 0, len(lines))
	for i, in := range lines {
		description := in.Description
		if description == "" {
			description = header.Description
		}
		lineNumber := in.LineNumber
		if lineNumber <= 0 {
			lineNumber = i + 1
		}
		normalized = append(normalized, JournalLine{
			AccountID:    in.AccountID,
			Description:  description,
			DebitAmount:  in.DebitAmount,
			CreditAmount: in.CreditAmount,
			LineNumber:   lineNumber,
		})
	}
	return normalized
}

// GetEntries lists a tenant's entries newest first. A read failure degrades
// to an empty, flagged result with a logged warning instead of an error.
func (l *JournalLedger) GetEntries(ctx context.Context, tenantID int64) ReadResult[[]JournalEntry] {
	entries, err := l.entries.GetEntries(ctx, tenantID)
	if err != nil {
		l.log.Warn("journal read degraded to empty list",
			zap.Int64("tenant_id", tenantID), zap.Error(err))
		return DegradedResult[[]JournalEntry]()
	}
	return OkResult(entries)
}

// Reverse posts a compensating entry with debits and credits swapped and
// marks the original entry reversed. The original is never mutated beyond
// its status; an entry can be reversed at most once.
func (l *JournalLedger) Reverse(ctx context.Context, tenantID, entryID int64, reason string) (*JournalEntry, error) {
	original, err := l.entries.GetEntry(ctx, tenantID, entryID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("entry %d not found: %w", entryID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load entry %d: %w", entryID, err)
	}
	if original.Status == EntryStatusDraft {
		return nil, &ValidationError{Field: "status", Reason: "draft entries cannot be reversed"}
	}
	reversed, err := l.entries.HasReversal(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to check reversal status of entry %d: %w", entryID, err)
	}
	if reversed || original.Status == EntryStatusReversed {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("entry %d is already reversed", entryID)}
	}

	lines := make([]JournalLine, 0, len(original.Lines))
	for _, line := range original.Lines {
		lines = append(lines, JournalLine{
			AccountID:    line.AccountID,
			Description:  line.Description,
			DebitAmount:  line.CreditAmount,
			CreditAmount: line.DebitAmount,
			LineNumber:   line.LineNumber,
		})
	}
	reversal := &JournalEntry{
		TenantID:        tenantID,
		EntryNumber:     original.EntryNumber + "-R",
		EntryDate:       original.EntryDate,
		Description:     fmt.Sprintf("Reversal of %s: %s", original.EntryNumber, reason),
		Reference:       original.Reference,
		Status:          EntryStatusPosted,
		FlowCategory:    original.FlowCategory,
		TotalDebit:      original.TotalCredit,
		TotalCredit:     original.TotalDebit,
		ReversedEntryID: &original.ID,
		Lines:           lines,
	}

	posted, err := l.entries.InsertEntry(ctx, reversal)
	if err != nil {
		return nil, fmt.Errorf("failed to post reversal of entry %d: %w", entryID, err)
	}
	if err := l.entries.UpdateStatus(ctx, tenantID, entryID, EntryStatusReversed); err != nil {
		// The compensating entry is already committed, so balances are
		// correct either way; the stale status is log-visible only.
		l.log.Warn("reversal posted but original status update failed",
			zap.Int64("entry_id", entryID), zap.Error(err))
	}
	return posted, nil
}
