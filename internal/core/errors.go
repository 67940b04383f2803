package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by repositories when a requested row does not
// exist. Services wrap it into a domain-specific error where one exists.
var ErrNotFound = errors.New("not found")

// UnbalancedEntryError rejects a posting whose debits and credits differ
// after rounding to 2 decimal places. Nothing is persisted.
type UnbalancedEntryError struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits %s != credits %s",
		e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2))
}

// AccountNotFoundError rejects a posting line whose account id or code does
// not resolve within the caller's tenant.
type AccountNotFoundError struct {
	TenantID  int64
	AccountID int64
	Code      string
}

func (e *AccountNotFoundError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("account code %s not found for tenant %d", e.Code, e.TenantID)
	}
	return fmt.Sprintf("account %d not found for tenant %d", e.AccountID, e.TenantID)
}

// PostingNotAllowedError rejects a line against a summary account
// (allow_posting = false).
type PostingNotAllowedError struct {
	AccountID int64
	Code      string
}

func (e *PostingNotAllowedError) Error() string {
	return fmt.Sprintf("account %s does not allow direct posting", e.Code)
}

// RelationError blocks deletion of an account that is still referenced.
type RelationError struct {
	AccountID             int64
	HasAccountingSettings bool
	HasJournalEntries     bool
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("account %d is referenced (settings=%t, journal entries=%t) and cannot be deleted",
		e.AccountID, e.HasAccountingSettings, e.HasJournalEntries)
}

// DuplicateAccountCodeError rejects a second account with the same code
// within one tenant.
type DuplicateAccountCodeError struct {
	TenantID int64
	Code     string
}

func (e *DuplicateAccountCodeError) Error() string {
	return fmt.Sprintf("account code %s already exists for tenant %d", e.Code, e.TenantID)
}

// DuplicateEntryError rejects a retried PostEntry carrying an idempotency
// key that has already been committed.
type DuplicateEntryError struct {
	IdempotencyKey string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("duplicate entry: idempotency key %s already exists", e.IdempotencyKey)
}

// ValidationError reports malformed posting input detected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
