package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ledger-core/internal/core"
)

// PostEntryRequest is the adapter-facing shape of a posting. Lines may
// reference accounts by id or by tenant-scoped code; codes are resolved
// before the ledger sees the entry.
type PostEntryRequest struct {
	EntryNumber    string          `json:"entry_number" validate:"required"`
	EntryDate      string          `json:"entry_date" validate:"required,datetime=2006-01-02"`
	Description    string          `json:"description" validate:"required"`
	Reference      string          `json:"reference,omitempty"`
	Status         string          `json:"status,omitempty" validate:"omitempty,oneof=draft posted"`
	FlowCategory   string          `json:"flow_category,omitempty" validate:"omitempty,oneof=operating investing financing"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Lines          []PostEntryLine `json:"lines" validate:"required,min=2,dive"`
}

// PostEntryLine carries one debit or credit leg. Exactly one of AccountID
// or AccountCode must be set.
type PostEntryLine struct {
	AccountID    int64           `json:"account_id,omitempty"`
	AccountCode  string          `json:"account_code,omitempty"`
	Description  string          `json:"description,omitempty"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	LineNumber   int             `json:"line_number,omitempty"`
}

// toInputs converts the request into core inputs, resolving account codes
// within the tenant.
func (r PostEntryRequest) toInputs(ctx context.Context, tenantID int64, accounts *core.ChartOfAccounts) (core.EntryInput, []core.LineInput, error) {
	entryDate, err := time.Parse("2006-01-02", r.EntryDate)
	if err != nil {
		return core.EntryInput{}, nil, &core.ValidationError{Field: "entry_date", Reason: "must be YYYY-MM-DD"}
	}

	header := core.EntryInput{
		EntryNumber:    r.EntryNumber,
		EntryDate:      entryDate,
		Description:    r.Description,
		Reference:      r.Reference,
		Status:         core.EntryStatus(r.Status),
		FlowCategory:   core.FlowCategory(r.FlowCategory),
		IdempotencyKey: r.IdempotencyKey,
	}

	lines := make([]core.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		accountID := l.AccountID
		if accountID == 0 {
			if l.AccountCode == "" {
				return core.EntryInput{}, nil, &core.ValidationError{Field: "lines", Reason: "each line needs an account_id or account_code"}
			}
			accountID, err = accounts.ResolveAccountID(ctx, tenantID, l.AccountCode)
			if err != nil {
				return core.EntryInput{}, nil, err
			}
		}
		lines = append(lines, core.LineInput{
			AccountID:    accountID,
			Description:  l.Description,
			DebitAmount:  l.DebitAmount,
			CreditAmount: l.CreditAmount,
			LineNumber:   l.LineNumber,
		})
	}
	return header, lines, nil
}
