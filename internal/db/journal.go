package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-core/internal/core"
)

// JournalRepo is the pgx implementation of core.JournalRepository over the
// journal_entries and journal_entry_lines tables.
type JournalRepo struct {
	pool *pgxpool.Pool
}

func NewJournalRepo(pool *pgxpool.Pool) *JournalRepo {
	return &JournalRepo{pool: pool}
}

// InsertEntry writes the header and all lines in one transaction. A header
// with zero lines is never observable: any line failure rolls back the
// whole entry.
func (r *JournalRepo) InsertEntry(ctx context.Context, entry *core.JournalEntry) (*core.JournalEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var idempotencyKey *string
	if entry.IdempotencyKey != "" {
		idempotencyKey = &entry.IdempotencyKey
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO journal_entries (tenant_id, entry_number, entry_date, description, reference, status, flow_category, total_debit, total_credit, idempotency_key, reversed_entry_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, created_at
	`, entry.TenantID, entry.EntryNumber, entry.EntryDate, entry.Description, entry.Reference,
		entry.Status, entry.FlowCategory, entry.TotalDebit.StringFixed(2), entry.TotalCredit.StringFixed(2),
		idempotencyKey, entry.ReversedEntryID).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.DuplicateEntryError{IdempotencyKey: entry.IdempotencyKey}
		}
		return nil, fmt.Errorf("failed to insert journal entry: %w", err)
	}

	for i := range entry.Lines {
		line := &entry.Lines[i]
		line.EntryID = entry.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO journal_entry_lines (journal_entry_id, account_id, description, debit_amount, credit_amount, line_number)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, entry.ID, line.AccountID, line.Description,
			line.DebitAmount.StringFixed(2), line.CreditAmount.StringFixed(2), line.LineNumber).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert journal line %d: %w", line.LineNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit journal entry: %w", err)
	}
	return entry, nil
}

const entryColumns = `id, tenant_id, entry_number, entry_date, description, reference, status, flow_category, total_debit, total_credit, COALESCE(idempotency_key, ''), reversed_entry_id, created_at`

func scanEntry(row pgx.Row) (*core.JournalEntry, error) {
	var e core.JournalEntry
	err := row.Scan(&e.ID, &e.TenantID, &e.EntryNumber, &e.EntryDate, &e.Description,
		&e.Reference, &e.Status, &e.FlowCategory, &e.TotalDebit, &e.TotalCredit,
		&e.IdempotencyKey, &e.ReversedEntryID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan journal entry: %w", err)
	}
	return &e, nil
}

func (r *JournalRepo) GetEntry(ctx context.Context, tenantID, entryID int64) (*core.JournalEntry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE tenant_id = $1 AND id = $2`, tenantID, entryID))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, journal_entry_id, account_id, description, debit_amount, credit_amount, line_number
		FROM journal_entry_lines WHERE journal_entry_id = $1 ORDER BY line_number
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %d: %w", entryID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l core.JournalLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Description,
			&l.DebitAmount, &l.CreditAmount, &l.LineNumber); err != nil {
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		entry.Lines = append(entry.Lines, l)
	}
	return entry, rows.Err()
}

// GetEntries returns entry headers only, newest first. Lines are loaded
// per entry through GetEntry.
func (r *JournalRepo) GetEntries(ctx context.Context, tenantID int64) ([]core.JournalEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE tenant_id = $1 ORDER BY entry_date DESC, id DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []core.JournalEntry
	for rows.Next() {
		var e core.JournalEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.EntryNumber, &e.EntryDate, &e.Description,
			&e.Reference, &e.Status, &e.FlowCategory, &e.TotalDebit, &e.TotalCredit,
			&e.IdempotencyKey, &e.ReversedEntryID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *JournalRepo) UpdateStatus(ctx context.Context, tenantID, entryID int64, status core.EntryStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE journal_entries SET status = $1 WHERE tenant_id = $2 AND id = $3`, status, tenantID, entryID)
	if err != nil {
		return fmt.Errorf("failed to update status of entry %d: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *JournalRepo) HasReversal(ctx context.Context, entryID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM journal_entries WHERE reversed_entry_id = $1)`, entryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reversal of entry %d: %w", entryID, err)
	}
	return exists, nil
}

// Activity sums line amounts per account across the tenant's non-draft
// entries. The joined account's tenant_id is returned alongside so the
// balance engine can re-validate isolation per row.
func (r *JournalRepo) Activity(ctx context.Context, tenantID int64, filter core.ActivityFilter) ([]core.AccountActivity, error) {
	q := `
		SELECT l.account_id, a.tenant_id,
		       COALESCE(SUM(l.debit_amount), 0) AS total_debit,
		       COALESCE(SUM(l.credit_amount), 0) AS total_credit
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.id = l.journal_entry_id
		JOIN chart_accounts a ON a.id = l.account_id
		WHERE e.tenant_id = $1
		  AND e.status <> 'draft'`

	args := []any{tenantID}
	if filter.AccountID != 0 {
		args = append(args, filter.AccountID)
		q += fmt.Sprintf(" AND l.account_id = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		q += fmt.Sprintf(" AND e.entry_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		q += fmt.Sprintf(" AND e.entry_date <= $%d", len(args))
	}
	q += " GROUP BY l.account_id, a.tenant_id"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate activity: %w", err)
	}
	defer rows.Close()

	var activity []core.AccountActivity
	for rows.Next() {
		var a core.AccountActivity
		if err := rows.Scan(&a.AccountID, &a.AccountTenantID, &a.Debit, &a.Credit); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

func (r *JournalRepo) LineDetails(ctx context.Context, tenantID int64, filter core.ActivityFilter) ([]core.LineDetail, error) {
	q := `
		SELECT e.id, e.entry_number, e.entry_date, e.description, e.flow_category,
		       l.account_id, l.debit_amount, l.credit_amount
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.id = l.journal_entry_id
		WHERE e.tenant_id = $1
		  AND e.status <> 'draft'`

	args := []any{tenantID}
	if filter.AccountID != 0 {
		args = append(args, filter.AccountID)
		q += fmt.Sprintf(" AND l.account_id = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		q += fmt.Sprintf(" AND e.entry_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		q += fmt.Sprintf(" AND e.entry_date <= $%d", len(args))
	}
	q += " ORDER BY e.entry_date, e.id, l.line_number"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query line details: %w", err)
	}
	defer rows.Close()

	var details []core.LineDetail
	for rows.Next() {
		var d core.LineDetail
		if err := rows.Scan(&d.EntryID, &d.EntryNumber, &d.EntryDate, &d.Description,
			&d.FlowCategory, &d.AccountID, &d.DebitAmount, &d.CreditAmount); err != nil {
			return nil, fmt.Errorf("failed to scan line detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
