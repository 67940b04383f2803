package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-core/internal/core"
)

// AccountRepo is the pgx implementation of core.AccountRepository over the
// chart_accounts table.
type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

const accountColumns = `id, tenant_id, code, name, type, normal_balance, level, parent_id, is_active, allow_posting, is_bank_account`

func scanAccount(row pgx.Row) (*core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.NormalBalance,
		&a.Level, &a.ParentID, &a.IsActive, &a.AllowPosting, &a.IsBankAccount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &a, nil
}

func (r *AccountRepo) GetAll(ctx context.Context, tenantID int64) ([]core.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM chart_accounts WHERE tenant_id = $1 ORDER BY code`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Type, &a.NormalBalance,
			&a.Level, &a.ParentID, &a.IsActive, &a.AllowPosting, &a.IsBankAccount); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*core.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM chart_accounts WHERE id = $1`, id))
}

func (r *AccountRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*core.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM chart_accounts WHERE tenant_id = $1 AND code = $2`, tenantID, code))
}

func (r *AccountRepo) Create(ctx context.Context, a *core.Account) (*core.Account, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chart_accounts (tenant_id, code, name, type, normal_balance, level, parent_id, is_active, allow_posting, is_bank_account)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, a.TenantID, a.Code, a.Name, a.Type, a.NormalBalance, a.Level, a.ParentID,
		a.IsActive, a.AllowPosting, a.IsBankAccount).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &core.DuplicateAccountCodeError{TenantID: a.TenantID, Code: a.Code}
		}
		return nil, fmt.Errorf("failed to insert account %s: %w", a.Code, err)
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *AccountRepo) Update(ctx context.Context, a *core.Account) (*core.Account, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chart_accounts
		SET code = $1, name = $2, type = $3, normal_balance = $4, level = $5,
		    parent_id = $6, is_active = $7, allow_posting = $8, is_bank_account = $9
		WHERE id = $10 AND tenant_id = $11
	`, a.Code, a.Name, a.Type, a.NormalBalance, a.Level, a.ParentID,
		a.IsActive, a.AllowPosting, a.IsBankAccount, a.ID, a.TenantID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &core.DuplicateAccountCodeError{TenantID: a.TenantID, Code: a.Code}
		}
		return nil, fmt.Errorf("failed to update account %d: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, core.ErrNotFound
	}
	return a, nil
}

func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chart_accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Relations runs the two reference checks as independent queries so one
// failing table does not mask the other result.
func (r *AccountRepo) Relations(ctx context.Context, accountID int64) (core.Relations, error) {
	var rel core.Relations
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounting_settings WHERE account_id = $1)`, accountID,
	).Scan(&rel.HasAccountingSettings); err != nil {
		return core.Relations{}, fmt.Errorf("failed to check settings references: %w", err)
	}
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM journal_entry_lines WHERE account_id = $1)`, accountID,
	).Scan(&rel.HasJournalEntries); err != nil {
		return core.Relations{}, fmt.Errorf("failed to check journal references: %w", err)
	}
	return rel, nil
}
