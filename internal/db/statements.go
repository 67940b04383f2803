package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-core/internal/core"
)

// StatementRepo is the pgx implementation of core.StatementRepository over
// the financial_statements table. Rows are append-only.
type StatementRepo struct {
	pool *pgxpool.Pool
}

func NewStatementRepo(pool *pgxpool.Pool) *StatementRepo {
	return &StatementRepo{pool: pool}
}

func (r *StatementRepo) Append(ctx context.Context, s *core.FinancialStatement) (*core.FinancialStatement, error) {
	totals, err := json.Marshal(s.Totals)
	if err != nil {
		return nil, fmt.Errorf("failed to encode statement totals: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO financial_statements (tenant_id, type, period, from_date, to_date, totals, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`, s.TenantID, s.Type, s.Period, s.FromDate, s.ToDate, totals, s.Status).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert financial statement: %w", err)
	}
	return s, nil
}

func (r *StatementRepo) ListByTenant(ctx context.Context, tenantID int64) ([]core.FinancialStatement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, type, period, from_date, to_date, totals, status, created_at
		FROM financial_statements
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query financial statements: %w", err)
	}
	defer rows.Close()

	var statements []core.FinancialStatement
	for rows.Next() {
		var s core.FinancialStatement
		var totals []byte
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Type, &s.Period, &s.FromDate, &s.ToDate,
			&totals, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan financial statement: %w", err)
		}
		if err := json.Unmarshal(totals, &s.Totals); err != nil {
			return nil, fmt.Errorf("failed to decode statement totals: %w", err)
		}
		statements = append(statements, s)
	}
	return statements, rows.Err()
}
