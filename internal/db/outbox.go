package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-core/internal/core"
)

// OutboxRepo is the pgx implementation of core.OutboxRepository over the
// pending_postings table.
type OutboxRepo struct {
	pool *pgxpool.Pool
}

func NewOutboxRepo(pool *pgxpool.Pool) *OutboxRepo {
	return &OutboxRepo{pool: pool}
}

// postingPayload is the JSONB shape of a queued posting.
type postingPayload struct {
	Header core.EntryInput  `json:"header"`
	Lines  []core.LineInput `json:"lines"`
}

func (r *OutboxRepo) Enqueue(ctx context.Context, p *core.PendingPosting) (*core.PendingPosting, error) {
	payload, err := json.Marshal(postingPayload{Header: p.Header, Lines: p.Lines})
	if err != nil {
		return nil, fmt.Errorf("failed to encode posting payload: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO pending_postings (tenant_id, source, payload, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`, p.TenantID, p.Source, payload, core.PostingPending).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue posting: %w", err)
	}
	p.Status = core.PostingPending
	return p, nil
}

func (r *OutboxRepo) Pending(ctx context.Context, tenantID int64) ([]core.PendingPosting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, source, payload, status, last_error, entry_id, created_at, posted_at
		FROM pending_postings
		WHERE tenant_id = $1 AND status = 'pending'
		ORDER BY created_at, id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending postings: %w", err)
	}
	defer rows.Close()

	var postings []core.PendingPosting
	for rows.Next() {
		var p core.PendingPosting
		var payload []byte
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Source, &payload, &p.Status,
			&p.LastError, &p.EntryID, &p.CreatedAt, &p.PostedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending posting: %w", err)
		}
		var decoded postingPayload
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode posting %d payload: %w", p.ID, err)
		}
		p.Header = decoded.Header
		p.Lines = decoded.Lines
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func (r *OutboxRepo) MarkPosted(ctx context.Context, id, entryID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pending_postings
		SET status = 'posted', entry_id = $1, last_error = '', posted_at = NOW()
		WHERE id = $2
	`, entryID, id)
	if err != nil {
		return fmt.Errorf("failed to mark posting %d as posted: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE pending_postings SET status = 'failed', last_error = $1 WHERE id = $2`, reason, id)
	if err != nil {
		return fmt.Errorf("failed to mark posting %d as failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *OutboxRepo) Reset(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE pending_postings
		SET status = 'pending', last_error = ''
		WHERE id = $1 AND tenant_id = $2 AND status = 'failed'
	`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to reset posting %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
