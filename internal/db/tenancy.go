package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-core/internal/core"
)

// RoleMappingRepo is the pgx implementation of core.RoleMappingRepository
// over the role_mappings table.
type RoleMappingRepo struct {
	pool *pgxpool.Pool
}

func NewRoleMappingRepo(pool *pgxpool.Pool) *RoleMappingRepo {
	return &RoleMappingRepo{pool: pool}
}

func (r *RoleMappingRepo) LatestOwner(ctx context.Context, userID int64) (int64, error) {
	var ownerID int64
	err := r.pool.QueryRow(ctx, `
		SELECT owner_id FROM role_mappings
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, core.ErrNotFound
		}
		return 0, fmt.Errorf("failed to look up role mapping for user %d: %w", userID, err)
	}
	return ownerID, nil
}

// Assign records a new mapping; the latest row wins on resolution.
func (r *RoleMappingRepo) Assign(ctx context.Context, userID, ownerID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO role_mappings (user_id, owner_id, created_at) VALUES ($1, $2, NOW())`, userID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to assign user %d to owner %d: %w", userID, ownerID, err)
	}
	return nil
}
