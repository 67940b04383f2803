package core

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// RoleMappingRepository looks up sub-user to owner assignments.
type RoleMappingRepository interface {
	// LatestOwner returns the owner id from the most recent role mapping
	// for userID, or ErrNotFound when the user has no mapping.
	LatestOwner(ctx context.Context, userID int64) (int64, error)
}

// TenantResolver maps an authenticated user id to the tenant (book owner)
// whose ledger the request operates on. Every downstream query trusts the
// resolved id for tenant isolation.
type TenantResolver struct {
	repo RoleMappingRepository
	log  *zap.Logger
}

func NewTenantResolver(repo RoleMappingRepository, log *zap.Logger) *TenantResolver {
	return &TenantResolver{repo: repo, log: log}
}

// Resolve returns the owning tenant id for userID. A user with no role
// mapping is its own tenant. Lookup failures also fall back to self-tenancy
// so resolution never fails, but they are logged: a resolver outage must be
// visible in logs even though callers keep working.
func (r *TenantResolver) Resolve(ctx context.Context, userID int64) int64 {
	owner, err := r.repo.LatestOwner(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.log.Warn("role mapping lookup failed, defaulting to self tenancy",
				zap.Int64("user_id", userID), zap.Error(err))
		}
		return userID
	}
	return owner
}

// CachedResolver memoizes Resolve results for the lifetime of one request.
// It is not safe for concurrent use and must never be shared across users
// or requests.
type CachedResolver struct {
	inner *TenantResolver
	seen  map[int64]int64
}

func NewCachedResolver(inner *TenantResolver) *CachedResolver {
	return &CachedResolver{inner: inner, seen: make(map[int64]int64)}
}

func (c *CachedResolver) Resolve(ctx context.Context, userID int64) int64 {
	if tenant, ok := c.seen[userID]; ok {
		return tenant
	}
	tenant := c.inner.Resolve(ctx, userID)
	c.seen[userID] = tenant
	return tenant
}
