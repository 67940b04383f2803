package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxRepository persists pending producer postings.
type OutboxRepository interface {
	Enqueue(ctx context.Context, p *PendingPosting) (*PendingPosting, error)
	Pending(ctx context.Context, tenantID int64) ([]PendingPosting, error)
	MarkPosted(ctx context.Context, id, entryID int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	// Reset flips a failed posting back to pending so the next flush
	// retries it. Unknown or non-failed ids return ErrNotFound.
	Reset(ctx context.Context, tenantID, id int64) error
}

// PostingOutbox is the two-step posting path for producers (invoices,
// supplier payments, checks, depreciation). The domain record is created
// first, then the ledger entry is enqueued here and posted as a separate,
// retryable step — a failed post is persisted as failed with its reason
// instead of being silently dropped inside the producer.
type PostingOutbox struct {
	repo   OutboxRepository
	ledger *JournalLedger
	log    *zap.Logger
}

func NewPostingOutbox(repo OutboxRepository, ledger *JournalLedger, log *zap.Logger) *PostingOutbox {
	return &PostingOutbox{repo: repo, ledger: ledger, log: log}
}

// Enqueue records a posting request from the named producer. A header
// without an idempotency key gets one assigned here, so a stale posted
// marker can never double-post the entry on a later flush.
func (o *PostingOutbox) Enqueue(ctx context.Context, tenantID int64, source string, header EntryInput, lines []LineInput) (*PendingPosting, error) {
	if source == "" {
		return nil, &ValidationError{Field: "source", Reason: "must name the producer"}
	}
	if header.IdempotencyKey == "" {
		header.IdempotencyKey = uuid.NewString()
	}
	pending, err := o.repo.Enqueue(ctx, &PendingPosting{
		TenantID: tenantID,
		Source:   source,
		Header:   header,
		Lines:    lines,
		Status:   PostingPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue posting from %s: %w", source, err)
	}
	return pending, nil
}

// FlushResult summarizes one Flush run.
type FlushResult struct {
	Posted int `json:"posted"`
	Failed int `json:"failed"`
}

// Flush posts every pending item for the tenant. Validation failures mark
// the item failed with the reason and move on; an infrastructure error on
// one item does not block the rest.
func (o *PostingOutbox) Flush(ctx context.Context, tenantID int64) (FlushResult, error) {
	pending, err := o.repo.Pending(ctx, tenantID)
	if err != nil {
		return FlushResult{}, fmt.Errorf("failed to load pending postings: %w", err)
	}

	var result FlushResult
	for _, item := range pending {
		entry, err := o.ledger.PostEntry(ctx, tenantID, item.Header, item.Lines)
		if err != nil {
			result.Failed++
			o.log.Warn("pending posting failed",
				zap.Int64("posting_id", item.ID),
				zap.String("source", item.Source),
				zap.Error(err))
			if markErr := o.repo.MarkFailed(ctx, item.ID, err.Error()); markErr != nil {
				o.log.Warn("failed to mark posting as failed",
					zap.Int64("posting_id", item.ID), zap.Error(markErr))
			}
			continue
		}
		if err := o.repo.MarkPosted(ctx, item.ID, entry.ID); err != nil {
			// The entry is committed; only the marker is stale. Leave the
			// item pending and let idempotency keys stop a double post on
			// the next flush.
			o.log.Warn("posted but failed to mark posting",
				zap.Int64("posting_id", item.ID), zap.Error(err))
		}
		result.Posted++
	}
	return result, nil
}

// Retry flips a failed posting back to pending for the next flush.
func (o *PostingOutbox) Retry(ctx context.Context, tenantID, postingID int64) error {
	if err := o.repo.Reset(ctx, tenantID, postingID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("no failed posting %d for tenant %d: %w", postingID, tenantID, ErrNotFound)
		}
		return fmt.Errorf("failed to reset posting %d: %w", postingID, err)
	}
	return nil
}
