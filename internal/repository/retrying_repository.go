package repository

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

// RetryPolicy bounds retries of transient store failures.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

// RetryingLinkRepository retries reads and click increments that fail with
// ErrStoreUnavailable. Insert and Delete pass through: their outcome is
// ambiguous after a lost commit acknowledgement.
type RetryingLinkRepository struct {
	LinkStore
	policy RetryPolicy
}

func NewRetryingLinkRepository(store LinkStore, policy RetryPolicy) *RetryingLinkRepository {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryingLinkRepository{LinkStore: store, policy: policy}
}

func (r *RetryingLinkRepository) GetByID(ctx context.Context, id int64) (*model.Link, error) {
	return retry(ctx, r.policy, func() (*model.Link, error) {
		return r.LinkStore.GetByID(ctx, id)
	})
}

func (r *RetryingLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	return retry(ctx, r.policy, func() (*model.Link, error) {
		return r.LinkStore.GetByCode(ctx, code)
	})
}

func (r *RetryingLinkRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error) {
	return retry(ctx, r.policy, func() ([]model.Link, error) {
		return r.LinkStore.ListByOwner(ctx, ownerID, limit, offset)
	})
}

// IncrementClicks is safe to replay: the event id makes the store apply it once.
func (r *RetryingLinkRepository) IncrementClicks(ctx context.Context, event *model.ClickEvent) (int64, error) {
	return retry(ctx, r.policy, func() (int64, error) {
		return r.LinkStore.IncrementClicks(ctx, event)
	})
}

func (r *RetryingLinkRepository) CountClicksByDay(ctx context.Context, linkID int64, fromDay, toDay string) (map[string]int64, error) {
	return retry(ctx, r.policy, func() (map[string]int64, error) {
		return r.LinkStore.CountClicksByDay(ctx, linkID, fromDay, toDay)
	})
}

func retry[T any](ctx context.Context, policy RetryPolicy, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval
	b.MaxElapsedTime = 0

	var bo backoff.BackOff = backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1))
	bo = backoff.WithContext(bo, ctx)

	var result T
	err := backoff.Retry(func() error {
		var err error
		result, err = op()
		if err != nil && !apperrors.IsStoreUnavailable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bo)

	return result, err
}
