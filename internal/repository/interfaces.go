package repository

import (
	"context"

	"github.com/Kosench/shortlink/internal/model"
)

// LinkStore is the durable identifier-keyed link table with a unique index
// on short code. All mutation happens through Insert, Delete and
// IncrementClicks, each atomic on the store side.
type LinkStore interface {
	// Insert persists link, sets link.ID and returns it. A short code already
	// used by an existing link yields ErrDuplicateCode.
	Insert(ctx context.Context, link *model.Link) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Link, error)
	// GetByCode only matches existing links whose short code is present.
	GetByCode(ctx context.Context, code string) (*model.Link, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error)
	// Delete removes the link and its click history.
	Delete(ctx context.Context, id int64) error
	// IncrementClicks appends event to the click log and bumps click_count by
	// one in the same transaction, returning the new count. Replaying an
	// event id that is already logged leaves the counter unchanged.
	IncrementClicks(ctx context.Context, event *model.ClickEvent) (int64, error)
	// CountClicksByDay groups logged events of a link by day for days in
	// [fromDay, toDay] (YYYY-MM-DD, inclusive). Days without events are absent.
	CountClicksByDay(ctx context.Context, linkID int64, fromDay, toDay string) (map[string]int64, error)
	Ping(ctx context.Context) error
}
