package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Kosench/shortlink/internal/database"
	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

const linkColumns = `id, owner_id, destination_url, short_code, click_count, is_active, created_at`

// SQLLinkRepository implements LinkStore over database/sql for PostgreSQL
// and SQLite. Queries are written with ? placeholders and rebound per dialect.
type SQLLinkRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQLLinkRepository(db *sql.DB, dialect database.Dialect) *SQLLinkRepository {
	return &SQLLinkRepository{
		db:      db,
		dialect: dialect,
	}
}

var _ LinkStore = (*SQLLinkRepository)(nil)

func (r *SQLLinkRepository) Insert(ctx context.Context, link *model.Link) (int64, error) {
	// Uniqueness is enforced by the partial unique index; a conflicting
	// insert returns no row.
	query := r.rebind(`
	INSERT INTO links (owner_id, destination_url, short_code, click_count, is_active, created_at)
	VALUES (?, ?, ?, 0, ?, ?)
	ON CONFLICT DO NOTHING
	RETURNING id
	`)

	var code sql.NullString
	if link.HasShortCode() {
		code = sql.NullString{String: link.Code(), Valid: true}
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		link.OwnerID,
		link.DestinationURL,
		code,
		link.Active,
		link.CreatedAt.UTC(),
	).Scan(&link.ID)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("short code '%s': %w", link.Code(), apperrors.ErrDuplicateCode)
	}

	if err != nil {
		return 0, apperrors.NewStoreUnavailable("insert link", err)
	}

	link.ClickCount = 0
	return link.ID, nil
}

func (r *SQLLinkRepository) GetByID(ctx context.Context, id int64) (*model.Link, error) {
	query := r.rebind(`SELECT ` + linkColumns + ` FROM links WHERE id = ?`)

	link, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("link %d: %w", id, apperrors.ErrLinkNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailable("get link by id", err)
	}

	return link, nil
}

func (r *SQLLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	query := r.rebind(`SELECT ` + linkColumns + ` FROM links WHERE short_code = ? AND short_code IS NOT NULL`)

	link, err := scanLink(r.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("short code '%s': %w", code, apperrors.ErrLinkNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailable("get link by code", err)
	}

	return link, nil
}

func (r *SQLLinkRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error) {
	query := r.rebind(`
	SELECT ` + linkColumns + `
	FROM links
	WHERE owner_id = ?
	ORDER BY created_at DESC, id DESC
	LIMIT ? OFFSET ?
	`)

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable("list links", err)
	}
	defer rows.Close()

	links := make([]model.Link, 0, limit)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, apperrors.NewStoreUnavailable("scan link", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable("list links", err)
	}

	return links, nil
}

func (r *SQLLinkRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreUnavailable("begin delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM click_events WHERE link_id = ?`), id); err != nil {
		return apperrors.NewStoreUnavailable("delete click events", err)
	}

	result, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM links WHERE id = ?`), id)
	if err != nil {
		return apperrors.NewStoreUnavailable("delete link", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewStoreUnavailable("delete link", err)
	}
	if affected == 0 {
		return fmt.Errorf("link %d: %w", id, apperrors.ErrLinkNotFound)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreUnavailable("commit delete", err)
	}

	return nil
}

func (r *SQLLinkRepository) IncrementClicks(ctx context.Context, event *model.ClickEvent) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewStoreUnavailable("begin increment", err)
	}
	defer tx.Rollback()

	// The counter row is touched first so concurrent increments of the same
	// link queue on its row lock, and a deleted link is detected before any
	// event is written.
	var count int64
	err = tx.QueryRowContext(ctx, r.rebind(`
	UPDATE links
	SET click_count = click_count + 1
	WHERE id = ?
	RETURNING click_count
	`), event.LinkID).Scan(&count)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("link %d: %w", event.LinkID, apperrors.ErrLinkNotFound)
	}
	if err != nil {
		return 0, apperrors.NewStoreUnavailable("increment clicks", err)
	}

	result, err := tx.ExecContext(ctx, r.rebind(`
	INSERT INTO click_events (event_id, link_id, occurred_at, occurred_day, referer, user_agent)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (event_id) DO NOTHING
	`), event.EventID, event.LinkID, event.OccurredAt.UTC(), event.Day, event.Referer, event.UserAgent)
	if err != nil {
		return 0, apperrors.NewStoreUnavailable("record click event", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewStoreUnavailable("record click event", err)
	}

	if inserted == 0 {
		// Already counted by an earlier attempt: undo this bump.
		if err := tx.Rollback(); err != nil {
			return 0, apperrors.NewStoreUnavailable("rollback duplicate click", err)
		}
		return r.currentClicks(ctx, event.LinkID)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewStoreUnavailable("commit increment", err)
	}

	return count, nil
}

func (r *SQLLinkRepository) currentClicks(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT click_count FROM links WHERE id = ?`), id).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("link %d: %w", id, apperrors.ErrLinkNotFound)
	}
	if err != nil {
		return 0, apperrors.NewStoreUnavailable("get click count", err)
	}
	return count, nil
}

func (r *SQLLinkRepository) CountClicksByDay(ctx context.Context, linkID int64, fromDay, toDay string) (map[string]int64, error) {
	query := r.rebind(`
	SELECT occurred_day, COUNT(*)
	FROM click_events
	WHERE link_id = ? AND occurred_day >= ? AND occurred_day <= ?
	GROUP BY occurred_day
	`)

	rows, err := r.db.QueryContext(ctx, query, linkID, fromDay, toDay)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable("count clicks by day", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, apperrors.NewStoreUnavailable("scan click bucket", err)
		}
		counts[day] = count
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable("count clicks by day", err)
	}

	return counts, nil
}

func (r *SQLLinkRepository) Ping(ctx context.Context) error {
	if err := database.HealthCheck(ctx, r.db); err != nil {
		return apperrors.NewStoreUnavailable("ping", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*model.Link, error) {
	link := &model.Link{}
	var code sql.NullString

	err := row.Scan(
		&link.ID,
		&link.OwnerID,
		&link.DestinationURL,
		&code,
		&link.ClickCount,
		&link.Active,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if code.Valid {
		c := code.String
		link.ShortCode = &c
	}

	return link, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (r *SQLLinkRepository) rebind(query string) string {
	if r.dialect != database.DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
