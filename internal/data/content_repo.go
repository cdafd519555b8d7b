package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/target/knowlio-web/internal/data/database"
	"github.com/target/knowlio-web/internal/data/pgxutil"
	"github.com/target/knowlio-web/internal/domain/model"
)

const (
	contentTable = "content_items"

	contentGetByIDQuery = `
		SELECT id, title, type, pricing_training, pricing_reference, sharing, created_at
		FROM content_items WHERE id = $1`

	contentDeleteQuery = `DELETE FROM content_items WHERE id = $1`

	contentSeedQuery = `
		INSERT INTO content_items (id, title, type, pricing_training, pricing_reference, sharing, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
)

var contentColumns = []string{
	"id", "title", "type", "pricing_training", "pricing_reference", "sharing", "created_at",
}

// ContentRepo provides database operations for the publisher content library.
type ContentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewContentRepo creates a new ContentRepo instance with the given database connection.
func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewContentRepoWithTimeProvider creates a ContentRepo with a custom TimeProvider (useful for testing).
func NewContentRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *ContentRepo {
	return &ContentRepo{DB: db, timeProvider: timeProvider}
}

// searchCondition matches title or type case-insensitively.
func searchCondition(search string) (database.Condition, bool) {
	search = strings.TrimSpace(search)
	if search == "" {
		return database.Condition{}, false
	}
	return database.WhereRawCond("(title ILIKE $1 OR type ILIKE $1)", "%"+escapeLike(search)+"%"), true
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns one page of items ordered by ID.
func (r *ContentRepo) List(ctx context.Context, opts model.ContentListOptions) ([]*model.ContentItem, error) {
	opts = opts.Normalize()
	qopts := []database.ListQueryOption{
		database.WithColumns(contentColumns...),
		database.WithOrderBy("id", "ASC"),
		database.WithLimit(opts.Limit),
		database.WithOffset(opts.Offset),
	}
	if cond, ok := searchCondition(opts.Search); ok {
		qopts = append(qopts, database.WithCondition(cond))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions(contentTable, qopts...))

	var items []model.ContentItem
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		items, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ContentItem])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list content items: %w", err)
	}

	result := make([]*model.ContentItem, len(items))
	for i := range items {
		result[i] = &items[i]
	}
	return result, nil
}

// Count returns the number of items matching search.
func (r *ContentRepo) Count(ctx context.Context, search string) (int, error) {
	qopts := []database.ListQueryOption{database.WithCountOnly()}
	if cond, ok := searchCondition(search); ok {
		qopts = append(qopts, database.WithCondition(cond))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions(contentTable, qopts...))

	var total int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count content items: %w", err)
	}
	return total, nil
}

// GetByID retrieves a single item.
func (r *ContentRepo) GetByID(ctx context.Context, id string) (*model.ContentItem, error) {
	var item model.ContentItem
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, contentGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		item, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ContentItem])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}
	return &item, nil
}

// Delete removes an item and reports whether it existed.
func (r *ContentRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, contentDeleteQuery, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete content item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete content item: %w", err)
	}
	return n > 0, nil
}

// Seed inserts missing items in one transaction and returns how many were added.
func (r *ContentRepo) Seed(ctx context.Context, items []model.ContentItem, reset bool) (int, error) {
	inserted := 0
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		if reset {
			if _, err := tx.Exec(ctx, "DELETE FROM content_items"); err != nil {
				return fmt.Errorf("reset content items: %w", err)
			}
		}
		now := r.timeProvider.Now()
		for _, it := range items {
			tag, err := tx.Exec(ctx, contentSeedQuery,
				it.ID, it.Title, string(it.Type), it.PricingTraining, it.PricingReference, it.Sharing, now)
			if err != nil {
				return fmt.Errorf("insert content item %s: %w", it.ID, err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to seed content items: %w", err)
	}
	return inserted, nil
}
