package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/knowlio-web/internal/data/pgxutil"
	"github.com/target/knowlio-web/internal/domain/model"
	apperrors "github.com/target/knowlio-web/internal/errors"
)

const (
	contactInsertQuery = `
		INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, name, email, subject, message, created_at`

	contactListQuery = `
		SELECT id::text, name, email, subject, message, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`
)

// ContactRepo stores contact form submissions.
type ContactRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewContactRepo creates a new ContactRepo instance with the given database connection.
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewContactRepoWithTimeProvider creates a ContactRepo with a custom TimeProvider (useful for testing).
func NewContactRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *ContactRepo {
	return &ContactRepo{DB: db, timeProvider: timeProvider}
}

// Create persists a submission. The request is expected to be validated already.
func (r *ContactRepo) Create(
	ctx context.Context,
	req *model.CreateContactMessageRequest,
) (*model.ContactMessage, error) {
	if req == nil {
		return nil, errors.New("create contact message request is required")
	}

	var out model.ContactMessage
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, contactInsertQuery,
			uuid.NewString(), req.Name, req.Email, req.Subject, req.Message, r.timeProvider.Now())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create contact message: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// List returns submissions, newest first.
func (r *ContactRepo) List(ctx context.Context, limit, offset int) ([]*model.ContactMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var msgs []model.ContactMessage
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, contactListQuery, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		msgs, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}

	result := make([]*model.ContactMessage, len(msgs))
	for i := range msgs {
		result[i] = &msgs[i]
	}
	return result, nil
}
