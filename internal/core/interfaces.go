// Package core defines the repository ports the content and contact services depend on.
package core

import (
	"context"

	"github.com/target/knowlio-web/internal/domain/model"
)

// ContactRepository persists contact form submissions.
type ContactRepository interface {
	Create(ctx context.Context, req *model.CreateContactMessageRequest) (*model.ContactMessage, error)
	List(ctx context.Context, limit, offset int) ([]*model.ContactMessage, error)
}

// ContentRepository defines data operations for the publisher content library.
type ContentRepository interface {
	List(ctx context.Context, opts model.ContentListOptions) ([]*model.ContentItem, error)
	Count(ctx context.Context, search string) (int, error)
	GetByID(ctx context.Context, id string) (*model.ContentItem, error)
	Delete(ctx context.Context, id string) (bool, error)
	// Seed inserts the catalog items that are missing; reset removes everything first.
	Seed(ctx context.Context, items []model.ContentItem, reset bool) (int, error)
}
