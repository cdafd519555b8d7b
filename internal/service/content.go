package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/target/knowlio-web/internal/core"
	"github.com/target/knowlio-web/internal/domain/model"
	apperrors "github.com/target/knowlio-web/internal/errors"
	"golang.org/x/sync/errgroup"
)

// ContentServiceOptions groups dependencies for ContentService.
type ContentServiceOptions struct {
	Repo core.ContentRepository // Required
}

// ContentService backs the publisher dashboard's content library.
type ContentService struct {
	repo core.ContentRepository
}

// NewContentService constructs a new ContentService.
func NewContentService(opts ContentServiceOptions) *ContentService {
	if opts.Repo == nil {
		panic("ContentRepository is required")
	}
	return &ContentService{repo: opts.Repo}
}

// Page returns one page of the library together with the total match count.
func (s *ContentService) Page(ctx context.Context, opts model.ContentListOptions) (*model.ContentPage, error) {
	opts = opts.Normalize()

	var (
		items []*model.ContentItem
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.List(gctx, opts)
		if err != nil {
			return fmt.Errorf("list content: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, opts.Search)
		if err != nil {
			return fmt.Errorf("count content: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &model.ContentPage{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

// Get returns a single item.
func (s *ContentService) Get(ctx context.Context, id string) (*model.ContentItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ValidationField("id", "content id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes an item; a missing item is reported as not found.
func (s *ContentService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.ValidationField("id", "content id is required")
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if !ok {
		return apperrors.NotFoundf("content item %s not found", id)
	}
	return nil
}

// Seed loads the default catalog. With reset, existing items are removed first.
func (s *ContentService) Seed(ctx context.Context, reset bool) (int, error) {
	n, err := s.repo.Seed(ctx, model.DefaultCatalog(), reset)
	if err != nil {
		return 0, fmt.Errorf("seed content: %w", err)
	}
	return n, nil
}
