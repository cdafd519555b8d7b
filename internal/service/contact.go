package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/target/knowlio-web/internal/core"
	"github.com/target/knowlio-web/internal/domain/model"
	apperrors "github.com/target/knowlio-web/internal/errors"
)

// ValidationErrors carries per-field form messages. It unwraps to a
// validation AppError so callers can use apperrors.IsValidation.
type ValidationErrors struct {
	Fields model.FieldErrors
}

func (e *ValidationErrors) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationErrors) Unwrap() error {
	return apperrors.Validation("Please correct the highlighted fields.")
}

// ContactServiceOptions groups dependencies for ContactService.
type ContactServiceOptions struct {
	Repo   core.ContactRepository // Required
	Logger *slog.Logger           // Optional
}

// ContactService validates and stores contact form submissions.
type ContactService struct {
	repo   core.ContactRepository
	logger *slog.Logger
}

// NewContactService constructs a new ContactService.
func NewContactService(opts ContactServiceOptions) *ContactService {
	if opts.Repo == nil {
		panic("ContactRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{repo: opts.Repo, logger: logger.With("component", "contact_service")}
}

// Submit validates req and persists it. Invalid submissions return
// *ValidationErrors and never reach the repository.
func (s *ContactService) Submit(
	ctx context.Context,
	req *model.CreateContactMessageRequest,
) (*model.ContactMessage, error) {
	if req == nil {
		return nil, errors.New("contact request is nil")
	}
	req.Normalize()
	if fields := req.Validate(); len(fields) > 0 {
		return nil, &ValidationErrors{Fields: fields}
	}

	msg, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	s.logger.InfoContext(ctx, "contact message received", "id", msg.ID)
	return msg, nil
}

// List returns recent submissions, newest first.
func (s *ContactService) List(ctx context.Context, limit, offset int) ([]*model.ContactMessage, error) {
	return s.repo.List(ctx, limit, offset)
}
