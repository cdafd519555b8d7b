package data

import apperrors "github.com/target/knowlio-web/internal/errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrContentNotFound is returned when a content item does not exist.
	ErrContentNotFound = apperrors.NotFound("content item not found")
)
