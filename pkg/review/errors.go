package review

import (
	"errors"

	"github.com/mkoval/deckwise/pkg/srs"
)

var (
	// ErrNotFound covers unknown or inactive decks, unknown items on a
	// single-item submission, and unknown users.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is surfaced by stores on a (user, item) uniqueness
	// conflict. The initialization path folds it into the already-exists
	// count instead of failing.
	ErrAlreadyExists = errors.New("statistic already exists")

	ErrUnknownKind = errors.New("unknown item kind")
	ErrEmptyBatch  = errors.New("empty review batch")
)

// ErrInvalidQuality re-exports the algorithm's validation error so callers
// can test with errors.Is without importing pkg/srs.
var ErrInvalidQuality = srs.ErrInvalidQuality
