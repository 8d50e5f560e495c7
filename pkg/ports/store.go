package ports

import (
	"context"

	"github.com/aretw0/nvencoder/pkg/domain"
)

// ResultStore persists the outcome of every encoded file.
// It backs the "history" command and lets a batch be audited after the fact.
type ResultStore interface {
	// Save persists a result under result.ID, replacing any previous value.
	Save(ctx context.Context, result domain.FileResult) error

	// Load retrieves a result.
	// Returns domain.ErrResultNotFound if it does not exist.
	Load(ctx context.Context, id string) (domain.FileResult, error)

	// List returns results ordered by start time. An empty batchID lists every batch.
	List(ctx context.Context, batchID string) ([]domain.FileResult, error)

	// Delete removes a result. Deleting a missing result is not an error.
	Delete(ctx context.Context, id string) error
}
