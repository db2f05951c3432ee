// Package catalog provides the material reference store consumed by
// matching: candidate retrieval by category, size, and description
// keywords, plus the standard pipe dimension table.
package catalog

import (
	"context"

	"github.com/norsteel/takeoff/internal/models"
)

// Store is the material catalog. Implementations own candidate retrieval;
// the matcher only scores what it is given. MaterialByID and PipeDimensions
// take no context so the store satisfies the matcher's dimension source
// directly.
type Store interface {
	// FindCandidates returns materials plausibly matching the item, found
	// by category, size window, and description keywords, bounded by the
	// configured candidate limit.
	FindCandidates(ctx context.Context, item *models.MergedLineItem) ([]models.Material, error)
	// MaterialByID resolves one material.
	MaterialByID(id string) (*models.Material, error)
	// MaterialByCode resolves one material by catalog code.
	MaterialByCode(ctx context.Context, code string) (*models.Material, error)
	// PipeDimensions returns the standard dimension rows for a nominal size.
	PipeDimensions(npsInch float64) ([]models.PipeDimension, error)

	// BatchUpsertMaterials loads or refreshes catalog entries.
	BatchUpsertMaterials(ctx context.Context, mats []models.Material) error
	// UpsertPipeDimensions loads or refreshes dimension rows.
	UpsertPipeDimensions(ctx context.Context, dims []models.PipeDimension) error
	// CountMaterials reports the catalog size.
	CountMaterials(ctx context.Context) (int64, error)

	Close() error
}
