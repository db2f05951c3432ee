// Package store persists ingested documents, their merged line items, and
// match decisions.
package store

import (
	"context"

	"github.com/norsteel/takeoff/internal/models"
)

// Store is the persistence interface for ingestion results.
type Store interface {
	// CreateDocument inserts a document record.
	CreateDocument(ctx context.Context, doc *models.Document) error
	// UpdateDocument rewrites a document's mutable fields (status, counts, error).
	UpdateDocument(ctx context.Context, doc *models.Document) error
	// GetDocument fetches one document by ID.
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// ListDocuments returns documents newest first, bounded by limit.
	ListDocuments(ctx context.Context, limit int) ([]models.Document, error)

	// ReplaceItems replaces all line items (with their match outcomes) for a document.
	ReplaceItems(ctx context.Context, documentID string, items []models.MatchedItem) error
	// GetItems returns a document's line items with match outcomes, in item order.
	GetItems(ctx context.Context, documentID string) ([]models.MatchedItem, error)

	// CountDocuments reports the number of stored documents.
	CountDocuments(ctx context.Context) (int64, error)
	// CountItems reports the number of stored line items.
	CountItems(ctx context.Context) (int64, error)

	Close() error
}
