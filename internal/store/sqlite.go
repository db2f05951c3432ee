package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/norsteel/takeoff/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0,
		selected_pages INTEGER NOT NULL DEFAULT 0,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		failed_chunks INTEGER NOT NULL DEFAULT 0,
		item_count INTEGER NOT NULL DEFAULT 0,
		deduplicated_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

	CREATE TABLE IF NOT EXISTS line_items (
		document_id TEXT NOT NULL,
		item_index INTEGER NOT NULL,
		item_json TEXT NOT NULL,
		decision TEXT NOT NULL,
		outcome_json TEXT NOT NULL,
		PRIMARY KEY (document_id, item_index),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_line_items_decision ON line_items(document_id, decision);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document record.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, page_count, selected_pages, chunk_count,
			failed_chunks, item_count, deduplicated_count, status, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.PageCount, doc.SelectedPages, doc.ChunkCount,
		doc.FailedChunks, doc.ItemCount, doc.DeduplicatedCount, doc.Status, doc.Error,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// UpdateDocument rewrites a document's mutable fields.
func (s *SQLiteStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET page_count = ?, selected_pages = ?, chunk_count = ?,
			failed_chunks = ?, item_count = ?, deduplicated_count = ?, status = ?,
			error = ?, updated_at = ?
		WHERE id = ?`,
		doc.PageCount, doc.SelectedPages, doc.ChunkCount, doc.FailedChunks,
		doc.ItemCount, doc.DeduplicatedCount, doc.Status, doc.Error, doc.UpdatedAt, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document not found: %s", doc.ID)
	}
	return nil
}

const documentColumns = `id, filename, page_count, selected_pages, chunk_count,
	failed_chunks, item_count, deduplicated_count, status, error, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.Filename, &d.PageCount, &d.SelectedPages, &d.ChunkCount,
		&d.FailedChunks, &d.ItemCount, &d.DeduplicatedCount, &d.Status, &d.Error,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDocument fetches one document by ID.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns documents newest first, bounded by limit.
func (s *SQLiteStore) ListDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// ReplaceItems replaces all line items for a document in one transaction.
func (s *SQLiteStore) ReplaceItems(ctx context.Context, documentID string, items []models.MatchedItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM line_items WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO line_items (document_id, item_index, item_json, decision, outcome_json)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range items {
		itemJSON, err := json.Marshal(items[i].Item)
		if err != nil {
			return fmt.Errorf("failed to marshal item %d: %w", i, err)
		}
		outcomeJSON, err := json.Marshal(items[i].Outcome)
		if err != nil {
			return fmt.Errorf("failed to marshal outcome %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, documentID, i, string(itemJSON),
			items[i].Outcome.Decision, string(outcomeJSON)); err != nil {
			return fmt.Errorf("failed to insert item %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// GetItems returns a document's line items with match outcomes, in item order.
func (s *SQLiteStore) GetItems(ctx context.Context, documentID string) ([]models.MatchedItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_json, outcome_json FROM line_items
		WHERE document_id = ? ORDER BY item_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []models.MatchedItem
	for rows.Next() {
		var itemJSON, outcomeJSON string
		if err := rows.Scan(&itemJSON, &outcomeJSON); err != nil {
			return nil, err
		}
		var mi models.MatchedItem
		if err := json.Unmarshal([]byte(itemJSON), &mi.Item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		if err := json.Unmarshal([]byte(outcomeJSON), &mi.Outcome); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
		}
		items = append(items, mi)
	}
	return items, rows.Err()
}

// CountDocuments reports the number of stored documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// CountItems reports the number of stored line items.
func (s *SQLiteStore) CountItems(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM line_items`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
