package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	_ "github.com/mattn/go-sqlite3"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/match"
	"github.com/norsteel/takeoff/internal/models"
)

// npsWindow is the size tolerance for pipe candidate narrowing, matching
// the matcher's close-size tier.
const npsWindow = 0.5

// SQLiteStore implements Store on SQLite with a bleve description index for
// free-text candidate retrieval.
type SQLiteStore struct {
	db  *sql.DB
	idx bleve.Index
	cfg *config.CatalogConfig
}

// NewSQLiteStore opens or creates the catalog database and its description
// index. Parent directories are created if they do not exist.
func NewSQLiteStore(cfg *config.CatalogConfig) (*SQLiteStore, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize catalog schema: %w", err)
	}

	idx, err := openDescriptionIndex(cfg.BleveIndexPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, idx: idx, cfg: cfg}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS materials (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		nps_inch REAL,
		schedule TEXT,
		od_mm REAL,
		wall_thickness_mm REAL,
		beam_type TEXT,
		beam_depth_mm REAL,
		beam_weight_kg_m REAL,
		plate_thickness_mm REAL,
		spec_standard TEXT,
		grade TEXT,
		form TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_materials_category ON materials(category);
	CREATE INDEX IF NOT EXISTS idx_materials_category_nps ON materials(category, nps_inch);

	CREATE TABLE IF NOT EXISTS pipe_dimensions (
		material_id TEXT NOT NULL,
		nps_inch REAL NOT NULL,
		schedule TEXT NOT NULL,
		od_mm REAL NOT NULL,
		wall_mm REAL NOT NULL,
		is_preferred INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (material_id, schedule),
		FOREIGN KEY (material_id) REFERENCES materials(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_pipe_dimensions_nps ON pipe_dimensions(nps_inch);
	`
	_, err := db.Exec(schema)
	return err
}

// materialDoc is the bleve document shape for one catalog entry.
type materialDoc struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// openDescriptionIndex creates or opens the bleve index. The standard
// analyzer (lowercase + tokenize, no stemming) keeps designations like
// "SCH40" and "A106" searchable as written.
func openDescriptionIndex(path string) (bleve.Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open description index: %w", openErr)
		}
		return idx, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	docMapping.AddFieldMappingsAt("code", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("category", keywordFieldMapping)
	im.AddDocumentMapping("material", docMapping)
	im.DefaultType = "material"
	im.DefaultMapping = docMapping

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create description index: %w", err)
	}
	return idx, nil
}

const materialColumns = `id, code, description, category, nps_inch, schedule, od_mm,
	wall_thickness_mm, beam_type, beam_depth_mm, beam_weight_kg_m,
	plate_thickness_mm, spec_standard, grade, form`

func scanMaterial(row interface{ Scan(...any) error }) (*models.Material, error) {
	var m models.Material
	err := row.Scan(&m.ID, &m.Code, &m.Description, &m.Category, &m.NPSInch,
		&m.Schedule, &m.ODMM, &m.WallThicknessMM, &m.BeamType, &m.BeamDepthMM,
		&m.BeamWeightKgM, &m.PlateThicknessMM, &m.SpecStandard, &m.Grade, &m.Form)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindCandidates retrieves materials for the item: a category query (size
// narrowed for pipes) first, then description keyword hits fill the
// remainder, capped at the configured limit. A pipe size window, once
// established, bounds every retrieval path including the description fill.
func (s *SQLiteStore) FindCandidates(ctx context.Context, item *models.MergedLineItem) ([]models.Material, error) {
	limit := s.cfg.CandidateLimit
	seen := make(map[string]struct{})
	var out []models.Material

	category := match.CategoryOf(item)
	var nps float64
	sizeNarrowed := false
	if category == models.CategoryPipe {
		nps, sizeNarrowed = itemNPS(item)
	}

	add := func(mats []models.Material) {
		for _, m := range mats {
			if len(out) >= limit {
				return
			}
			if _, ok := seen[m.ID]; ok {
				continue
			}
			// Pipe descriptions share most tokens across sizes, so keyword
			// hits outside the size window are not candidates.
			if sizeNarrowed && m.Category == models.CategoryPipe && m.NPSInch != nil &&
				math.Abs(*m.NPSInch-nps) > npsWindow {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, m)
		}
	}

	if category != "" {
		mats, err := s.materialsByCategory(ctx, item, category, limit)
		if err != nil {
			return nil, err
		}
		add(mats)
	}

	if len(out) < limit && item.Description != "" {
		mats, err := s.materialsByDescription(ctx, item.Description, limit)
		if err != nil {
			return nil, err
		}
		add(mats)
	}
	return out, nil
}

func (s *SQLiteStore) materialsByCategory(ctx context.Context, item *models.MergedLineItem, category string, limit int) ([]models.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE category = ? ORDER BY code LIMIT ?`
	args := []any{category, limit}

	if category == models.CategoryPipe {
		if nps, ok := itemNPS(item); ok {
			query = `SELECT ` + materialColumns + ` FROM materials
				WHERE category = ? AND (nps_inch IS NULL OR ABS(nps_inch - ?) <= ?)
				ORDER BY code LIMIT ?`
			args = []any{category, nps, npsWindow, limit}
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category query: %w", err)
	}
	defer rows.Close()

	var mats []models.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		mats = append(mats, *m)
	}
	return mats, rows.Err()
}

// itemNPS extracts a nominal pipe size from the item's size fields or
// description, in that order.
func itemNPS(item *models.MergedLineItem) (float64, bool) {
	for _, text := range []string{models.StrVal(item.Size1), models.StrVal(item.Size2), item.Description} {
		if text == "" {
			continue
		}
		if nps, ok := match.ParseNPS(text); ok {
			return nps, true
		}
	}
	return 0, false
}

func (s *SQLiteStore) materialsByDescription(ctx context.Context, desc string, limit int) ([]models.Material, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(desc))
	req.Size = limit
	res, err := s.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("description search: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(res.Hits))
	placeholders := make([]string, len(res.Hits))
	args := make([]any, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
		placeholders[i] = "?"
		args[i] = hit.ID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("fetch hits: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]models.Material, len(res.Hits))
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		byID[m.ID] = *m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve bleve's relevance order.
	mats := make([]models.Material, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			mats = append(mats, m)
		}
	}
	return mats, nil
}

// MaterialByID resolves one material.
func (s *SQLiteStore) MaterialByID(id string) (*models.Material, error) {
	m, err := scanMaterial(s.db.QueryRow(
		`SELECT `+materialColumns+` FROM materials WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("material not found: %s", id)
	}
	return m, err
}

// MaterialByCode resolves one material by catalog code.
func (s *SQLiteStore) MaterialByCode(ctx context.Context, code string) (*models.Material, error) {
	m, err := scanMaterial(s.db.QueryRowContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE code = ?`, code))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("material not found: %s", code)
	}
	return m, err
}

// PipeDimensions returns all dimension rows for a nominal size.
func (s *SQLiteStore) PipeDimensions(npsInch float64) ([]models.PipeDimension, error) {
	rows, err := s.db.Query(
		`SELECT material_id, nps_inch, schedule, od_mm, wall_mm, is_preferred
		 FROM pipe_dimensions WHERE nps_inch = ? ORDER BY schedule`, npsInch)
	if err != nil {
		return nil, fmt.Errorf("pipe dimensions query: %w", err)
	}
	defer rows.Close()

	var dims []models.PipeDimension
	for rows.Next() {
		var d models.PipeDimension
		if err := rows.Scan(&d.MaterialID, &d.NPSInch, &d.Schedule, &d.ODMM, &d.WallMM, &d.IsPreferred); err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

// BatchUpsertMaterials writes materials in one transaction and refreshes
// the description index.
func (s *SQLiteStore) BatchUpsertMaterials(ctx context.Context, mats []models.Material) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO materials (`+materialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			description = excluded.description,
			category = excluded.category,
			nps_inch = excluded.nps_inch,
			schedule = excluded.schedule,
			od_mm = excluded.od_mm,
			wall_thickness_mm = excluded.wall_thickness_mm,
			beam_type = excluded.beam_type,
			beam_depth_mm = excluded.beam_depth_mm,
			beam_weight_kg_m = excluded.beam_weight_kg_m,
			plate_thickness_mm = excluded.plate_thickness_mm,
			spec_standard = excluded.spec_standard,
			grade = excluded.grade,
			form = excluded.form`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range mats {
		m := &mats[i]
		if _, err := stmt.ExecContext(ctx, m.ID, m.Code, m.Description, m.Category,
			m.NPSInch, m.Schedule, m.ODMM, m.WallThicknessMM, m.BeamType,
			m.BeamDepthMM, m.BeamWeightKgM, m.PlateThicknessMM, m.SpecStandard,
			m.Grade, m.Form); err != nil {
			return fmt.Errorf("upsert material %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	batch := s.idx.NewBatch()
	for i := range mats {
		m := &mats[i]
		if err := batch.Index(m.ID, materialDoc{Code: m.Code, Description: m.Description, Category: m.Category}); err != nil {
			return fmt.Errorf("index material %s: %w", m.ID, err)
		}
	}
	return s.idx.Batch(batch)
}

// UpsertPipeDimensions writes dimension rows in one transaction.
func (s *SQLiteStore) UpsertPipeDimensions(ctx context.Context, dims []models.PipeDimension) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pipe_dimensions (material_id, nps_inch, schedule, od_mm, wall_mm, is_preferred)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(material_id, schedule) DO UPDATE SET
			nps_inch = excluded.nps_inch,
			od_mm = excluded.od_mm,
			wall_mm = excluded.wall_mm,
			is_preferred = excluded.is_preferred`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range dims {
		if _, err := stmt.ExecContext(ctx, d.MaterialID, d.NPSInch, d.Schedule, d.ODMM, d.WallMM, d.IsPreferred); err != nil {
			return fmt.Errorf("upsert dimension %s/%s: %w", d.MaterialID, d.Schedule, err)
		}
	}
	return tx.Commit()
}

// CountMaterials reports the catalog size.
func (s *SQLiteStore) CountMaterials(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM materials`).Scan(&n)
	return n, err
}

// Close releases the database and the index.
func (s *SQLiteStore) Close() error {
	idxErr := s.idx.Close()
	dbErr := s.db.Close()
	if idxErr != nil {
		return idxErr
	}
	return dbErr
}
