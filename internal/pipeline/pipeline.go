// Package pipeline orchestrates document ingestion: page scoring, chunk
// splitting, concurrent extraction, merging, matching, and persistence.
// Per-chunk extraction failures degrade the result, never abort it.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/norsteel/takeoff/internal/catalog"
	"github.com/norsteel/takeoff/internal/chunk"
	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/document"
	"github.com/norsteel/takeoff/internal/extraction"
	"github.com/norsteel/takeoff/internal/match"
	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/internal/pagescore"
	"github.com/norsteel/takeoff/internal/store"
	"github.com/norsteel/takeoff/pkg/utils"
)

// Deps are the external collaborators the pipeline orchestrates.
type Deps struct {
	Source    document.Source
	Extractor extraction.Extractor
	Catalog   catalog.Store
	Store     store.Store
	Logger    *zap.Logger
}

// Pipeline runs the full ingest flow for one document at a time. Safe for
// concurrent use across documents.
type Pipeline struct {
	cfg      *config.Config
	source   document.Source
	scorer   *pagescore.Scorer
	splitter *chunk.Splitter
	merger   *chunk.Merger
	matcher  *match.Matcher
	cache    *match.CandidateCache

	extractor extraction.Extractor
	catalog   catalog.Store
	store     store.Store
	logger    *zap.Logger
}

// New builds a pipeline from config and collaborators. The candidate cache
// is owned here and shared across documents.
func New(cfg *config.Config, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		source:    deps.Source,
		scorer:    pagescore.NewScorer(&cfg.PageScore),
		splitter:  chunk.NewSplitter(&cfg.Chunk, chunk.WithLogger(logger)),
		merger:    chunk.NewMerger(&cfg.Chunk),
		matcher:   match.NewMatcher(&cfg.Match, deps.Catalog),
		cache:     match.NewCandidateCache(cfg.Match.CandidateCacheSize, cfg.Match.CandidateCacheTTL),
		extractor: deps.Extractor,
		catalog:   deps.Catalog,
		store:     deps.Store,
		logger:    logger,
	}
}

// Summary is the result of ingesting one document.
type Summary struct {
	Document       models.Document      `json:"document"`
	Selection      models.PageSelection `json:"selection"`
	FailedChunks   []models.FailedChunk `json:"failed_chunks,omitempty"`
	TruncatedPages []int                `json:"truncated_pages,omitempty"`
	Items          []models.MatchedItem `json:"items"`
}

// Ingest runs the full pipeline on one document: extract pages, score and
// select, split into chunks, extract each chunk concurrently, merge, match
// every merged item, and persist. Returns an error only for infrastructure
// failures (unreadable file, database errors); data-quality problems are
// carried in the summary.
func (p *Pipeline) Ingest(ctx context.Context, filename string, content []byte) (*Summary, error) {
	doc := models.Document{
		ID:       uuid.NewString(),
		Filename: filename,
		Status:   models.StatusProcessing,
	}
	if err := p.store.CreateDocument(ctx, &doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	log := p.logger.With(zap.String("document_id", doc.ID), zap.String("filename", filename))

	ext := strings.ToLower(filepath.Ext(filename))
	pages, err := p.source.ExtractPages(content, ext)
	if err != nil {
		doc.Status = models.StatusFailed
		doc.Error = err.Error()
		if uerr := p.store.UpdateDocument(ctx, &doc); uerr != nil {
			log.Error("failed to record extraction failure", zap.Error(uerr))
		}
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	doc.PageCount = pages.PageCount
	log.Info("pages extracted", zap.Int("page_count", pages.PageCount))

	selection := p.scorer.ScorePages(pages.Texts)
	doc.SelectedPages = len(selection.SelectedPages)
	log.Info("pages scored",
		zap.Int("selected", len(selection.SelectedPages)),
		zap.Float64("compression_ratio", utils.Round2(selection.CompressionRatio)))

	summary := &Summary{Selection: selection}
	if len(selection.SelectedPages) == 0 {
		// Nothing relevant found; an empty document is a result, not an error.
		log.Warn("no relevant pages found")
		doc.Status = models.StatusCompleted
		if err := p.store.UpdateDocument(ctx, &doc); err != nil {
			return nil, fmt.Errorf("update document: %w", err)
		}
		summary.Document = doc
		return summary, nil
	}

	chunkPages := make([]chunk.Page, 0, len(selection.SelectedPages))
	for _, n := range selection.SelectedPages {
		if n < 1 || n > len(pages.Texts) {
			continue
		}
		chunkPages = append(chunkPages, chunk.Page{Number: n, Text: pages.Texts[n-1]})
	}
	split := p.splitter.Split(chunkPages, pages.PageCount)
	doc.ChunkCount = len(split.Chunks)
	summary.TruncatedPages = split.TruncatedPages

	results := p.extractChunks(ctx, split.Chunks, log)
	merged := p.merger.Merge(results, split.Chunks)
	doc.FailedChunks = len(merged.FailedChunks)
	doc.ItemCount = len(merged.LineItems)
	doc.DeduplicatedCount = merged.DeduplicatedCount
	summary.FailedChunks = merged.FailedChunks
	log.Info("chunks merged",
		zap.Int("items", len(merged.LineItems)),
		zap.Int("failed_chunks", len(merged.FailedChunks)),
		zap.Int("deduplicated", merged.DeduplicatedCount))

	items := make([]models.MatchedItem, 0, len(merged.LineItems))
	for i := range merged.LineItems {
		item := merged.LineItems[i]
		outcome, err := p.MatchItem(ctx, &item)
		if err != nil {
			return nil, fmt.Errorf("match item %d: %w", i, err)
		}
		items = append(items, models.MatchedItem{Item: item, Outcome: outcome})
	}
	summary.Items = items

	if err := p.store.ReplaceItems(ctx, doc.ID, items); err != nil {
		return nil, fmt.Errorf("persist items: %w", err)
	}

	if len(split.Chunks) > 0 && len(merged.FailedChunks) == len(split.Chunks) {
		doc.Status = models.StatusFailed
		doc.Error = "all chunks failed extraction"
	} else {
		doc.Status = models.StatusCompleted
	}
	if err := p.store.UpdateDocument(ctx, &doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	summary.Document = doc
	log.Info("document ingested", zap.String("status", doc.Status))
	return summary, nil
}

// extractChunks dispatches chunk extraction under a concurrency bound and
// retries retryable failures with backoff. Failed chunks come back as
// ChunkResults carrying the error text; collection order does not matter to
// the merger.
func (p *Pipeline) extractChunks(ctx context.Context, chunks []models.Chunk, log *zap.Logger) []models.ChunkResult {
	maxConcurrent := p.cfg.Extraction.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	maxRetries := p.cfg.Extraction.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	out := make(chan models.ChunkResult, len(chunks))
	sem := make(chan struct{}, maxConcurrent)

	for _, c := range chunks {
		sem <- struct{}{}
		go func(c models.Chunk) {
			defer func() { <-sem }()

			var items []models.ExtractedLineItem
			var lastErr error
			for attempt := 0; attempt < maxRetries; attempt++ {
				items, lastErr = p.extractor.ExtractChunk(ctx, c)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable extraction error",
					zap.Int("chunk_index", c.ChunkIndex),
					zap.Int("attempt", attempt),
					zap.Error(lastErr))
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					out <- models.ChunkResult{ChunkIndex: c.ChunkIndex, Error: ctx.Err().Error()}
					return
				}
			}

			result := models.ChunkResult{ChunkIndex: c.ChunkIndex, Items: items}
			if lastErr != nil {
				result.Items = nil
				result.Error = lastErr.Error()
				log.Error("chunk extraction failed",
					zap.Int("chunk_index", c.ChunkIndex),
					zap.Int("start_page", c.StartPage),
					zap.Int("end_page", c.EndPage),
					zap.Error(lastErr))
			}
			out <- result
		}(c)
	}

	results := make([]models.ChunkResult, 0, len(chunks))
	for range chunks {
		results = append(results, <-out)
	}
	return results
}

// MatchItem finds catalog candidates for one item (through the shared cache)
// and scores them into a decision.
func (p *Pipeline) MatchItem(ctx context.Context, item *models.MergedLineItem) (models.MatchOutcome, error) {
	key := candidateKey(item)
	candidates, ok := p.cache.Get(key)
	if !ok {
		var err error
		candidates, err = p.catalog.FindCandidates(ctx, item)
		if err != nil {
			return models.MatchOutcome{}, fmt.Errorf("find candidates: %w", err)
		}
		p.cache.Set(key, candidates)
	}
	return p.matcher.Outcome(item, candidates), nil
}

// candidateKey keys the candidate cache on the fields that drive catalog
// retrieval: category, sizes, and normalized description.
func candidateKey(item *models.MergedLineItem) string {
	return strings.Join([]string{
		match.CategoryOf(item),
		models.StrVal(item.Size1),
		models.StrVal(item.Size2),
		strings.ToUpper(utils.NormalizeSpace(item.Description)),
	}, "|")
}

