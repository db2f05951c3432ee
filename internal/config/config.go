// Package config provides configuration loading and structs for the takeoff service.
// All tuned constants of the scoring and matching components live here as defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Similarity SimilarityConfig `yaml:"similarity"`
	PageScore  PageScoreConfig  `yaml:"page_score"`
	Header     HeaderConfig     `yaml:"header"`
	Chunk      ChunkConfig      `yaml:"chunk"`
	Match      MatchConfig      `yaml:"match"`
	Watch      WatchConfig      `yaml:"watch"`
	Export     ExportConfig     `yaml:"export"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the results database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CatalogConfig holds the catalog database and description index paths.
type CatalogConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
	// CandidateLimit bounds the candidate list returned per query.
	CandidateLimit int `yaml:"candidate_limit"`
}

// ExtractionConfig holds settings for the external extraction service call.
type ExtractionConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	// Timeout is the per-chunk call timeout.
	Timeout time.Duration `yaml:"timeout"`
	// MaxRetries is the number of attempts per chunk on retryable failures.
	MaxRetries int `yaml:"max_retries"`
	// MaxConcurrent bounds in-flight chunk extraction calls per document.
	MaxConcurrent int `yaml:"max_concurrent"`
	// UseMock substitutes the deterministic offline extractor (tests, dry runs).
	UseMock bool `yaml:"use_mock"`
}

// SimilarityConfig holds the fuzzy score combination weights.
// Defaults favor edit distance and prefix alignment equally.
type SimilarityConfig struct {
	EditWeight    float64 `yaml:"edit_weight"`    // default 0.30
	PrefixWeight  float64 `yaml:"prefix_weight"`  // default 0.30
	BigramWeight  float64 `yaml:"bigram_weight"`  // default 0.20
	TokenWeight   float64 `yaml:"token_weight"`   // default 0.15
	PhoneticBonus float64 `yaml:"phonetic_bonus"` // default 0.05, additive on exact code match
}

// PageScoreConfig holds page relevance scoring and selection settings.
type PageScoreConfig struct {
	// KeywordPoints is awarded per domain keyword occurrence, up to KeywordCap.
	KeywordPoints float64 `yaml:"keyword_points"` // default 2.0
	KeywordCap    float64 `yaml:"keyword_cap"`    // default 20.0
	// NumericWeight scales the numeric character density (0..1) into points.
	NumericWeight float64 `yaml:"numeric_weight"` // default 30.0
	// TabularPoints is awarded when the aligned-line fraction exceeds TabularMinFraction.
	TabularPoints      float64 `yaml:"tabular_points"`       // default 25.0
	TabularMinFraction float64 `yaml:"tabular_min_fraction"` // default 0.30
	// DenseLineCount and DenseLineBonus reward pages with many populated lines.
	DenseLineCount int     `yaml:"dense_line_count"` // default 25
	DenseLineBonus float64 `yaml:"dense_line_bonus"` // default 10.0
	// AdminPenalty is deducted when administrative/boilerplate keywords appear.
	AdminPenalty float64 `yaml:"admin_penalty"` // default 40.0
	// FirstPages and FirstPagesPenalty penalize leading cover/spec pages.
	FirstPages        int     `yaml:"first_pages"`         // default 2
	FirstPagesPenalty float64 `yaml:"first_pages_penalty"` // default 10.0
	// MinScore is the selection threshold; MaxPages caps the selection size.
	MinScore float64 `yaml:"min_score"` // default 30.0
	MaxPages int     `yaml:"max_pages"` // default 40
	// BufferPages expands the selection around each selected page.
	BufferPages int `yaml:"buffer_pages"` // default 1
	// TwoPhaseThreshold enables sampled scoring above this page count.
	TwoPhaseThreshold int `yaml:"two_phase_threshold"` // default 150
	// SampleInterval is the sparse-phase stride (every Nth page).
	SampleInterval int `yaml:"sample_interval"` // default 5
}

// HeaderConfig holds header reconstruction thresholds.
type HeaderConfig struct {
	// SimilarityThreshold gates the fuzzy strategy per role keyword.
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // default 0.6
	// PartialScore is assigned on a prefix-stem partial-word hit.
	PartialScore float64 `yaml:"partial_score"` // default 0.8
	// PartialMinStem is the minimum shared prefix length for a partial hit.
	PartialMinStem int `yaml:"partial_min_stem"` // default 4
	// CoreRoleWeight and SecondaryRoleWeight build the aggregate confidence.
	CoreRoleWeight      float64 `yaml:"core_role_weight"`      // default 0.4
	SecondaryRoleWeight float64 `yaml:"secondary_role_weight"` // default 0.1
}

// ChunkConfig holds chunk splitting and merge settings.
type ChunkConfig struct {
	PagesPerChunk int `yaml:"pages_per_chunk"` // default 5
	OverlapPages  int `yaml:"overlap_pages"`   // default 1
	// MaxChunks is the safety cap; pages beyond it are dropped and reported.
	MaxChunks int `yaml:"max_chunks"` // default 20
	// LengthMagnitude: a quantity with fractional precision at or above this
	// magnitude is suspected to be a length, not a piece count.
	LengthMagnitude float64 `yaml:"length_magnitude"` // default 100.0
	// ImplausibleQuantity: any quantity at or above this is suspected to be a length.
	ImplausibleQuantity float64 `yaml:"implausible_quantity"` // default 10000.0
	// DescriptionHashLen is the truncated-description dedup key length.
	DescriptionHashLen int `yaml:"description_hash_len"` // default 24
}

// MatchConfig holds material matching point values and thresholds.
type MatchConfig struct {
	// Ranking and selection.
	MinScore            float64 `yaml:"min_score"`             // default 40.0
	MaxResults          int     `yaml:"max_results"`           // default 5
	AutoSelectThreshold float64 `yaml:"auto_select_threshold"` // default 90.0

	// Pipe strategy.
	PipeNPSExact        float64 `yaml:"pipe_nps_exact"`        // default 30
	PipeNPSClose        float64 `yaml:"pipe_nps_close"`        // default 20 (within 0.5 in)
	PipeScheduleExact   float64 `yaml:"pipe_schedule_exact"`   // default 25
	PipeSchedulePartial float64 `yaml:"pipe_schedule_partial"` // default 15
	PipeMaterialFamily  float64 `yaml:"pipe_material_family"`  // default 15
	PipeStandardExact   float64 `yaml:"pipe_standard_exact"`   // default 15
	PipeStandardPartial float64 `yaml:"pipe_standard_partial"` // default 10
	PipeGradeExact      float64 `yaml:"pipe_grade_exact"`      // default 10
	PipeGradePartial    float64 `yaml:"pipe_grade_partial"`    // default 5
	PipeForm            float64 `yaml:"pipe_form"`             // default 5
	PipeKeywordBonus    float64 `yaml:"pipe_keyword_bonus"`    // default 5

	// Beam strategy.
	BeamTypeExact   float64 `yaml:"beam_type_exact"`   // default 40
	BeamDepthExact  float64 `yaml:"beam_depth_exact"`  // default 30 (0 mm)
	BeamDepthClose  float64 `yaml:"beam_depth_close"`  // default 20 (≤1 mm)
	BeamWeightExact float64 `yaml:"beam_weight_exact"` // default 30 (0%)
	BeamWeightClose float64 `yaml:"beam_weight_close"` // default 20 (≤5%)
	BeamStandard    float64 `yaml:"beam_standard"`     // default 10

	// Tubular strategy.
	TubularODExact    float64 `yaml:"tubular_od_exact"`    // default 50 (0%)
	TubularODClose    float64 `yaml:"tubular_od_close"`    // default 40 (≤1%)
	TubularODLoose    float64 `yaml:"tubular_od_loose"`    // default 25 (≤5%)
	TubularWallExact  float64 `yaml:"tubular_wall_exact"`  // default 50
	TubularWallClose  float64 `yaml:"tubular_wall_close"`  // default 40
	TubularWallLoose  float64 `yaml:"tubular_wall_loose"`  // default 25
	TubularStandard   float64 `yaml:"tubular_standard"`    // default 10
	TubularWallAbsMM  float64 `yaml:"tubular_wall_abs_mm"` // default 0.5 (close tier)
	TubularWallPctLow float64 `yaml:"tubular_wall_pct_lo"` // default 5
	TubularWallPctHi  float64 `yaml:"tubular_wall_pct_hi"` // default 10

	// Plate strategy.
	PlateThkExact float64 `yaml:"plate_thk_exact"` // default 60 (0 mm)
	PlateThkClose float64 `yaml:"plate_thk_close"` // default 50 (≤0.5 mm)
	PlateThkLoose float64 `yaml:"plate_thk_loose"` // default 35 (≤2 mm)
	PlateStandard float64 `yaml:"plate_standard"`  // default 20
	PlateGrade    float64 `yaml:"plate_grade"`     // default 20

	// Generic strategy.
	GenericStandard float64 `yaml:"generic_standard"` // default 30
	GenericGrade    float64 `yaml:"generic_grade"`    // default 25
	GenericSize     float64 `yaml:"generic_size"`     // default 25
	GenericSchedule float64 `yaml:"generic_schedule"` // default 20
	GenericKeyword  float64 `yaml:"generic_keyword"`  // default 10
	GenericCode     float64 `yaml:"generic_code"`     // default 5

	// Fallback matching.
	PipeFallbackScore  float64       `yaml:"pipe_fallback_score"`  // default 55
	GenericFallbackCap float64       `yaml:"generic_fallback_cap"` // default 40
	FallbackMaxResults int           `yaml:"fallback_max_results"` // default 3
	CandidateCacheSize int           `yaml:"candidate_cache_size"` // default 512
	CandidateCacheTTL  time.Duration `yaml:"candidate_cache_ttl"`  // default 10m
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// ExportConfig holds workbook export settings.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Catalog.DatabasePath = expandPath(cfg.Catalog.DatabasePath, configDir)
	cfg.Catalog.BleveIndexPath = expandPath(cfg.Catalog.BleveIndexPath, configDir)
	cfg.Export.OutputDir = expandPath(cfg.Export.OutputDir, configDir)
	if cfg.Watch.Directory != "" {
		cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
