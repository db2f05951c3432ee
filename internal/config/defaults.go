package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
// The defaults are the empirically tuned constants of the scoring components;
// treat them as a starting point, not invariants.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/takeoff.db"
	}
	if cfg.Catalog.DatabasePath == "" {
		cfg.Catalog.DatabasePath = "./data/catalog.db"
	}
	if cfg.Catalog.BleveIndexPath == "" {
		cfg.Catalog.BleveIndexPath = "./data/indices/catalog.bleve"
	}
	if cfg.Catalog.CandidateLimit == 0 {
		cfg.Catalog.CandidateLimit = 50
	}

	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = 120 * time.Second
	}
	if cfg.Extraction.MaxRetries == 0 {
		cfg.Extraction.MaxRetries = 3
	}
	if cfg.Extraction.MaxConcurrent == 0 {
		cfg.Extraction.MaxConcurrent = 3
	}

	applySimilarityDefaults(&cfg.Similarity)
	applyPageScoreDefaults(&cfg.PageScore)
	applyHeaderDefaults(&cfg.Header)
	applyChunkDefaults(&cfg.Chunk)
	applyMatchDefaults(&cfg.Match)

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".xlsx", ".docx", ".txt"}
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "./data/exports"
	}
}

func applySimilarityDefaults(c *SimilarityConfig) {
	if c.EditWeight == 0 {
		c.EditWeight = 0.30
	}
	if c.PrefixWeight == 0 {
		c.PrefixWeight = 0.30
	}
	if c.BigramWeight == 0 {
		c.BigramWeight = 0.20
	}
	if c.TokenWeight == 0 {
		c.TokenWeight = 0.15
	}
	if c.PhoneticBonus == 0 {
		c.PhoneticBonus = 0.05
	}
}

func applyPageScoreDefaults(c *PageScoreConfig) {
	if c.KeywordPoints == 0 {
		c.KeywordPoints = 2.0
	}
	if c.KeywordCap == 0 {
		c.KeywordCap = 20.0
	}
	if c.NumericWeight == 0 {
		c.NumericWeight = 30.0
	}
	if c.TabularPoints == 0 {
		c.TabularPoints = 25.0
	}
	if c.TabularMinFraction == 0 {
		c.TabularMinFraction = 0.30
	}
	if c.DenseLineCount == 0 {
		c.DenseLineCount = 25
	}
	if c.DenseLineBonus == 0 {
		c.DenseLineBonus = 10.0
	}
	if c.AdminPenalty == 0 {
		c.AdminPenalty = 40.0
	}
	if c.FirstPages == 0 {
		c.FirstPages = 2
	}
	if c.FirstPagesPenalty == 0 {
		c.FirstPagesPenalty = 10.0
	}
	if c.MinScore == 0 {
		c.MinScore = 30.0
	}
	if c.MaxPages == 0 {
		c.MaxPages = 40
	}
	if c.BufferPages == 0 {
		c.BufferPages = 1
	}
	if c.TwoPhaseThreshold == 0 {
		c.TwoPhaseThreshold = 150
	}
	if c.SampleInterval == 0 {
		c.SampleInterval = 5
	}
}

func applyHeaderDefaults(c *HeaderConfig) {
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.6
	}
	if c.PartialScore == 0 {
		c.PartialScore = 0.8
	}
	if c.PartialMinStem == 0 {
		c.PartialMinStem = 4
	}
	if c.CoreRoleWeight == 0 {
		c.CoreRoleWeight = 0.4
	}
	if c.SecondaryRoleWeight == 0 {
		c.SecondaryRoleWeight = 0.1
	}
}

func applyChunkDefaults(c *ChunkConfig) {
	if c.PagesPerChunk == 0 {
		c.PagesPerChunk = 5
	}
	if c.OverlapPages == 0 {
		c.OverlapPages = 1
	}
	if c.MaxChunks == 0 {
		c.MaxChunks = 20
	}
	if c.LengthMagnitude == 0 {
		c.LengthMagnitude = 100.0
	}
	if c.ImplausibleQuantity == 0 {
		c.ImplausibleQuantity = 10000.0
	}
	if c.DescriptionHashLen == 0 {
		c.DescriptionHashLen = 24
	}
}

func applyMatchDefaults(c *MatchConfig) {
	if c.MinScore == 0 {
		c.MinScore = 40.0
	}
	if c.MaxResults == 0 {
		c.MaxResults = 5
	}
	if c.AutoSelectThreshold == 0 {
		c.AutoSelectThreshold = 90.0
	}

	if c.PipeNPSExact == 0 {
		c.PipeNPSExact = 30
	}
	if c.PipeNPSClose == 0 {
		c.PipeNPSClose = 20
	}
	if c.PipeScheduleExact == 0 {
		c.PipeScheduleExact = 25
	}
	if c.PipeSchedulePartial == 0 {
		c.PipeSchedulePartial = 15
	}
	if c.PipeMaterialFamily == 0 {
		c.PipeMaterialFamily = 15
	}
	if c.PipeStandardExact == 0 {
		c.PipeStandardExact = 15
	}
	if c.PipeStandardPartial == 0 {
		c.PipeStandardPartial = 10
	}
	if c.PipeGradeExact == 0 {
		c.PipeGradeExact = 10
	}
	if c.PipeGradePartial == 0 {
		c.PipeGradePartial = 5
	}
	if c.PipeForm == 0 {
		c.PipeForm = 5
	}
	if c.PipeKeywordBonus == 0 {
		c.PipeKeywordBonus = 5
	}

	if c.BeamTypeExact == 0 {
		c.BeamTypeExact = 40
	}
	if c.BeamDepthExact == 0 {
		c.BeamDepthExact = 30
	}
	if c.BeamDepthClose == 0 {
		c.BeamDepthClose = 20
	}
	if c.BeamWeightExact == 0 {
		c.BeamWeightExact = 30
	}
	if c.BeamWeightClose == 0 {
		c.BeamWeightClose = 20
	}
	if c.BeamStandard == 0 {
		c.BeamStandard = 10
	}

	if c.TubularODExact == 0 {
		c.TubularODExact = 50
	}
	if c.TubularODClose == 0 {
		c.TubularODClose = 40
	}
	if c.TubularODLoose == 0 {
		c.TubularODLoose = 25
	}
	if c.TubularWallExact == 0 {
		c.TubularWallExact = 50
	}
	if c.TubularWallClose == 0 {
		c.TubularWallClose = 40
	}
	if c.TubularWallLoose == 0 {
		c.TubularWallLoose = 25
	}
	if c.TubularStandard == 0 {
		c.TubularStandard = 10
	}
	if c.TubularWallAbsMM == 0 {
		c.TubularWallAbsMM = 0.5
	}
	if c.TubularWallPctLow == 0 {
		c.TubularWallPctLow = 5
	}
	if c.TubularWallPctHi == 0 {
		c.TubularWallPctHi = 10
	}

	if c.PlateThkExact == 0 {
		c.PlateThkExact = 60
	}
	if c.PlateThkClose == 0 {
		c.PlateThkClose = 50
	}
	if c.PlateThkLoose == 0 {
		c.PlateThkLoose = 35
	}
	if c.PlateStandard == 0 {
		c.PlateStandard = 20
	}
	if c.PlateGrade == 0 {
		c.PlateGrade = 20
	}

	if c.GenericStandard == 0 {
		c.GenericStandard = 30
	}
	if c.GenericGrade == 0 {
		c.GenericGrade = 25
	}
	if c.GenericSize == 0 {
		c.GenericSize = 25
	}
	if c.GenericSchedule == 0 {
		c.GenericSchedule = 20
	}
	if c.GenericKeyword == 0 {
		c.GenericKeyword = 10
	}
	if c.GenericCode == 0 {
		c.GenericCode = 5
	}

	if c.PipeFallbackScore == 0 {
		c.PipeFallbackScore = 55
	}
	if c.GenericFallbackCap == 0 {
		c.GenericFallbackCap = 40
	}
	if c.FallbackMaxResults == 0 {
		c.FallbackMaxResults = 3
	}
	if c.CandidateCacheSize == 0 {
		c.CandidateCacheSize = 512
	}
	if c.CandidateCacheTTL == 0 {
		c.CandidateCacheTTL = 10 * time.Minute
	}
}

// DefaultConfig returns a Config populated entirely with defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
