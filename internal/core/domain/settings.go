package domain

import "time"

// ChunkingSettings holds document processor tuning.
type ChunkingSettings struct {
	// ChunkSize is the target window size in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared between adjacent
	// chunks.
	ChunkOverlap int

	// MinChunkLength is the minimum chunk length; shorter slices are
	// dropped.
	MinChunkLength int
}

// DefaultChunkingSettings returns the production chunking defaults.
func DefaultChunkingSettings() ChunkingSettings {
	return ChunkingSettings{
		ChunkSize:      1000,
		ChunkOverlap:   200,
		MinChunkLength: 50,
	}
}

// SearchSettings holds query engine tuning.
type SearchSettings struct {
	// MaxResults is the retrieval limit per query.
	MaxResults int

	// MinScore is the absolute score cutoff for general queries.
	// Results below it are dropped entirely.
	MinScore float64

	// TitleBoost weights the document-name field an order of magnitude
	// above the body for general queries.
	TitleBoost float64

	// BodyBoost weights the chunk-body field.
	BodyBoost float64

	// ContextLimit caps how many retrieved chunks are handed to the
	// answer generator.
	ContextLimit int
}

// DefaultSearchSettings returns the production search defaults.
func DefaultSearchSettings() SearchSettings {
	return SearchSettings{
		MaxResults:   20,
		MinScore:     0.1,
		TitleBoost:   50.0,
		BodyBoost:    1.0,
		ContextLimit: 10,
	}
}

// SyncSettings holds sync orchestrator tuning.
type SyncSettings struct {
	// Enabled toggles background synchronisation entirely.
	Enabled bool

	// Interval is the fixed period between scheduled pass attempts.
	Interval time.Duration
}

// DefaultSyncSettings returns the production sync defaults.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		Enabled:  true,
		Interval: 2 * time.Minute,
	}
}
