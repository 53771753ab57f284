// Package bleveindex provides the search index adapter backed by an
// embedded Bleve index. Chunk records and permanent-failure markers
// share the index; markers carry a sentinel source label and a
// dedicated failed_id field so the two populations never mix in
// enumeration or retrieval.
package bleveindex

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.Index = (*Index)(nil)

// failedIDPrefix namespaces failure-marker record IDs so they can never
// collide with chunk record IDs.
const failedIDPrefix = "_failed_"

// pageSize bounds enumeration and deletion scans.
const pageSize = 1000

// Index is the Bleve-backed implementation of the index port.
type Index struct {
	idx  bleve.Index
	path string
}

// chunkRecord is the stored shape of a chunk or failure marker.
type chunkRecord struct {
	ParentID    string `json:"parent_id,omitempty"`
	Sequence    int    `json:"sequence"`
	Text        string `json:"text,omitempty"`
	ParentName  string `json:"parent_name,omitempty"`
	SourceLabel string `json:"source_label"`
	ContentType string `json:"content_type,omitempty"`
	ViewURL     string `json:"view_url,omitempty"`
	ModifiedAt  string `json:"modified_at,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`

	// FailedID is set only on failure markers. Keeping it separate from
	// ParentID keeps the indexed and failed populations disjoint when
	// either side is enumerated.
	FailedID string `json:"failed_id,omitempty"`
}

// Open opens the index at path, creating it with the chunk mapping when
// absent.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		logger.Info("Creating new search index at %s", path)
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{idx: idx, path: path}, nil
}

// OpenMemOnly creates a transient in-memory index. Used by tests.
func OpenMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("open mem-only index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// buildMapping defines the chunk record schema: analysed text fields
// for the name and body, keyword fields for identifiers and labels.
func buildMapping() mapping.IndexMapping {
	record := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	record.AddFieldMappingsAt("text", text)
	record.AddFieldMappingsAt("parent_name", bleve.NewTextFieldMapping())

	keywordField := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		return f
	}
	record.AddFieldMappingsAt("parent_id", keywordField())
	record.AddFieldMappingsAt("failed_id", keywordField())
	record.AddFieldMappingsAt("source_label", keywordField())
	record.AddFieldMappingsAt("content_type", keywordField())
	record.AddFieldMappingsAt("view_url", keywordField())
	record.AddFieldMappingsAt("modified_at", keywordField())
	record.AddFieldMappingsAt("created_at", keywordField())
	record.AddFieldMappingsAt("sequence", bleve.NewNumericFieldMapping())

	m := bleve.NewIndexMapping()
	m.DefaultMapping = record
	return m
}

// AddChunks stores the chunks in one batch.
func (b *Index) AddChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := b.idx.NewBatch()
	for _, chunk := range chunks {
		record := chunkRecord{
			ParentID:    chunk.ParentID,
			Sequence:    chunk.Sequence,
			Text:        chunk.Text,
			ParentName:  chunk.ParentName,
			SourceLabel: chunk.SourceLabel,
			ContentType: chunk.ContentType,
			ViewURL:     chunk.ViewURL,
			ModifiedAt:  chunk.ModifiedAt,
			CreatedAt:   chunk.CreatedAt,
		}
		if err := batch.Index(chunk.IndexID(), record); err != nil {
			return fmt.Errorf("batch chunk %s: %w", chunk.IndexID(), err)
		}
	}

	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("index %d chunks: %w", len(chunks), err)
	}
	return nil
}

// DeleteByParent removes all chunks belonging to a parent document.
func (b *Index) DeleteByParent(_ context.Context, parentID string) error {
	q := bleve.NewTermQuery(parentID)
	q.SetField("parent_id")
	return b.deleteMatching(q)
}

// ClearAll wipes every record, markers included.
func (b *Index) ClearAll(_ context.Context) error {
	return b.deleteMatching(bleve.NewMatchAllQuery())
}

// IndexedParentIDs enumerates the parent IDs of stored chunks,
// excluding failure markers.
func (b *Index) IndexedParentIDs(_ context.Context) (map[string]struct{}, error) {
	return b.collectField(chunksOnlyQuery(), "parent_id")
}

// MarkFailed persists permanent failure markers for the given parent IDs.
func (b *Index) MarkFailed(_ context.Context, parentIDs []string) error {
	if len(parentIDs) == 0 {
		return nil
	}

	batch := b.idx.NewBatch()
	for _, id := range parentIDs {
		record := chunkRecord{
			SourceLabel: domain.SourceLabelFailedMarker,
			FailedID:    id,
		}
		if err := batch.Index(failedIDPrefix+id, record); err != nil {
			return fmt.Errorf("batch failure marker %s: %w", id, err)
		}
	}

	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("index %d failure markers: %w", len(parentIDs), err)
	}
	return nil
}

// FailedParentIDs enumerates the parent IDs carried by failure markers.
func (b *Index) FailedParentIDs(_ context.Context) (map[string]struct{}, error) {
	return b.collectField(markersOnlyQuery(), "failed_id")
}

// ClearFailedMarkers deletes every failure marker.
func (b *Index) ClearFailedMarkers(_ context.Context) error {
	return b.deleteMatching(markersOnlyQuery())
}

// DocumentCount returns the number of stored chunk records, excluding
// failure markers.
func (b *Index) DocumentCount(_ context.Context) (int, error) {
	req := bleve.NewSearchRequestOptions(chunksOnlyQuery(), 0, 0, false)
	result, err := b.idx.Search(req)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return int(result.Total), nil
}

// HealthCheck reports whether the backend answers queries.
func (b *Index) HealthCheck(_ context.Context) bool {
	_, err := b.idx.DocCount()
	return err == nil
}

// Close releases backend resources.
func (b *Index) Close() error {
	return b.idx.Close()
}

// Destroy closes the index and removes its files. Used by tooling, not
// by the sync path; ForceFullResync keeps the index open and clears it
// record by record.
func (b *Index) Destroy() error {
	if err := b.idx.Close(); err != nil {
		return err
	}
	if b.path == "" {
		return nil
	}
	return os.RemoveAll(b.path)
}

// chunksOnlyQuery matches every chunk record and no failure marker.
func chunksOnlyQuery() query.Query {
	q := bleve.NewBooleanQuery()
	q.AddMust(bleve.NewMatchAllQuery())
	q.AddMustNot(markersOnlyQuery())
	return q
}

// markersOnlyQuery matches every failure marker.
func markersOnlyQuery() query.Query {
	q := bleve.NewTermQuery(domain.SourceLabelFailedMarker)
	q.SetField("source_label")
	return q
}

// collectField gathers the distinct values of a stored field across all
// records matching the query.
func (b *Index) collectField(q query.Query, field string) (map[string]struct{}, error) {
	values := make(map[string]struct{})
	for from := 0; ; from += pageSize {
		req := bleve.NewSearchRequestOptions(q, pageSize, from, false)
		req.Fields = []string{field}

		result, err := b.idx.Search(req)
		if err != nil {
			return nil, fmt.Errorf("enumerate %s: %w", field, err)
		}
		if len(result.Hits) == 0 {
			return values, nil
		}

		for _, hit := range result.Hits {
			if v, ok := hit.Fields[field].(string); ok && v != "" {
				values[v] = struct{}{}
			}
		}

		if uint64(from+len(result.Hits)) >= result.Total {
			return values, nil
		}
	}
}

// deleteMatching removes every record matching the query, in pages.
func (b *Index) deleteMatching(q query.Query) error {
	for {
		req := bleve.NewSearchRequestOptions(q, pageSize, 0, false)
		result, err := b.idx.Search(req)
		if err != nil {
			return fmt.Errorf("scan for deletion: %w", err)
		}
		if len(result.Hits) == 0 {
			return nil
		}

		batch := b.idx.NewBatch()
		for _, hit := range result.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			return fmt.Errorf("delete %d records: %w", len(result.Hits), err)
		}
	}
}
