package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/infobot/internal/chunker"
	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Cleaning patterns. Special characters outside the allowed set are
// removed, then all whitespace runs collapse to a single space.
var (
	specialCharsPattern = regexp.MustCompile(`[^\w\s.,!?;:\-()\[\]"'/\\@#$%&+=<>{}|~` + "`" + `*]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	newlinePattern      = regexp.MustCompile(`[\n\r]+`)
)

// Processor turns a fetched document into index-ready chunks: extract
// text for the content type, clean it, split into overlapping windows
// and stamp each window with the parent document's metadata.
type Processor struct {
	registry driven.ExtractorRegistry
	splitter *chunker.Chunker
}

// NewProcessor creates a document processor with the given chunking
// settings.
func NewProcessor(registry driven.ExtractorRegistry, settings domain.ChunkingSettings) *Processor {
	return &Processor{
		registry: registry,
		splitter: chunker.New(
			chunker.WithChunkSize(settings.ChunkSize),
			chunker.WithOverlap(settings.ChunkOverlap),
			chunker.WithMinLength(settings.MinChunkLength),
		),
	}
}

// Process converts one source document into chunks. Wiki pages carry
// their content inline; everything else arrives as fetched bytes.
func (p *Processor) Process(ctx context.Context, sourceLabel string, doc domain.SourceDocument, content []byte) ([]domain.Chunk, error) {
	if len(content) == 0 && doc.HasInlineContent() {
		content = []byte(doc.InlineContent)
	}

	text, err := p.registry.Extract(ctx, doc.ContentType, doc.Name, content)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.Name, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyContent, doc.Name)
	}

	cleaned := cleanText(text)
	logger.Debug("Extracted %d characters from %s", len(cleaned), doc.Name)

	pieces := p.splitter.Split(cleaned)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: %s cleaned to %d characters", domain.ErrNoChunks, doc.Name, len(cleaned))
	}
	logger.Debug("Created %d chunks for %s", len(pieces), doc.Name)

	// The document name is prepended to every chunk so name terms score
	// in body matches too.
	prefix := "Document: " + doc.Name + "\n\n"
	if sourceLabel == domain.SourceLabelWiki {
		prefix = "Confluence Page: " + doc.Name + "\n\n"
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			ParentID:    doc.ID,
			Sequence:    i,
			Text:        prefix + piece,
			ParentName:  doc.Name,
			SourceLabel: sourceLabel,
			ContentType: doc.ContentType,
			ViewURL:     doc.ViewURL,
			ModifiedAt:  doc.ModifiedAt,
			CreatedAt:   doc.CreatedAt,
		})
	}

	return chunks, nil
}

// cleanText strips disallowed characters and normalises whitespace.
// Collapsing runs of whitespace to a single space means the chunker
// breaks on sentence and word boundaries rather than line structure.
func cleanText(text string) string {
	text = specialCharsPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = newlinePattern.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
