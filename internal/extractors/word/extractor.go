// Package word extracts text from legacy and modern word-processor
// documents. Misnamed files are retried with the alternate format before
// falling back to a plain-text heuristic.
package word

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/extractors"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles .doc and .docx documents, plus Google Docs exported
// as .docx by the drive connector.
type Extractor struct{}

// New creates a new word-processor extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "word"
}

// SupportedContentTypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedContentTypes() []string {
	return []string{
		domain.ContentTypeDoc,
		domain.ContentTypeDocx,
		domain.ContentTypeGoogleDoc,
	}
}

// Extract dispatches on the actual container signature rather than the
// declared type: a .docx saved under the .doc extension parses as OOXML,
// and an OLE2 payload goes through the legacy path regardless of name.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	if extractors.IsZipContainer(content) {
		return extractDocx(content)
	}

	if extractors.IsOLE2Container(content) {
		return extractLegacyDoc(content)
	}

	// Not a Word container at all. Treat as plain text only when the
	// printability heuristic passes.
	if extractors.IsPrintableText(content) {
		logger.Debug("Word payload is not OLE2 or OOXML, treating as plain text")
		return string(content), nil
	}

	return "", fmt.Errorf("%w: not a recognisable word-processor container", domain.ErrUnsupportedFormat)
}

// documentXML mirrors the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// extractDocx pulls paragraph text out of the OOXML container.
func extractDocx(content []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx container: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}

		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}

		return parseDocumentXML(raw), nil
	}

	return "", fmt.Errorf("%w: no word/document.xml in container", domain.ErrUnsupportedFormat)
}

// parseDocumentXML extracts text content from the document XML.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, text := range r.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// extractLegacyDoc reads the WordDocument stream from the OLE2 compound
// file and scavenges printable text from it. Legacy Word stores text in
// CP-1252 or UTF-16LE pieces; run scavenging recovers the readable
// content without a full binary-format parse.
func extractLegacyDoc(content []byte) (string, error) {
	doc, err := mscfb.New(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open compound file: %w", err)
	}

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "WordDocument" {
			continue
		}

		stream := make([]byte, entry.Size)
		n, readErr := io.ReadFull(entry, stream)
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			return "", fmt.Errorf("read WordDocument stream: %w", readErr)
		}

		text := extractors.ScavengeText(stream[:n])
		if text == "" {
			return "", fmt.Errorf("%w: no readable text in WordDocument stream", domain.ErrUnsupportedFormat)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: no WordDocument stream in compound file", domain.ErrUnsupportedFormat)
}
