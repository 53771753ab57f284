// Package spreadsheet extracts text from legacy and modern spreadsheet
// documents, concatenating all sheet cells tab-separated, row by row,
// under a sheet-name header.
package spreadsheet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/extractors"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles .xls and .xlsx documents, plus Google Sheets
// exported as .xlsx by the drive connector.
type Extractor struct{}

// New creates a new spreadsheet extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "spreadsheet"
}

// SupportedContentTypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedContentTypes() []string {
	return []string{
		domain.ContentTypeXls,
		domain.ContentTypeXlsx,
		domain.ContentTypeGoogleSheet,
	}
}

// Extract dispatches on the actual container signature: an .xlsx saved
// under the .xls extension parses as OOXML, and an OLE2 payload goes
// through the legacy path regardless of name.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	if extractors.IsZipContainer(content) {
		return extractXlsx(content)
	}

	if extractors.IsOLE2Container(content) {
		return extractLegacyXls(content)
	}

	// Misdeclared CSV or plain text is common for spreadsheets.
	if extractors.IsPrintableText(content) {
		logger.Debug("Spreadsheet payload is not OLE2 or OOXML, treating as plain text")
		return string(content), nil
	}

	return "", fmt.Errorf("%w: not a recognisable spreadsheet container", domain.ErrUnsupportedFormat)
}

// extractXlsx walks every sheet of the OOXML workbook.
func extractXlsx(content []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var text strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		text.WriteString("Sheet: ")
		text.WriteString(sheet)
		text.WriteString("\n")

		for _, row := range rows {
			for _, cell := range row {
				if cell != "" {
					text.WriteString(cell)
					text.WriteString("\t")
				}
			}
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}

	return text.String(), nil
}

// extractLegacyXls reads the Workbook stream from the OLE2 compound file
// and scavenges printable text from it, which recovers string cells
// without a full BIFF parse.
func extractLegacyXls(content []byte) (string, error) {
	doc, err := mscfb.New(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open compound file: %w", err)
	}

	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}

		stream := make([]byte, entry.Size)
		n, readErr := io.ReadFull(entry, stream)
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			return "", fmt.Errorf("read workbook stream: %w", readErr)
		}

		text := extractors.ScavengeText(stream[:n])
		if text == "" {
			return "", fmt.Errorf("%w: no readable text in workbook stream", domain.ErrUnsupportedFormat)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: no workbook stream in compound file", domain.ErrUnsupportedFormat)
}
