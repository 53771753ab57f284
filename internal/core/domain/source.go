package domain

import (
	"path/filepath"
	"strings"
)

// Source labels identify the connector that produced a chunk.
const (
	// SourceLabelDrive marks documents from the cloud drive connector.
	SourceLabelDrive = "google_drive"

	// SourceLabelWiki marks documents from the wiki connector.
	SourceLabelWiki = "confluence"

	// SourceLabelFailedMarker is the reserved sentinel for permanent
	// failure markers persisted in the index backend. It must never be
	// used by a real connector.
	SourceLabelFailedMarker = "_system_failed_"
)

// MIME types handled by the document processor.
const (
	ContentTypePDF   = "application/pdf"
	ContentTypeDoc   = "application/msword"
	ContentTypeDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeXls   = "application/vnd.ms-excel"
	ContentTypeXlsx  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeText  = "text/plain"
	ContentTypeCSV   = "text/csv"
	ContentTypeWiki  = "confluence/page"
	ContentTypeOctet = "application/octet-stream"
)

// Google Workspace native types, exported to office formats by the
// drive connector before processing.
const (
	ContentTypeGoogleDoc   = "application/vnd.google-apps.document"
	ContentTypeGoogleSheet = "application/vnd.google-apps.spreadsheet"
)

// extensionTypes maps filename extensions to content types for sniffing
// when a source reports no usable type.
var extensionTypes = map[string]string{
	".pdf":  ContentTypePDF,
	".doc":  ContentTypeDoc,
	".docx": ContentTypeDocx,
	".xls":  ContentTypeXls,
	".xlsx": ContentTypeXlsx,
	".txt":  ContentTypeText,
	".csv":  ContentTypeCSV,
}

// SniffContentType guesses a content type from the document name.
// Returns ContentTypeOctet when the extension is unknown.
func SniffContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	return ContentTypeOctet
}
