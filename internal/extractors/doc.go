// Package extractors provides text extraction implementations dispatched
// by content type, with extension sniffing and signature-mismatch
// fallbacks for misnamed files.
package extractors
