package extractors

// Binary container signatures used for mismatch detection when a file's
// declared type does not match its actual format.
var (
	zipMagic  = []byte{0x50, 0x4B, 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// IsZipContainer reports whether the content starts with the OOXML/ZIP
// signature. Modern office formats (.docx, .xlsx) are ZIP containers.
func IsZipContainer(content []byte) bool {
	return hasPrefix(content, zipMagic)
}

// IsOLE2Container reports whether the content starts with the legacy
// OLE2 compound file signature (.doc, .xls).
func IsOLE2Container(content []byte) bool {
	return hasPrefix(content, ole2Magic)
}

func hasPrefix(content, magic []byte) bool {
	if len(content) < len(magic) {
		return false
	}
	for i, b := range magic {
		if content[i] != b {
			return false
		}
	}
	return true
}

// IsPrintableText reports whether at least 80% of the first 1000
// characters are printable ASCII or common whitespace. Used as the last
// resort before giving up on a document whose binary parse failed.
func IsPrintableText(content []byte) bool {
	if len(content) == 0 {
		return false
	}

	total := len(content)
	if total > 1000 {
		total = 1000
	}

	printable := 0
	for i := 0; i < total; i++ {
		c := content[i]
		if (c >= 32 && c < 127) || c == '\n' || c == '\r' || c == '\t' {
			printable++
		}
	}

	return float64(printable)/float64(total) > 0.8
}
