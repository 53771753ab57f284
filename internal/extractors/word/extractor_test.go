package word

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_Docx(t *testing.T) {
	content := buildDocx(t, `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
  </body>
</document>`)

	got, err := New().Extract(context.Background(), content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "First paragraph.\nSecond paragraph."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestExtract_DocxMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, _ := w.Create("other.xml")
	f.Write([]byte("<x/>"))
	w.Close()

	_, err := New().Extract(context.Background(), buf.Bytes())
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtract_MisnamedPlainText(t *testing.T) {
	got, err := New().Extract(context.Background(), []byte("just a text file with a .doc name"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "just a text file with a .doc name" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestExtract_Unrecognisable(t *testing.T) {
	binary := make([]byte, 200)
	for i := range binary {
		binary[i] = byte(i % 20)
	}

	_, err := New().Extract(context.Background(), binary)
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
