package domain

import "testing"

func TestChunkIndexID(t *testing.T) {
	c := Chunk{ParentID: "doc-1", Sequence: 3}
	if got := c.IndexID(); got != "doc-1_3" {
		t.Errorf("IndexID() = %q, want doc-1_3", got)
	}
}

func TestHasInlineContent(t *testing.T) {
	withContent := SourceDocument{InlineContent: "page text"}
	if !withContent.HasInlineContent() {
		t.Error("expected inline content to be reported")
	}

	withoutContent := SourceDocument{ID: "f1"}
	if withoutContent.HasInlineContent() {
		t.Error("expected no inline content")
	}
}

func TestSniffContentType(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"report.pdf", ContentTypePDF},
		{"Report.PDF", ContentTypePDF},
		{"notes.docx", ContentTypeDocx},
		{"budget.xlsx", ContentTypeXlsx},
		{"readme.txt", ContentTypeText},
		{"photo.png", ContentTypeOctet},
		{"no-extension", ContentTypeOctet},
	}

	for _, tc := range cases {
		if got := SniffContentType(tc.name); got != tc.want {
			t.Errorf("SniffContentType(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
