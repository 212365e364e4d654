package capability

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/victoruno/victoruno/internal/log"
)

// buildDOCX assembles a minimal WordprocessingML archive in memory.
func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		sb.WriteString(`<w:p><w:r><w:t>`)
		sb.WriteString(p)
		sb.WriteString(`</w:t></w:r></w:p>`)
	}
	sb.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("creating archive entry: %v", err)
	}
	if _, err := f.Write([]byte(sb.String())); err != nil {
		t.Fatalf("writing archive entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor(ExtractorConfig{}, log.NewNop())

	doc, err := e.Extract(context.Background(), Input{
		Bytes:        []byte("Quarterly revenue grew 12% year over year.\nCosts were flat."),
		DeclaredType: "txt",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if doc.Format != "txt" {
		t.Errorf("Format = %q, want txt", doc.Format)
	}
	if doc.WordCount != 10 {
		t.Errorf("WordCount = %d, want 10", doc.WordCount)
	}
	if doc.CharCount == 0 {
		t.Error("CharCount = 0, want nonzero")
	}
	if !strings.Contains(doc.Text, "revenue grew") {
		t.Errorf("Text = %q, missing source content", doc.Text)
	}
}

func TestExtractMarkdownFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# Meeting notes\n\nShip the release on Friday."), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	e := NewExtractor(ExtractorConfig{}, log.NewNop())

	doc, err := e.Extract(context.Background(), Input{Path: path})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if doc.Format != "md" {
		t.Errorf("Format = %q, want md (from extension)", doc.Format)
	}
	if !strings.Contains(doc.Text, "Ship the release") {
		t.Errorf("Text = %q, missing source content", doc.Text)
	}
}

func TestExtractHTML(t *testing.T) {
	html := `<html><head><title>Report</title><style>p{color:red}</style></head>
		<body><script>alert(1)</script><p>First   paragraph.</p><p>Second paragraph.</p></body></html>`

	e := NewExtractor(ExtractorConfig{}, log.NewNop())

	doc, err := e.Extract(context.Background(), Input{Bytes: []byte(html), DeclaredType: "html"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if strings.Contains(doc.Text, "alert") || strings.Contains(doc.Text, "color:red") {
		t.Errorf("Text = %q, script/style content leaked through", doc.Text)
	}
	if !strings.Contains(doc.Text, "First paragraph.") {
		t.Errorf("Text = %q, whitespace not collapsed or content missing", doc.Text)
	}
	if len(doc.Warnings) == 0 || !strings.Contains(doc.Warnings[0], "Report") {
		t.Errorf("Warnings = %v, want page title recorded", doc.Warnings)
	}
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, []string{"Project kickoff is Monday.", "Budget approved."})

	e := NewExtractor(ExtractorConfig{}, log.NewNop())

	doc, err := e.Extract(context.Background(), Input{Bytes: data, DeclaredType: "docx"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(doc.Text, "Project kickoff is Monday.") {
		t.Errorf("Text = %q, missing first paragraph", doc.Text)
	}
	if !strings.Contains(doc.Text, "Budget approved.") {
		t.Errorf("Text = %q, missing second paragraph", doc.Text)
	}
	// Paragraphs must stay separated.
	if strings.Contains(doc.Text, "Monday.Budget") {
		t.Errorf("Text = %q, paragraphs ran together", doc.Text)
	}
}

func TestExtractFailureKinds(t *testing.T) {
	e := NewExtractor(ExtractorConfig{MaxFileSize: 64}, log.NewNop())

	tests := []struct {
		name string
		in   Input
		want Kind
	}{
		{
			name: "unsupported format",
			in:   Input{Bytes: []byte("data"), DeclaredType: "png"},
			want: KindUnsupported,
		},
		{
			name: "no format at all",
			in:   Input{Bytes: []byte("data")},
			want: KindUnsupported,
		},
		{
			name: "oversize attachment",
			in:   Input{Bytes: bytes.Repeat([]byte("a"), 128), DeclaredType: "txt"},
			want: KindUnsupported,
		},
		{
			name: "binary garbage as text",
			in:   Input{Bytes: []byte{0xff, 0xfe, 0x00, 0x80}, DeclaredType: "txt"},
			want: KindCorrupt,
		},
		{
			name: "truncated pdf",
			in:   Input{Bytes: []byte("%PDF-1.4 garbage"), DeclaredType: "pdf"},
			want: KindCorrupt,
		},
		{
			name: "not a zip as docx",
			in:   Input{Bytes: []byte("plain text"), DeclaredType: "docx"},
			want: KindCorrupt,
		},
		{
			name: "whitespace only text",
			in:   Input{Bytes: []byte("   \n\t  "), DeclaredType: "txt"},
			want: KindEmpty,
		},
		{
			name: "missing file",
			in:   Input{Path: filepath.Join(t.TempDir(), "absent.txt")},
			want: KindCorrupt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tt.in)
			if err == nil {
				t.Fatal("Extract() succeeded, want failure")
			}
			if !IsKind(err, tt.want) {
				t.Errorf("Extract() error = %v, want kind %v", err, tt.want)
			}
		})
	}
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/styles.xml")
	if err != nil {
		t.Fatalf("creating archive entry: %v", err)
	}
	if _, err := f.Write([]byte("<styles/>")); err != nil {
		t.Fatalf("writing archive entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}

	e := NewExtractor(ExtractorConfig{}, log.NewNop())

	_, err = e.Extract(context.Background(), Input{Bytes: buf.Bytes(), DeclaredType: "docx"})
	if !IsKind(err, KindCorrupt) {
		t.Errorf("Extract() error = %v, want kind corrupt", err)
	}
}

func TestSupportedFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"txt", true},
		{".pdf", true},
		{"DOCX", true},
		{"htm", true},
		{"png", false},
		{"exe", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := SupportedFormat(tt.format); got != tt.want {
			t.Errorf("SupportedFormat(%q) = %v, want %v", tt.format, got, tt.want)
		}
	}
}
