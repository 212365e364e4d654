package capability

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/victoruno/victoruno/internal/log"
)

// Document is the normalized extraction result: plain text plus metadata.
type Document struct {
	Text      string   `json:"text"`
	Format    string   `json:"format"`
	PageCount int      `json:"page_count,omitempty"`
	WordCount int      `json:"word_count"`
	CharCount int      `json:"char_count"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Input identifies a document to extract. Exactly one of Path or Bytes is
// set; DeclaredType overrides the extension-based format guess.
type Input struct {
	Path         string
	Bytes        []byte
	DeclaredType string // file extension without dot, e.g. "pdf"
}

// supportedFormats is the closed set of extractable document formats.
var supportedFormats = map[string]bool{
	"txt":  true,
	"md":   true,
	"html": true,
	"htm":  true,
	"pdf":  true,
	"docx": true,
}

// SupportedFormat reports whether the format (extension without dot, case
// insensitive) can be extracted. The router consults this before routing to
// the document handler so that an unsupported attachment fails the request
// instead of degrading it.
func SupportedFormat(format string) bool {
	return supportedFormats[strings.ToLower(strings.TrimPrefix(format, "."))]
}

// ExtractorConfig holds the extraction adapter configuration.
type ExtractorConfig struct {
	// MaxFileSize bounds attachment size in bytes.
	MaxFileSize int64
}

// Extractor normalizes heterogeneous document formats into plain text with
// metadata. It never silently returns empty text: an empty extraction is a
// failure with Kind empty.
type Extractor struct {
	maxFileSize int64
	logger      log.Logger
}

// NewExtractor creates the document extraction adapter.
func NewExtractor(cfg ExtractorConfig, logger log.Logger) *Extractor {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Extractor{maxFileSize: maxSize, logger: logger}
}

// Name implements Capability.
func (e *Extractor) Name() string { return ExtractorName }

// Available implements Capability. Extraction needs no external service.
func (e *Extractor) Available() bool { return true }

// Extract reads and normalizes a document.
func (e *Extractor) Extract(ctx context.Context, in Input) (*Document, error) {
	format := strings.ToLower(strings.TrimPrefix(in.DeclaredType, "."))
	if format == "" && in.Path != "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Path), "."))
	}
	if !SupportedFormat(format) {
		return nil, &Error{Capability: ExtractorName, Kind: KindUnsupported,
			Err: fmt.Errorf("unsupported format %q", format)}
	}

	data, err := e.readInput(in)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, &Error{Capability: ExtractorName, Kind: KindTimeout, Err: err}
	}

	doc := &Document{Format: format}
	switch format {
	case "txt", "md":
		err = extractText(data, doc)
	case "html", "htm":
		err = extractHTML(data, doc)
	case "pdf":
		err = extractPDF(data, doc)
	case "docx":
		err = extractDOCX(data, doc)
	}
	if err != nil {
		return nil, err
	}

	doc.Text = strings.TrimSpace(doc.Text)
	if doc.Text == "" {
		return nil, &Error{Capability: ExtractorName, Kind: KindEmpty,
			Err: errors.New("document contains no extractable text")}
	}

	doc.WordCount = len(strings.Fields(doc.Text))
	doc.CharCount = len(doc.Text)
	e.logger.Debug("document extracted",
		"format", doc.Format, "words", doc.WordCount, "pages", doc.PageCount)
	return doc, nil
}

// readInput loads the document bytes, enforcing the size limit.
func (e *Extractor) readInput(in Input) ([]byte, error) {
	if in.Bytes != nil {
		if int64(len(in.Bytes)) > e.maxFileSize {
			return nil, &Error{Capability: ExtractorName, Kind: KindUnsupported,
				Err: fmt.Errorf("document too large: %d bytes (max %d)", len(in.Bytes), e.maxFileSize)}
		}
		return in.Bytes, nil
	}

	info, err := os.Stat(in.Path)
	if err != nil {
		return nil, &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: fmt.Errorf("stat %q: %w", in.Path, err)}
	}
	if info.Size() > e.maxFileSize {
		return nil, &Error{Capability: ExtractorName, Kind: KindUnsupported,
			Err: fmt.Errorf("document too large: %d bytes (max %d)", info.Size(), e.maxFileSize)}
	}

	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: fmt.Errorf("reading %q: %w", in.Path, err)}
	}
	return data, nil
}

func extractText(data []byte, doc *Document) error {
	if !utf8.Valid(data) {
		return &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: errors.New("file is not valid UTF-8 text")}
	}
	doc.Text = string(data)
	return nil
}

func extractHTML(data []byte, doc *Document) error {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: fmt.Errorf("parsing HTML: %w", err)}
	}

	parsed.Find("script, style, noscript").Remove()

	if title := strings.TrimSpace(parsed.Find("title").First().Text()); title != "" {
		doc.Warnings = append(doc.Warnings, "title: "+title)
	}

	text := parsed.Find("body").Text()
	if text == "" {
		text = parsed.Text()
	}
	doc.Text = collapseWhitespace(text)
	return nil
}

func extractPDF(data []byte, doc *Document) (err error) {
	// The pdf library panics on some malformed inputs; convert to a corrupt error.
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Capability: ExtractorName, Kind: KindCorrupt,
				Err: fmt.Errorf("parsing PDF: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: fmt.Errorf("parsing PDF: %w", err)}
	}

	doc.PageCount = reader.NumPage()

	plain, err := reader.GetPlainText()
	if err != nil {
		return &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: fmt.Errorf("extracting PDF text: %w", err)}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: fmt.Errorf("reading PDF text: %w", err)}
	}
	doc.Text = buf.String()
	return nil
}

// docxText matches the WordprocessingML <w:t> nodes carrying text runs.
type docxText struct {
	Value string `xml:",chardata"`
}

func extractDOCX(data []byte, doc *Document) error {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: fmt.Errorf("opening DOCX archive: %w", err)}
	}

	var docFile *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: errors.New("DOCX archive missing word/document.xml")}
	}

	rc, err := docFile.Open()
	if err != nil {
		return &Error{Capability: ExtractorName, Kind: KindCorrupt,
			Err: fmt.Errorf("opening document.xml: %w", err)}
	}
	defer func() { _ = rc.Close() }()

	var sb strings.Builder
	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &Error{Capability: ExtractorName, Kind: KindCorrupt,
				Err: fmt.Errorf("parsing document.xml: %w", err)}
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				var t docxText
				if err := decoder.DecodeElement(&t, &el); err != nil {
					return &Error{Capability: ExtractorName, Kind: KindCorrupt,
						Err: fmt.Errorf("parsing text run: %w", err)}
				}
				sb.WriteString(t.Value)
			}
		case xml.EndElement:
			// Paragraph boundaries become newlines.
			if el.Name.Local == "p" {
				sb.WriteString("\n")
			}
		}
	}

	doc.Text = sb.String()
	return nil
}

// collapseWhitespace reduces runs of whitespace to single spaces while
// keeping line structure readable.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
