package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
)

// MaxFileSize caps what ReadDocument will load, independent of the upload
// limit, so a file dropped into the upload directory by hand cannot blow up
// memory.
const MaxFileSize = 50 * 1024 * 1024

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Document is the content of one uploaded file, ready for the extraction
// model: either plain text (possibly with tabular rows sniffed out of it) or
// raw image bytes for the vision path.
type Document struct {
	Kind      Kind
	Text      string
	Data      []byte
	MediaType string
	// Rows holds tabular data parsed from CSV/TSV content, header first.
	// Used as a fallback sample-data source when the model returns none.
	Rows [][]string
}

// AllowedExtensions is the upload allow-list.
var AllowedExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
	".csv": true, ".txt": true, ".md": true,
}

// ReadDocument loads an uploaded file and classifies it for extraction.
func ReadDocument(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("upload not found: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file exceeds the %dMB size limit", MaxFileSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		mediaType := "image/png"
		if ext != ".png" {
			mediaType = "image/jpeg"
		}
		return &Document{Kind: KindImage, Data: data, MediaType: mediaType}, nil
	case ".pdf":
		text, err := extractPDF(path)
		if err != nil {
			return nil, err
		}
		return &Document{Kind: KindText, Text: text}, nil
	case ".csv", ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text := string(content)
		return &Document{Kind: KindText, Text: text, Rows: sniffRows(text)}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

func extractPDF(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}

// sniffRows tries to parse text as delimited tabular data. The delimiter is
// whichever of tab and comma dominates the first non-empty line. Returns nil
// when the content does not look tabular (fewer than two rows, or a single
// column).
func sniffRows(text string) [][]string {
	var firstLine string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			firstLine = line
			break
		}
	}
	if firstLine == "" {
		return nil
	}

	delimiter := ','
	if strings.Count(firstLine, "\t") > strings.Count(firstLine, ",") {
		delimiter = '\t'
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 || len(records[0]) < 2 {
		return nil
	}
	return records
}
