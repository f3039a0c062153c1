package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// PDFContentType is the only MIME type accepted for upload.
const PDFContentType = "application/pdf"

const maxSnippetChars = 280

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// Document is a candidate file selected by the user.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Preview summarizes a locally parsed PDF for display purposes.
type Preview struct {
	Pages   int
	Snippet string
}

// New builds a Document from in-memory content and a declared MIME type.
func New(name, contentType string, data []byte) Document {
	return Document{Name: name, ContentType: contentType, Data: data}
}

// Load reads path and sniffs the MIME type from its content.
func Load(path string) (Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Document{}, errors.New("file path cannot be empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Document{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// IsPDF reports whether doc declares a PDF MIME type or carries a .pdf name.
func IsPDF(doc Document) bool {
	return mediaType(doc.ContentType) == PDFContentType || strings.HasSuffix(strings.ToLower(doc.Name), ".pdf")
}

// Size returns the payload length in bytes.
func (d Document) Size() int {
	return len(d.Data)
}

// Inspect parses the document locally to count pages and grab a text snippet.
func Inspect(doc Document) (Preview, error) {
	if len(doc.Data) == 0 {
		return Preview{}, errors.New("document is empty")
	}
	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return Preview{}, fmt.Errorf("failed to open pdf: %w", err)
	}
	preview := Preview{Pages: reader.NumPage()}

	content, err := reader.GetPlainText()
	if err != nil {
		return preview, fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, io.LimitReader(content, 16*maxSnippetChars)); err != nil {
		return preview, err
	}
	preview.Snippet = clip(extraneousWhitespace.ReplaceAllString(builder.String(), " "), maxSnippetChars)
	return preview, nil
}

// HumanSize renders a byte count using binary units.
func HumanSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := int64(n) / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func mediaType(contentType string) string {
	value, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(value))
}

func clip(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
