package resume

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

// DefaultJobTitle is used when no known title appears in the résumé.
const DefaultJobTitle = "Software Engineer"

var (
	ErrUnsupportedFormat = errors.New("unsupported resume format")
	ErrEmptyResume       = errors.New("resume contains no text")
)

var commonTitles = []string{
	"Software Engineer", "Data Scientist", "Product Manager", "Data Analyst",
	"Web Developer", "Front End Developer", "Back End Developer", "Full Stack Developer",
	"UI/UX Designer", "Project Manager", "Business Analyst", "Marketing Manager",
}

// Document is a résumé file together with its extracted text.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
	Text     string
}

// Load reads the résumé at path and extracts its text.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume %q: %w", path, err)
	}

	name := filepath.Base(path)
	mimeType := DetectMIMEType(name, data)

	text, err := ExtractText(mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("resume %q: %w", name, err)
	}

	return &Document{Name: name, MIMEType: mimeType, Data: data, Text: text}, nil
}

// DetectMIMEType picks the résumé type from the file extension, falling back
// to content sniffing.
func DetectMIMEType(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDOCX
	case ".txt", ".md", ".text":
		return MIMEText
	}

	sniffed := http.DetectContentType(data)
	mediaType, _, err := mime.ParseMediaType(sniffed)
	if err != nil {
		return sniffed
	}
	return mediaType
}

// ExtractText returns the plain text of a PDF, DOCX or text résumé.
func ExtractText(mimeType string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch mimeType {
	case MIMEText:
		text = string(data)
	case MIMEPDF:
		text, err = extractPDF(data)
	case MIMEDOCX:
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResume
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTag          = regexp.MustCompile(`<[^>]+>`)
	blankLines       = regexp.MustCompile(`\n{2,}`)
)

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return docxPlainText(doc.Editable().GetContent()), nil
}

// docxPlainText turns WordprocessingML into text with one line per paragraph.
func docxPlainText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	return blankLines.ReplaceAllString(content, "\n")
}

// GuessJobTitle returns the first well-known job title mentioned in text.
func GuessJobTitle(text string) string {
	lower := strings.ToLower(text)
	for _, title := range commonTitles {
		if strings.Contains(lower, strings.ToLower(title)) {
			return title
		}
	}
	return DefaultJobTitle
}
