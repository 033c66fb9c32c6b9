package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// MaxResumeChars caps the text forwarded to the model.
	MaxResumeChars = 10000
)

type ExtractionMethod string

const (
	MethodPDF   ExtractionMethod = "pdf"
	MethodDOCX  ExtractionMethod = "docx"
	MethodPlain ExtractionMethod = "plain"
)

type ExtractedText struct {
	Text      string
	Method    ExtractionMethod
	Truncated bool
}

type TextExtractor interface {
	Extract(file models.UploadedResume) ExtractedText
}

type textExtractor struct {
	logger *zap.Logger
}

func NewTextExtractor(log *zap.Logger) TextExtractor {
	return &textExtractor{logger: log.Named("extractor")}
}

// Extract decodes the upload by mime type. Documents that fail to parse as
// PDF or DOCX are read as UTF-8 text instead, so extraction never fails.
func (e *textExtractor) Extract(file models.UploadedResume) ExtractedText {
	var (
		text   string
		method = MethodPlain
		err    error
	)

	switch file.MimeType {
	case MimePDF:
		text, err = extractPDFText(file.Data)
		method = MethodPDF
	case MimeDOCX:
		text, err = extractDocxText(file.Data)
		method = MethodDOCX
	}

	if method != MethodPlain && err != nil {
		e.logger.Info("⚠️ Document parsing failed, reading upload as text",
			zap.String("file", file.FileName),
			zap.String("mime", file.MimeType),
			zap.Error(err),
		)
		method = MethodPlain
	}

	if method == MethodPlain {
		text = strings.ToValidUTF8(string(file.Data), "�")
	} else {
		text = CleanText(text)
	}

	text, truncated := truncateRunes(text, MaxResumeChars)
	return ExtractedText{Text: text, Method: method, Truncated: truncated}
}

// ReadDocument returns the cleaned full text of a guideline document, picking
// the parser from the file extension. Unlike Extract it never truncates and
// reports parse failures.
func ReadDocument(path string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = extractPDFText(data)
	case ".docx":
		text, err = extractDocxText(data)
	case ".md", ".txt":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s is not valid UTF-8", path)
		}
		text = string(data)
	default:
		return "", fmt.Errorf("unsupported document type %q", filepath.Ext(path))
	}
	if err != nil {
		return "", err
	}

	return CleanText(text), nil
}

func extractPDFText(data []byte) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := reader.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	text = textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no text content found in PDF")
	}

	return text, nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	text, err := documentXMLText(doc.Editable().GetContent())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no text content found in DOCX")
	}
	return text, nil
}

// documentXMLText keeps the character data of word/document.xml, with one
// line per paragraph.
func documentXMLText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var b strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read docx body: %w", err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				b.WriteByte('\t')
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteByte('\n')
			}
		}
	}

	return b.String(), nil
}

func truncateRunes(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
