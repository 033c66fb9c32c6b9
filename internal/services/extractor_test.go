package services

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml":            document,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_PlainTextWithDocxMimeFallsBack(t *testing.T) {
	e := NewTextExtractor(zaptest.NewLogger(t))
	data := []byte(strings.Repeat("a", 50000))

	out := e.Extract(models.UploadedResume{FileName: "cv.docx", MimeType: MimeDOCX, Data: data})

	assert.Equal(t, MethodPlain, out.Method)
	assert.True(t, out.Truncated)
	assert.Equal(t, strings.Repeat("a", MaxResumeChars), out.Text)
}

func TestExtract_RealDocx(t *testing.T) {
	e := NewTextExtractor(zaptest.NewLogger(t))
	data := buildDocx(t, "Jane Doe", "Senior Go Engineer", "  ", "Built &amp; shipped APIs")

	out := e.Extract(models.UploadedResume{FileName: "cv.docx", MimeType: MimeDOCX, Data: data})

	assert.Equal(t, MethodDOCX, out.Method)
	assert.Equal(t, "Jane Doe\nSenior Go Engineer\nBuilt & shipped APIs", out.Text)
	assert.False(t, out.Truncated)
}

func TestExtract_BrokenPDFFallsBackToText(t *testing.T) {
	e := NewTextExtractor(zaptest.NewLogger(t))

	out := e.Extract(models.UploadedResume{FileName: "cv.pdf", MimeType: MimePDF, Data: []byte("not really a pdf")})

	assert.Equal(t, MethodPlain, out.Method)
	assert.Equal(t, "not really a pdf", out.Text)
}

func TestExtract_PlainTextKeepsContent(t *testing.T) {
	e := NewTextExtractor(zaptest.NewLogger(t))
	text := "Jane Doe\n\n  Go, Kubernetes  \n"

	out := e.Extract(models.UploadedResume{FileName: "cv.txt", MimeType: "text/plain", Data: []byte(text)})

	assert.Equal(t, MethodPlain, out.Method)
	assert.Equal(t, text, out.Text)
}

func TestExtract_InvalidUTF8IsReplaced(t *testing.T) {
	e := NewTextExtractor(zaptest.NewLogger(t))

	out := e.Extract(models.UploadedResume{MimeType: "text/plain", Data: []byte{'o', 'k', 0xff, 0xfe}})

	assert.True(t, utf8.ValidString(out.Text))
	assert.True(t, strings.HasPrefix(out.Text, "ok"))
}

func TestTruncateRunes(t *testing.T) {
	s, cut := truncateRunes("héllo wörld", 5)
	assert.Equal(t, "héllo", s)
	assert.True(t, cut)

	s, cut = truncateRunes("short", 10)
	assert.Equal(t, "short", s)
	assert.False(t, cut)

	s, cut = truncateRunes("exact", 5)
	assert.Equal(t, "exact", s)
	assert.False(t, cut)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\nb", CleanText("  a  \n\n\n  b \n"))
}

func TestReadDocument(t *testing.T) {
	long := strings.Repeat("keyword ", 3000)

	text, err := ReadDocument("guides/ats.md", []byte("# ATS basics\n\n  Use standard headings.  \n"+long))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "# ATS basics\nUse standard headings.\n"))
	assert.Greater(t, utf8.RuneCountInString(text), MaxResumeChars)

	text, err = ReadDocument("guides/format.DOCX", buildDocx(t, "One column", "No tables"))
	require.NoError(t, err)
	assert.Equal(t, "One column\nNo tables", text)

	_, err = ReadDocument("guides/broken.pdf", []byte("not a pdf"))
	assert.Error(t, err)

	_, err = ReadDocument("guides/image.png", []byte{0x89})
	assert.Error(t, err)

	_, err = ReadDocument("guides/bad.txt", []byte{0xff, 0xfe})
	assert.Error(t, err)
}
