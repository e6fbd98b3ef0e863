package extract

import (
	"archive/zip"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitagent/internal/errors"
)

type fakePages struct {
	pages []string
	fail  int
}

func (f fakePages) NumPage() int { return len(f.pages) }

func (f fakePages) PageText(i int) (string, error) {
	if i == f.fail {
		return "", fmt.Errorf("broken content stream")
	}
	return f.pages[i-1], nil
}

func TestConcatPagesOrderWithoutSeparators(t *testing.T) {
	src := fakePages{pages: []string{"Alpha ", "", "Omega"}}

	text, err := concatPages(context.Background(), "resume.pdf", src)
	require.NoError(t, err)
	assert.Equal(t, "Alpha Omega", text)
}

func TestConcatPagesNoPages(t *testing.T) {
	text, err := concatPages(context.Background(), "empty.pdf", fakePages{})
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestConcatPagesUnreadablePage(t *testing.T) {
	_, err := concatPages(context.Background(), "resume.pdf", fakePages{pages: []string{"a", "b"}, fail: 2})

	var docErr *errors.DocumentParseError
	require.True(t, stderrors.As(err, &docErr))
	assert.Equal(t, "resume.pdf", docErr.Source)
}

// buildPDF writes a minimal PDF with one Helvetica text line per page.
// An empty string produces a page with an empty content stream.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		}
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestExtractPDFPagesInOrder(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, 0)

	text, err := e.ExtractPDF(context.Background(), "resume.pdf", bytes.NewReader(buildPDF("Gopher", "", "Kubernetes")))
	require.NoError(t, err)

	first := strings.Index(text, "Gopher")
	last := strings.Index(text, "Kubernetes")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, last)
	assert.Less(t, first, last)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging file must be removed")
}

func TestExtractPDFInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, 0)

	_, err := e.ExtractPDF(context.Background(), "broken.pdf", strings.NewReader("this is not a pdf"))

	var docErr *errors.DocumentParseError
	require.True(t, stderrors.As(err, &docErr), "got %v", err)
	assert.Equal(t, errors.ErrCodeDocumentParseFailed, docErr.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging file must be removed on failure")
}

func TestExtractPDFCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(t.TempDir(), 0).ExtractPDF(ctx, "resume.pdf", bytes.NewReader(buildPDF("x")))
	assert.ErrorIs(t, err, context.Canceled)
}

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, "Jane Doe", "Go &amp; AWS engineer")

	text, err := New("", 0).ExtractDOCX(context.Background(), "resume.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo & AWS engineer", text)
}

func TestExtractDOCXInvalid(t *testing.T) {
	_, err := New("", 0).ExtractDOCX(context.Background(), "resume.docx", []byte("not a zip"))

	var docErr *errors.DocumentParseError
	assert.True(t, stderrors.As(err, &docErr))
}

func TestExtractDispatch(t *testing.T) {
	e := New(t.TempDir(), 0)

	doc, err := e.Extract(context.Background(), "resume.txt", "", strings.NewReader("Experienced Go developer"))
	require.NoError(t, err)
	assert.Equal(t, KindText, doc.Kind)
	assert.Equal(t, "Experienced Go developer", doc.Text)

	doc, err = e.Extract(context.Background(), "upload", "application/pdf", bytes.NewReader(buildPDF("Gopher")))
	require.NoError(t, err)
	assert.Equal(t, KindPDF, doc.Kind)
	assert.Contains(t, doc.Text, "Gopher")
}

func TestExtractRejectsOversizedDocument(t *testing.T) {
	e := New("", 8)

	_, err := e.Extract(context.Background(), "resume.txt", "", strings.NewReader("0123456789"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		want        Kind
		wantErr     bool
	}{
		{"pdf extension", "cv.PDF", "", nil, KindPDF, false},
		{"docx extension", "cv.docx", "", nil, KindDOCX, false},
		{"text content type with charset", "cv", "text/plain; charset=utf-8", nil, KindText, false},
		{"sniffed pdf", "upload", "application/octet-stream", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), KindPDF, false},
		{"sniffed text", "upload", "", []byte("plain resume text"), KindText, false},
		{"png rejected", "photo", "", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectKind(tt.filename, tt.contentType, tt.data)
			if tt.wantErr {
				var docErr *errors.DocumentParseError
				assert.True(t, stderrors.As(err, &docErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
