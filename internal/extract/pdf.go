package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"recruitagent/internal/errors"
)

// pageSource is the part of a PDF reader the text concatenation needs.
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfPages struct {
	r *pdf.Reader
}

func (p pdfPages) NumPage() int {
	return p.r.NumPage()
}

func (p pdfPages) PageText(i int) (string, error) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// ExtractPDF stages r in a temporary file, then returns the text of every
// page concatenated in page order with no separators. The staging file is
// removed before returning.
func (e *Extractor) ExtractPDF(ctx context.Context, name string, r io.Reader) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(e.tempDir, "resume-*.pdf")
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to stage PDF upload", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil {
		return "", errors.NewDocumentParseError(name, "failed to read PDF upload", copyErr)
	}
	if closeErr != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to stage PDF upload", closeErr)
	}

	// The PDF library panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = errors.NewDocumentParseError(name, "invalid PDF document", fmt.Errorf("%v", rec))
		}
	}()

	f, reader, err := pdf.Open(tmpPath)
	if err != nil {
		return "", errors.NewDocumentParseError(name, "invalid PDF document", err)
	}
	defer f.Close()

	return concatPages(ctx, name, pdfPages{r: reader})
}

func concatPages(ctx context.Context, name string, src pageSource) (string, error) {
	var sb strings.Builder
	for i := 1; i <= src.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := src.PageText(i)
		if err != nil {
			return "", errors.NewDocumentParseError(name, fmt.Sprintf("failed to read page %d", i), err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
