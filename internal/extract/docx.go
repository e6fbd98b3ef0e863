package extract

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"recruitagent/internal/errors"
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	lineBreak    = regexp.MustCompile(`<w:(br|cr)\s*/>`)
	tabMark      = regexp.MustCompile(`<w:tab\s*/>`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)
)

// ExtractDOCX returns the text of a Word document, one line per paragraph.
func (e *Extractor) ExtractDOCX(ctx context.Context, name string, data []byte) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = errors.NewDocumentParseError(name, "invalid DOCX document", fmt.Errorf("%v", rec))
		}
	}()

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewDocumentParseError(name, "invalid DOCX document", err)
	}
	defer doc.Close()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

func docxXMLToText(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = lineBreak.ReplaceAllString(content, "\n")
	content = tabMark.ReplaceAllString(content, "\t")
	content = anyTag.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}
