// Package extract turns uploaded resume documents into plain text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"recruitagent/internal/errors"
)

// Kind is a supported document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindText Kind = "text"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"

	// DefaultMaxBytes bounds a single uploaded document.
	DefaultMaxBytes int64 = 10 << 20
)

// Extractor converts documents to text. The zero value is not usable; use New.
type Extractor struct {
	tempDir  string
	maxBytes int64
}

// New returns an Extractor staging PDFs under tempDir (os.TempDir when
// empty) and rejecting documents larger than maxBytes.
func New(tempDir string, maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Extractor{tempDir: tempDir, maxBytes: maxBytes}
}

// Document is the result of a successful extraction.
type Document struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	Text string `json:"-"`
}

// Extract reads r fully and dispatches on the file extension, the declared
// content type and finally the sniffed content.
func (e *Extractor) Extract(ctx context.Context, name, contentType string, r io.Reader) (*Document, error) {
	data, err := e.readAll(name, r)
	if err != nil {
		return nil, err
	}

	kind, err := DetectKind(name, contentType, data)
	if err != nil {
		return nil, err
	}

	var text string
	switch kind {
	case KindPDF:
		text, err = e.ExtractPDF(ctx, name, bytes.NewReader(data))
	case KindDOCX:
		text, err = e.ExtractDOCX(ctx, name, data)
	case KindText:
		text, err = e.ExtractText(ctx, name, data)
	}
	if err != nil {
		return nil, err
	}

	return &Document{Name: name, Kind: kind, Text: text}, nil
}

// DetectKind decides the document format.
func DetectKind(name, contentType string, data []byte) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, nil
	case ".docx":
		return KindDOCX, nil
	case ".txt", ".md", ".text":
		return KindText, nil
	}

	if kind, ok := kindFromMIME(contentType); ok {
		return kind, nil
	}

	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if kind, ok := kindFromMIME(m.String()); ok {
			return kind, nil
		}
	}

	return "", errors.NewDocumentParseError(name,
		fmt.Sprintf("unsupported document type '%s'. Supported types: PDF, DOCX, plain text", detected.String()), nil)
}

func kindFromMIME(contentType string) (Kind, bool) {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(strings.ToLower(mediaType)) {
	case mimePDF:
		return KindPDF, true
	case mimeDOCX:
		return KindDOCX, true
	case mimeText:
		return KindText, true
	}
	return "", false
}

// ExtractText accepts UTF-8 text as is.
func (e *Extractor) ExtractText(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.NewDocumentParseError(name, "text document is not valid UTF-8", nil)
	}
	return string(data), nil
}

func (e *Extractor) readAll(name string, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read uploaded document", err).
			WithContext("source", name)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("document exceeds the %d byte limit", e.maxBytes), nil).
			WithContext("source", name)
	}
	return data, nil
}
