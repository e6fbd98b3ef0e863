// Package utils holds path checks shared by the CLI commands.
package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	textExtensions     = []string{".txt", ".text", ".md", ".markdown"}
	documentExtensions = []string{".pdf", ".docx"}
)

// CheckInputFile reports why path cannot be read as an input, or nil. A
// positive maxBytes also rejects larger files before they are opened.
func CheckInputFile(path string, maxBytes int64) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("no input file given")
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: no such file", path)
	case err != nil:
		return fmt.Errorf("%s: %w", path, err)
	case info.IsDir():
		return fmt.Errorf("%s: is a directory", path)
	case maxBytes > 0 && info.Size() > maxBytes:
		return fmt.Errorf("%s: %s exceeds the %s limit", path, FormatFileSize(info.Size()), FormatFileSize(maxBytes))
	}

	// Stat succeeds on files we are not allowed to read.
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// PrepareOutputFile makes sure path can be written: it must not be a
// directory, and a missing parent directory is created. An empty path
// means stdout.
func PrepareOutputFile(path string) error {
	if path == "" {
		return nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s: output path is a directory", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	return nil
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsTextFile reports whether path has a plain text extension.
func IsTextFile(path string) bool {
	return slices.Contains(textExtensions, extension(path))
}

// IsResumeDocument reports whether the extractor recognises path by its
// extension alone. Other files are sniffed.
func IsResumeDocument(path string) bool {
	return IsTextFile(path) || slices.Contains(documentExtensions, extension(path))
}

// FormatFileSize renders size with binary units, e.g. "1.5 KB".
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	value, suffix := float64(size)/unit, 0
	for value >= unit && suffix < 5 {
		value /= unit
		suffix++
	}
	return fmt.Sprintf("%.1f %cB", value, "KMGTPE"[suffix])
}
