package common

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"recruitagent/internal/errors"
	"recruitagent/internal/extract"
	"recruitagent/internal/utils"
)

// maxJobDescriptionBytes bounds job description files, which are read
// whole into the prompt.
const maxJobDescriptionBytes int64 = 1 << 20

const codeInvalidInputFile = "INVALID_INPUT_FILE"

// FileProcessor reads resumes and job descriptions from disk and writes
// command output.
type FileProcessor struct {
	extractor *extract.Extractor
	logger    *errors.Logger
}

// NewFileProcessor creates a new file processor instance. A nil extractor
// gets the default limits.
func NewFileProcessor(extractor *extract.Extractor, logger *errors.Logger) *FileProcessor {
	if extractor == nil {
		extractor = extract.New("", 0)
	}
	if logger == nil {
		logger = errors.Nop()
	}
	return &FileProcessor{extractor: extractor, logger: logger}
}

// ReadDocument extracts the text of a PDF, DOCX or plain text resume. The
// extractor enforces its own size limit.
func (fp *FileProcessor) ReadDocument(ctx context.Context, path string) (*extract.Document, error) {
	if err := utils.CheckInputFile(path, 0); err != nil {
		return nil, errors.NewValidationError(codeInvalidInputFile, "Cannot use resume file", err)
	}
	if !utils.IsResumeDocument(path) {
		fp.logger.Warn("Unrecognised resume extension, detecting type from content", "path", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", path), err)
	}
	defer func() { _ = f.Close() }()

	doc, err := fp.extractor.Extract(ctx, filepath.Base(path), "", f)
	if err != nil {
		return nil, err
	}
	fp.logger.Debug("Resume extracted",
		"path", path,
		"kind", string(doc.Kind),
		"characters", len([]rune(doc.Text)))
	return doc, nil
}

// ReadText returns the trimmed contents of a plain text file such as a job
// description.
func (fp *FileProcessor) ReadText(path string) (string, error) {
	if err := utils.CheckInputFile(path, maxJobDescriptionBytes); err != nil {
		return "", errors.NewValidationError(codeInvalidInputFile, "Cannot use job description file", err)
	}
	if !utils.IsTextFile(path) {
		fp.logger.Warn("Job description does not have a text extension", "path", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", path), err)
	}
	return strings.TrimSpace(string(content)), nil
}

// PrepareOutput checks that path can take the command output. An empty
// path means stdout.
func (fp *FileProcessor) PrepareOutput(path string) error {
	if err := utils.PrepareOutputFile(path); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE", "Cannot write output file", err)
	}
	return nil
}

// WriteFile writes content to path, which PrepareOutput has checked.
func (fp *FileProcessor) WriteFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", path), err)
	}
	return nil
}
