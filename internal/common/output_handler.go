package common

import (
	"fmt"
	"io"
	"os"

	"recruitagent/internal/errors"
	"recruitagent/internal/formatters"
)

// CommandConfig holds the output flags shared by commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler renders a command result and sends it to a file or the
// handler's writer.
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	out      io.Writer
	logger   *errors.Logger
}

// NewOutputHandler creates an output handler printing to os.Stdout.
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return NewOutputHandlerWithWriter(os.Stdout, logger)
}

// NewOutputHandlerWithWriter creates an output handler printing to w.
func NewOutputHandlerWithWriter(w io.Writer, logger *errors.Logger) *OutputHandler {
	if logger == nil {
		logger = errors.Nop()
	}
	return &OutputHandler{
		files:    NewFileProcessor(nil, logger),
		registry: formatters.GlobalRegistry,
		out:      w,
		logger:   logger,
	}
}

// HandleOutput renders result in cfg.OutputFormat. The output file is
// checked before rendering so a bad path fails fast.
func (oh *OutputHandler) HandleOutput(result any, cfg CommandConfig) error {
	if err := oh.files.PrepareOutput(cfg.OutputFile); err != nil {
		return err
	}

	rendered, err := oh.registry.Format(result, cfg.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Cannot render output as %s", cfg.OutputFormat), err)
	}

	if cfg.OutputFile == "" {
		if _, err := fmt.Fprintln(oh.out, rendered); err != nil {
			return errors.NewIOError("STDOUT_WRITE_FAILED", "Cannot write output", err)
		}
		return nil
	}

	if err := oh.files.WriteFile(cfg.OutputFile, rendered); err != nil {
		return err
	}
	oh.logger.Info("Output written", "file", cfg.OutputFile, "format", cfg.OutputFormat)
	return nil
}

// GetSupportedFormats lists the formats the registry can render
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
