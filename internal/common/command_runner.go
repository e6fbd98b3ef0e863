package common

import (
	"context"
	"fmt"
	"time"

	"recruitagent/internal/errors"
	"recruitagent/internal/session"
)

// CommandInputs names the files a command reads. JobFile is optional.
type CommandInputs struct {
	ResumeFile string
	JobFile    string
}

// SessionAction is a recruiter action run against a one-off session.
type SessionAction[Output any] func(context.Context, *session.Session) (Output, error)

// CommandRunner loads command inputs into a session, runs an action and
// writes its result.
type CommandRunner struct {
	Files  *FileProcessor
	Output *OutputHandler
	Logger *errors.Logger
}

// NewCommandRunner wires a runner printing to stdout.
func NewCommandRunner(files *FileProcessor, logger *errors.Logger) *CommandRunner {
	if logger == nil {
		logger = errors.Nop()
	}
	if files == nil {
		files = NewFileProcessor(nil, logger)
	}
	return &CommandRunner{Files: files, Output: NewOutputHandler(logger), Logger: logger}
}

// LoadSession extracts the resume and reads the job description into a new
// session that is never stored.
func (r *CommandRunner) LoadSession(ctx context.Context, inputs CommandInputs) (*session.Session, error) {
	now := time.Now()
	sess := &session.Session{ID: "cli", CreatedAt: now, UpdatedAt: now}

	doc, err := r.Files.ReadDocument(ctx, inputs.ResumeFile)
	if err != nil {
		return nil, err
	}
	sess.SetResume(doc.Name, doc.Text)

	if inputs.JobFile != "" {
		jd, err := r.Files.ReadText(inputs.JobFile)
		if err != nil {
			return nil, err
		}
		sess.SetJobDescription(jd)
	}
	return sess, nil
}

// RunAICommand runs a session-based CLI command end to end.
func RunAICommand[Output any](
	ctx context.Context,
	r *CommandRunner,
	cmdConfig CommandConfig,
	inputs CommandInputs,
	operation string,
	action SessionAction[Output],
) error {
	sess, err := r.LoadSession(ctx, inputs)
	if err != nil {
		return err
	}

	r.Logger.Info(fmt.Sprintf("Running %s", operation),
		"resume", inputs.ResumeFile,
		"resume_length", len(sess.ResumeText),
		"job_description_length", len(sess.JobDescription),
		"format", cmdConfig.OutputFormat)

	start := time.Now()
	result, err := action(ctx, sess)
	if err != nil {
		return err
	}
	r.Logger.Debug("Operation completed", "operation", operation, "duration_ms", time.Since(start).Milliseconds())

	return r.Output.HandleOutput(result, cmdConfig)
}
