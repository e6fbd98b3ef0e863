package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	agentErrors "recruitagent/internal/errors"
	"recruitagent/internal/session"
	"recruitagent/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestRunner(out *bytes.Buffer) *CommandRunner {
	r := NewCommandRunner(nil, nil)
	r.Output = NewOutputHandlerWithWriter(out, nil)
	return r
}

func TestRunAICommandLoadsSessionAndPrints(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Jane Doe\nGo developer")
	job := writeFile(t, dir, "job.txt", "  Senior Go engineer  \n")

	var out bytes.Buffer
	r := newTestRunner(&out)

	var seen *session.Session
	err := RunAICommand(context.Background(), r,
		CommandConfig{OutputFormat: "text"},
		CommandInputs{ResumeFile: resume, JobFile: job},
		"answer",
		func(_ context.Context, sess *session.Session) (*types.AnswerOutput, error) {
			seen = sess
			return &types.AnswerOutput{Question: "Language?", Answer: "Go."}, nil
		})
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, "resume.txt", seen.ResumeName)
	assert.Equal(t, "Jane Doe\nGo developer", seen.ResumeText)
	assert.Equal(t, "Senior Go engineer", seen.JobDescription)
	assert.Contains(t, out.String(), "Q: Language?")
}

func TestRunAICommandWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.md", "# Jane")
	target := filepath.Join(dir, "out", "improved_resume.txt")

	var out bytes.Buffer
	r := newTestRunner(&out)

	err := RunAICommand(context.Background(), r,
		CommandConfig{OutputFormat: "text", OutputFile: target},
		CommandInputs{ResumeFile: resume},
		"improve",
		func(context.Context, *session.Session) (*types.ImproveOutput, error) {
			return &types.ImproveOutput{ImprovedResume: "JANE DOE"}, nil
		})
	require.NoError(t, err)

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "JANE DOE", string(written))
	assert.Empty(t, out.String())
}

func TestRunAICommandMissingResume(t *testing.T) {
	var out bytes.Buffer
	r := newTestRunner(&out)
	called := false

	err := RunAICommand(context.Background(), r,
		CommandConfig{OutputFormat: "text"},
		CommandInputs{ResumeFile: filepath.Join(t.TempDir(), "nope.pdf")},
		"analyze",
		func(context.Context, *session.Session) (*types.ImproveOutput, error) {
			called = true
			return nil, nil
		})
	assert.True(t, agentErrors.IsType(err, agentErrors.ErrorTypeValidation))
	assert.False(t, called)
}

func TestRunAICommandBadDocument(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.pdf", "this is not a pdf")

	var out bytes.Buffer
	err := RunAICommand(context.Background(), newTestRunner(&out),
		CommandConfig{OutputFormat: "text"},
		CommandInputs{ResumeFile: resume},
		"analyze",
		func(context.Context, *session.Session) (*types.ImproveOutput, error) {
			return nil, nil
		})
	var parseErr *agentErrors.DocumentParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestHandleOutputRejectsUnknownFormat(t *testing.T) {
	var out bytes.Buffer
	oh := NewOutputHandlerWithWriter(&out, nil)

	err := oh.HandleOutput(types.ImproveOutput{ImprovedResume: "x"}, CommandConfig{OutputFormat: "yaml"})
	assert.True(t, agentErrors.IsType(err, agentErrors.ErrorTypeValidation))
	assert.Equal(t, []string{"json", "markdown", "text"}, oh.GetSupportedFormats())
}
