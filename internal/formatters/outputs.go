package formatters

import (
	"fmt"
	"strings"
	"time"

	"recruitagent/internal/session"
	"recruitagent/internal/types"
)

// QuestionsTextFormatter handles text formatting for generated interview questions
type QuestionsTextFormatter struct{}

func (qtf *QuestionsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.QuestionsOutput)
	if !ok {
		return "", fmt.Errorf("expected QuestionsOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("=== INTERVIEW QUESTIONS ===\n")
	output.WriteString(fmt.Sprintf("Types: %s | Difficulty: %s | Count: %d\n\n",
		strings.Join(result.Options.TypeNames(), ", "), result.Options.Difficulty, result.Options.Count))
	output.WriteString(result.Questions)
	output.WriteString("\n")
	return output.String(), nil
}

func (qtf *QuestionsTextFormatter) SupportedType() string {
	return typeQuestions
}

// QuestionsMarkdownFormatter handles markdown formatting for generated interview questions
type QuestionsMarkdownFormatter struct{}

func (qmf *QuestionsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.QuestionsOutput)
	if !ok {
		return "", fmt.Errorf("expected QuestionsOutput, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Interview Questions\n\n")
	output.WriteString(fmt.Sprintf("**Types:** %s  \n", strings.Join(result.Options.TypeNames(), ", ")))
	output.WriteString(fmt.Sprintf("**Difficulty:** %s  \n", result.Options.Difficulty))
	output.WriteString(fmt.Sprintf("**Count:** %d\n\n", result.Options.Count))
	output.WriteString(result.Questions)
	output.WriteString("\n")
	return output.String(), nil
}

func (qmf *QuestionsMarkdownFormatter) SupportedType() string {
	return typeQuestions
}

// ImproveTextFormatter prints the improved resume as is, so it can be
// redirected straight into a file.
type ImproveTextFormatter struct{}

func (itf *ImproveTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ImproveOutput)
	if !ok {
		return "", fmt.Errorf("expected ImproveOutput, got %T", data)
	}
	return result.ImprovedResume, nil
}

func (itf *ImproveTextFormatter) SupportedType() string {
	return typeImprove
}

// ImproveMarkdownFormatter handles markdown formatting for improved resumes
type ImproveMarkdownFormatter struct{}

func (imf *ImproveMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ImproveOutput)
	if !ok {
		return "", fmt.Errorf("expected ImproveOutput, got %T", data)
	}
	return "# Improved Resume\n\n" + result.ImprovedResume + "\n", nil
}

func (imf *ImproveMarkdownFormatter) SupportedType() string {
	return typeImprove
}

// AnswerTextFormatter handles text formatting for resume Q&A
type AnswerTextFormatter struct{}

func (atf *AnswerTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnswerOutput)
	if !ok {
		return "", fmt.Errorf("expected AnswerOutput, got %T", data)
	}
	return fmt.Sprintf("Q: %s\n\n%s\n", result.Question, result.Answer), nil
}

func (atf *AnswerTextFormatter) SupportedType() string {
	return typeAnswer
}

// AnswerMarkdownFormatter handles markdown formatting for resume Q&A
type AnswerMarkdownFormatter struct{}

func (amf *AnswerMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnswerOutput)
	if !ok {
		return "", fmt.Errorf("expected AnswerOutput, got %T", data)
	}
	return fmt.Sprintf("## %s\n\n%s\n", result.Question, result.Answer), nil
}

func (amf *AnswerMarkdownFormatter) SupportedType() string {
	return typeAnswer
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func scoreText(score *int) string {
	if score == nil {
		return "not analyzed"
	}
	return fmt.Sprintf("%d/100", *score)
}

// SummaryTextFormatter handles text formatting for session summaries
type SummaryTextFormatter struct{}

func (stf *SummaryTextFormatter) Format(data any) (string, error) {
	sum, ok := data.(session.Summary)
	if !ok {
		return "", fmt.Errorf("expected session.Summary, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("Session %s\n", sum.ID))
	output.WriteString(fmt.Sprintf("  Resume:          %s", yesNo(sum.HasResume)))
	if sum.HasResume {
		output.WriteString(fmt.Sprintf(" (%s, %d characters)", sum.ResumeName, sum.ResumeLength))
	}
	output.WriteString("\n")
	output.WriteString(fmt.Sprintf("  Job description: %s\n", yesNo(sum.HasJobDescription)))
	output.WriteString(fmt.Sprintf("  ATS score:       %s\n", scoreText(sum.ATSScore)))
	output.WriteString(fmt.Sprintf("  Improved resume: %s\n", yesNo(sum.HasImprovedResume)))
	output.WriteString(fmt.Sprintf("  Updated:         %s\n", sum.UpdatedAt.Format(time.RFC3339)))
	return output.String(), nil
}

func (stf *SummaryTextFormatter) SupportedType() string {
	return typeSummary
}

// SummaryMarkdownFormatter handles markdown formatting for session summaries
type SummaryMarkdownFormatter struct{}

func (smf *SummaryMarkdownFormatter) Format(data any) (string, error) {
	sum, ok := data.(session.Summary)
	if !ok {
		return "", fmt.Errorf("expected session.Summary, got %T", data)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# Session `%s`\n\n", sum.ID))
	output.WriteString("| Item | Status |\n|---|---|\n")
	output.WriteString(fmt.Sprintf("| Resume | %s |\n", yesNo(sum.HasResume)))
	output.WriteString(fmt.Sprintf("| Job description | %s |\n", yesNo(sum.HasJobDescription)))
	output.WriteString(fmt.Sprintf("| ATS score | %s |\n", scoreText(sum.ATSScore)))
	output.WriteString(fmt.Sprintf("| Improved resume | %s |\n", yesNo(sum.HasImprovedResume)))
	return output.String(), nil
}

func (smf *SummaryMarkdownFormatter) SupportedType() string {
	return typeSummary
}
