package ai

import (
	"strings"
	"testing"

	"recruitagent/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildersInterpolateEveryInput(t *testing.T) {
	resume := "Jane Doe\nGo developer, 6 years, Kubernetes"
	jd := "Senior Go engineer {remote} 100%"

	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{"analyze", BuildAnalyzePrompt(resume, jd), []string{resume, jd, `{"ats_score": <score>`}},
		{"improve", BuildImprovePrompt(resume, jd), []string{resume, jd, "ATS-friendly"}},
		{"answer", BuildAnswerPrompt(resume, "Does she know Rust?"), []string{resume, "please answer this question: Does she know Rust?"}},
		{"questions", BuildQuestionsPrompt(resume, jd, []types.QuestionType{types.QuestionTechnical}, types.DifficultyHard, 3), []string{resume, jd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.want {
				assert.Contains(t, tt.prompt, want)
			}
		})
	}
}

func TestBuildersArePure(t *testing.T) {
	in := PromptInput{
		ResumeText:     "resume",
		JobDescription: "jd",
		Question:       "why?",
		Options:        types.DefaultQuestionOptions(),
	}
	for _, kind := range []TaskKind{TaskAnalyze, TaskQuestions, TaskImprove, TaskAnswer} {
		first, err := Build(kind, in)
		require.NoError(t, err)
		second, err := Build(kind, in)
		require.NoError(t, err)
		assert.Equal(t, first, second, string(kind))
	}
}

func TestQuestionsPrompt(t *testing.T) {
	prompt := BuildQuestionsPrompt("resume", "jd", []types.QuestionType{types.QuestionTechnical}, types.DifficultyHard, 3)

	assert.Contains(t, prompt, "3")
	assert.Contains(t, prompt, "Technical")
	assert.Contains(t, prompt, "Hard")
	assert.True(t, strings.HasPrefix(prompt, "Based on the following resume and job description, generate 3 interview questions."))
}

func TestQuestionsPromptKeepsTypeOrder(t *testing.T) {
	prompt := BuildQuestionsPrompt("r", "j",
		[]types.QuestionType{types.QuestionCoding, types.QuestionBasic}, types.DifficultyEasy, 5)
	assert.Contains(t, prompt, "of the following types: Coding, Basic.")
	assert.Contains(t, prompt, "The difficulty level should be: Easy.")
}

func TestAnalyzePromptLayout(t *testing.T) {
	prompt := BuildAnalyzePrompt("RESUME", "JOB")

	assert.True(t, strings.HasPrefix(prompt, "Analyze the following resume against the job description.\n"))
	assert.Contains(t, prompt, "Resume:\nRESUME\n\nJob Description:\nJOB\n")
	assert.Contains(t, prompt, "5. Recommendation (Selected if score >= 75, Not Selected if score < 75)")
	assert.True(t, strings.HasSuffix(prompt, `"recommendation": "<Selected/Not Selected>"}`))
}

func TestBuildUnknownKind(t *testing.T) {
	_, err := Build(TaskKind("summarize"), PromptInput{})
	assert.Error(t, err)
}

func TestCustomUserTemplate(t *testing.T) {
	tmpl, err := ParseUserTemplate(TaskQuestions, "Ask {{.Count}} {{.Difficulty}} questions ({{.QuestionTypes}}) about:\n{{.ResumeText}}")
	require.NoError(t, err)

	out, err := RenderUserTemplate(tmpl, PromptInput{
		ResumeText: "<b>raw</b>",
		Options: types.QuestionOptions{
			Types:      []types.QuestionType{types.QuestionBasic, types.QuestionCoding},
			Difficulty: types.DifficultyMedium,
			Count:      4,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ask 4 Medium questions (Basic, Coding) about:\n<b>raw</b>", out)
}

func TestCustomUserTemplateRejectsUnknownField(t *testing.T) {
	tmpl, err := ParseUserTemplate(TaskAnswer, "{{.Salary}}")
	require.NoError(t, err)
	_, err = RenderUserTemplate(tmpl, PromptInput{})
	assert.Error(t, err)

	_, err = ParseUserTemplate(TaskAnswer, "{{.ResumeText")
	assert.Error(t, err)
}
