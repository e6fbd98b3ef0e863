package formatters

import (
	"encoding/json"
	"strings"
	"testing"

	"recruitagent/internal/session"
	"recruitagent/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAnalysis(t *testing.T, raw string) types.AnalysisResult {
	t.Helper()
	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	return result
}

func TestStars(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{5, "⭐⭐⭐⭐⭐"},
		{3, "⭐⭐⭐☆☆"},
		{0, "☆☆☆☆☆"},
		{7, "⭐⭐⭐⭐⭐"},
		{-1, "☆☆☆☆☆"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stars(tt.rating), "rating %d", tt.rating)
	}
}

func TestRatingLabel(t *testing.T) {
	assert.Equal(t, "Strength", RatingLabel(5))
	assert.Equal(t, "Strength", RatingLabel(4))
	assert.Equal(t, "", RatingLabel(3))
	assert.Equal(t, "Weakness", RatingLabel(2))
	assert.Equal(t, "Weakness", RatingLabel(1))
}

func TestAnalysisText(t *testing.T) {
	result := mustAnalysis(t, `{
		"ats_score": 82,
		"matching_skills": [
			{"skill": "Go", "rating": 5, "comment": "Six years in production"},
			{"skill": "SQL", "rating": 2, "comment": "Only coursework"},
			{"skill": "Docker", "rating": "high"},
			"Git"
		],
		"missing_skills": ["Terraform"],
		"assessment": "Solid backend profile.",
		"recommendation": "Selected"
	}`)

	out, err := GlobalRegistry.Format(&result, FormatText)
	require.NoError(t, err)

	assert.Contains(t, out, "ATS Score: 82/100")
	assert.Contains(t, out, "Go - ⭐⭐⭐⭐⭐ (Strength)")
	assert.Contains(t, out, "Six years in production")
	assert.Contains(t, out, "SQL - ⭐⭐☆☆☆ (Weakness)")
	assert.Contains(t, out, "Docker - high\n")
	assert.Contains(t, out, "✅ Git")
	assert.Contains(t, out, "❌ Terraform")
	assert.Contains(t, out, "Solid backend profile.")
	assert.NotContains(t, out, "Note:")
}

func TestAnalysisNoMissingSkillsAndMismatch(t *testing.T) {
	result := mustAnalysis(t, `{"ats_score": 60, "missing_skills": [], "recommendation": "Selected"}`)

	for _, format := range []string{FormatText, FormatMarkdown} {
		out, err := GlobalRegistry.Format(result, format)
		require.NoError(t, err)
		assert.Contains(t, out, "No missing skills identified!", format)
		assert.Contains(t, out, `suggests "Not Selected"`, format)
	}
}

func TestAnalysisMarkdown(t *testing.T) {
	result := mustAnalysis(t, `{"ats_score": 91, "matching_skills": [{"skill": "Kubernetes", "rating": 4}], "missing_skills": ["Rust"], "recommendation": "Selected"}`)

	out, err := GlobalRegistry.Format(result, FormatMarkdown)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Resume Analysis"))
	assert.Contains(t, out, "### ATS Score: 91/100")
	assert.Contains(t, out, "- **Kubernetes** - ⭐⭐⭐⭐☆ _Strength_")
	assert.Contains(t, out, "- ❌ Rust")
}

func TestAnalysisJSONKeepsRawRatings(t *testing.T) {
	result := mustAnalysis(t, `{"ats_score": 70, "matching_skills": [{"skill": "Go", "rating": "4"}, "Git"]}`)

	out, err := GlobalRegistry.Format(result, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, out, `"rating": "4"`)
	assert.Contains(t, out, `"Git"`)
}

func TestOtherOutputs(t *testing.T) {
	score := 77
	tests := []struct {
		name   string
		data   any
		format string
		want   []string
	}{
		{
			name:   "questions text",
			data:   &types.QuestionsOutput{Questions: "1. What is a goroutine?", Options: types.DefaultQuestionOptions()},
			format: FormatText,
			want:   []string{"Basic, Technical, Coding", "Difficulty: Medium", "Count: 3", "1. What is a goroutine?"},
		},
		{
			name:   "improve text is verbatim",
			data:   types.ImproveOutput{ImprovedResume: "JANE DOE"},
			format: FormatText,
			want:   []string{"JANE DOE"},
		},
		{
			name:   "answer markdown",
			data:   types.AnswerOutput{Question: "Where?", Answer: "Berlin."},
			format: FormatMarkdown,
			want:   []string{"## Where?", "Berlin."},
		},
		{
			name:   "summary text",
			data:   session.Summary{ID: "abc", HasResume: true, ResumeName: "cv.pdf", ResumeLength: 1200, ATSScore: &score},
			format: FormatText,
			want:   []string{"Session abc", "cv.pdf, 1200 characters", "ATS score:       77/100", "Improved resume: no"},
		},
		{
			name:   "summary markdown without score",
			data:   &session.Summary{ID: "abc"},
			format: FormatMarkdown,
			want:   []string{"| ATS score | not analyzed |"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := GlobalRegistry.Format(tt.data, tt.format)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(types.ImproveOutput{}, "yaml")
	assert.Error(t, err)
	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
}

func TestFormatterRejectsWrongType(t *testing.T) {
	_, err := (&AnalysisTextFormatter{}).Format("not an analysis")
	assert.Error(t, err)
}
