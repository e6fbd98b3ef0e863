package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"recruitagent/internal/types"
)

// TaskKind names one of the four prompt templates. The values match the
// operation names used in configuration.
type TaskKind string

const (
	TaskAnalyze   TaskKind = "analyze"
	TaskQuestions TaskKind = "questions"
	TaskImprove   TaskKind = "improve"
	TaskAnswer    TaskKind = "answer"
)

// DefaultSystemPrompt is sent as the system message of every request unless
// configuration overrides it.
const DefaultSystemPrompt = "You are an AI recruitment assistant that helps with resume analysis, interview preparation, and resume improvement."

// PromptInput carries every value a template may interpolate. Each task
// kind reads only the fields it needs.
type PromptInput struct {
	ResumeText     string
	JobDescription string
	Question       string
	Options        types.QuestionOptions
}

const analyzeTemplate = `Analyze the following resume against the job description.
Provide a detailed analysis of how well the resume matches the job requirements.
Calculate an ATS score out of 100 based on keyword matching, relevant experience, and overall fit.

Resume:
%s

Job Description:
%s

Please provide the following in your response:
1. ATS Score (out of 100)
2. Key matching skills and experiences with ratings (1-5 scale, where 5 is excellent match and 1 is poor match)
3. Missing skills or qualifications
4. Overall assessment
5. Recommendation (Selected if score >= 75, Not Selected if score < 75)

Format your response as a JSON with the following structure:
{"ats_score": <score>, "matching_skills": [{
    "skill": "<skill name>",
    "rating": <rating 1-5>,
    "comment": "<brief comment on strength/weakness>"}],
"missing_skills": [<list of skills>],
"assessment": "<assessment text>",
"recommendation": "<Selected/Not Selected>"}`

const questionsTemplate = `Based on the following resume and job description, generate %d interview questions.
The questions should be of the following types: %s.
The difficulty level should be: %s.

Resume:
%s

Job Description:
%s

Format your response as a list of questions with explanations for why each question is relevant.`

const improveTemplate = `Improve the following resume to better match the job description.
Make it more ATS-friendly and highlight relevant skills and experiences.

Resume:
%s

Job Description:
%s

Please provide the improved resume in a professional format.`

const answerTemplate = `Based on the following resume, please answer this question: %s

Resume:
%s`

// BuildAnalyzePrompt asks for an ATS score and a JSON skills breakdown.
func BuildAnalyzePrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(analyzeTemplate, resumeText, jobDescription)
}

// BuildQuestionsPrompt asks for count interview questions of the given
// types, joined with ", " in the order given.
func BuildQuestionsPrompt(resumeText, jobDescription string, questionTypes []types.QuestionType, difficulty types.Difficulty, count int) string {
	names := make([]string, len(questionTypes))
	for i, t := range questionTypes {
		names[i] = string(t)
	}
	return fmt.Sprintf(questionsTemplate, count, strings.Join(names, ", "), difficulty, resumeText, jobDescription)
}

// BuildImprovePrompt asks for an ATS-friendly rewrite of the resume.
func BuildImprovePrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(improveTemplate, resumeText, jobDescription)
}

// BuildAnswerPrompt asks a free-form question about the resume.
func BuildAnswerPrompt(resumeText, question string) string {
	return fmt.Sprintf(answerTemplate, question, resumeText)
}

// Build dispatches to the builder for kind.
func Build(kind TaskKind, in PromptInput) (string, error) {
	switch kind {
	case TaskAnalyze:
		return BuildAnalyzePrompt(in.ResumeText, in.JobDescription), nil
	case TaskQuestions:
		opts := in.Options
		return BuildQuestionsPrompt(in.ResumeText, in.JobDescription, opts.Types, opts.Difficulty, opts.Count), nil
	case TaskImprove:
		return BuildImprovePrompt(in.ResumeText, in.JobDescription), nil
	case TaskAnswer:
		return BuildAnswerPrompt(in.ResumeText, in.Question), nil
	default:
		return "", fmt.Errorf("unknown task kind: %s", kind)
	}
}

// templateData is the value custom user templates are executed against.
type templateData struct {
	ResumeText     string
	JobDescription string
	Question       string
	QuestionTypes  string
	Difficulty     string
	Count          int
}

// ParseUserTemplate compiles an operator-supplied user prompt. Templates use
// text/template syntax, e.g. {{.ResumeText}} or {{.Count}}.
func ParseUserTemplate(kind TaskKind, text string) (*template.Template, error) {
	tmpl, err := template.New(string(kind)).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s prompt template: %w", kind, err)
	}
	return tmpl, nil
}

// RenderUserTemplate executes a custom template. No escaping is applied.
func RenderUserTemplate(tmpl *template.Template, in PromptInput) (string, error) {
	data := templateData{
		ResumeText:     in.ResumeText,
		JobDescription: in.JobDescription,
		Question:       in.Question,
		QuestionTypes:  strings.Join(in.Options.TypeNames(), ", "),
		Difficulty:     string(in.Options.Difficulty),
		Count:          in.Options.Count,
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// resolvePrompt picks the first non-empty prompt in priority order:
// loaded from a file, set inline in configuration, built in.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
