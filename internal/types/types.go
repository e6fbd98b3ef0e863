// Package types holds the data exchanged between the extractor, the prompt
// builder, the AI providers and the outer surfaces.
package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// QuestionType is a category of interview question.
type QuestionType string

const (
	QuestionBasic     QuestionType = "Basic"
	QuestionTechnical QuestionType = "Technical"
	QuestionCoding    QuestionType = "Coding"
)

// AllQuestionTypes lists the question types in display order.
var AllQuestionTypes = []QuestionType{QuestionBasic, QuestionTechnical, QuestionCoding}

// Difficulty is the requested interview question difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

const (
	MinQuestions     = 1
	MaxQuestions     = 10
	DefaultQuestions = 3
)

// QuestionOptions parameterises interview question generation.
type QuestionOptions struct {
	Types      []QuestionType `json:"types" validate:"required,min=1,dive,oneof=Basic Technical Coding"`
	Difficulty Difficulty     `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Count      int            `json:"count" validate:"min=1,max=10"`
}

// DefaultQuestionOptions returns every question type at Medium difficulty.
func DefaultQuestionOptions() QuestionOptions {
	types := make([]QuestionType, len(AllQuestionTypes))
	copy(types, AllQuestionTypes)
	return QuestionOptions{
		Types:      types,
		Difficulty: DifficultyMedium,
		Count:      DefaultQuestions,
	}
}

// WithDefaults fills zero-valued fields from DefaultQuestionOptions.
func (o QuestionOptions) WithDefaults() QuestionOptions {
	def := DefaultQuestionOptions()
	if len(o.Types) == 0 {
		o.Types = def.Types
	}
	if o.Difficulty == "" {
		o.Difficulty = def.Difficulty
	}
	if o.Count == 0 {
		o.Count = def.Count
	}
	return o
}

func (o QuestionOptions) Validate() error {
	return Validate(o)
}

// TypeNames returns the question types as plain strings, in order.
func (o QuestionOptions) TypeNames() []string {
	names := make([]string, len(o.Types))
	for i, t := range o.Types {
		names[i] = string(t)
	}
	return names
}

// ParseQuestionTypes accepts case-insensitive type names.
func ParseQuestionTypes(names []string) ([]QuestionType, error) {
	var out []QuestionType
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		matched := false
		for _, t := range AllQuestionTypes {
			if strings.EqualFold(name, string(t)) {
				out = append(out, t)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("unknown question type '%s'. Supported types: %v", name, AllQuestionTypes)
		}
	}
	return out, nil
}

// ParseDifficulty accepts a case-insensitive difficulty name.
func ParseDifficulty(name string) (Difficulty, error) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		if strings.EqualFold(strings.TrimSpace(name), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty '%s'. Supported difficulties: [Easy Medium Hard]", name)
}

// AnalyzeInput is the input of resume analysis and resume improvement.
type AnalyzeInput struct {
	ResumeText     string `json:"resumeText" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required"`
}

func (in AnalyzeInput) Validate() error {
	return Validate(in)
}

// QuestionsInput is the input of interview question generation.
type QuestionsInput struct {
	ResumeText     string          `json:"resumeText" validate:"required"`
	JobDescription string          `json:"jobDescription" validate:"required"`
	Options        QuestionOptions `json:"options"`
}

func (in QuestionsInput) Validate() error {
	return Validate(in)
}

// AnswerInput is the input of a resume question-and-answer request.
type AnswerInput struct {
	ResumeText string `json:"resumeText" validate:"required"`
	Question   string `json:"question" validate:"required"`
}

func (in AnswerInput) Validate() error {
	return Validate(in)
}

// QuestionsOutput carries generated interview questions as returned by the model.
type QuestionsOutput struct {
	Questions string          `json:"questions"`
	Options   QuestionOptions `json:"options"`
}

// ImproveOutput carries an improved resume.
type ImproveOutput struct {
	ImprovedResume string `json:"improved_resume"`
}

// AnswerOutput carries the answer to a question about a resume.
type AnswerOutput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the validate struct tags of v and reports the first
// failing field in a readable form.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return fmt.Errorf("validation error: %s", describeFieldError(verrs[0]))
	}
	return err
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "max":
		if fe.Field() == "Count" {
			return fmt.Sprintf("question count must be between %d and %d", MinQuestions, MaxQuestions)
		}
		if fe.Field() == "Types" {
			return "at least one question type is required"
		}
		return fmt.Sprintf("%s - %s %s", fe.Field(), fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got '%v'", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s - %s", fe.Field(), fe.Tag())
	}
}
