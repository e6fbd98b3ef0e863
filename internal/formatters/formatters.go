package formatters

import (
	"encoding/json"
	"fmt"
	"slices"

	"recruitagent/internal/session"
	"recruitagent/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// Supported output formats.
const (
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

const (
	typeAnalysis  = "AnalysisResult"
	typeQuestions = "QuestionsOutput"
	typeImprove   = "ImproveOutput"
	typeAnswer    = "AnswerOutput"
	typeSummary   = "SessionSummary"
	typeAny       = "any"
)

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter(FormatJSON, typeAny, &JSONFormatter{})
	registry.RegisterFormatter(FormatText, typeAnalysis, &AnalysisTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, typeAnalysis, &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter(FormatText, typeQuestions, &QuestionsTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, typeQuestions, &QuestionsMarkdownFormatter{})
	registry.RegisterFormatter(FormatText, typeImprove, &ImproveTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, typeImprove, &ImproveMarkdownFormatter{})
	registry.RegisterFormatter(FormatText, typeAnswer, &AnswerTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, typeAnswer, &AnswerMarkdownFormatter{})
	registry.RegisterFormatter(FormatText, typeSummary, &SummaryTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, typeSummary, &SummaryMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter. Pointers to the
// known output types are dereferenced first.
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters[typeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted.
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.AnalysisResult:
		if v != nil {
			return *v
		}
	case *types.QuestionsOutput:
		if v != nil {
			return *v
		}
	case *types.ImproveOutput:
		if v != nil {
			return *v
		}
	case *types.AnswerOutput:
		if v != nil {
			return *v
		}
	case *session.Summary:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult:
		return typeAnalysis
	case types.QuestionsOutput:
		return typeQuestions
	case types.ImproveOutput:
		return typeImprove
	case types.AnswerOutput:
		return typeAnswer
	case session.Summary:
		return typeSummary
	default:
		return typeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return typeAny
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
