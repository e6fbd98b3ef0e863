package formatters

import (
	"fmt"
	"strings"

	"recruitagent/internal/types"
)

const (
	maxRating       = 5
	strengthRating  = 4
	weaknessRating  = 2
	scoreBarWidth   = 20
	noMissingSkills = "No missing skills identified!"
)

// Stars renders a 1-5 rating as filled and empty stars. Out-of-range
// ratings are clamped.
func Stars(rating int) string {
	rating = max(0, min(rating, maxRating))
	return strings.Repeat("⭐", rating) + strings.Repeat("☆", maxRating-rating)
}

// RatingLabel returns "Strength" for ratings of 4 and above, "Weakness" for
// 2 and below and "" otherwise.
func RatingLabel(rating int) string {
	switch {
	case rating >= strengthRating:
		return "Strength"
	case rating <= weaknessRating:
		return "Weakness"
	default:
		return ""
	}
}

func scoreBar(score int) string {
	filled := max(0, min(score, 100)) * scoreBarWidth / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", scoreBarWidth-filled) + "]"
}

// skillLine is the display form of one matching skill.
type skillLine struct {
	name    string
	rating  string // stars, or the raw rating when it is not an integer
	label   string
	comment string
	plain   bool
}

func describeSkill(entry types.SkillEntry) skillLine {
	switch s := entry.(type) {
	case types.RatedSkill:
		line := skillLine{name: s.Skill, comment: s.Comment}
		if n, ok := s.IntRating(); ok {
			line.rating = Stars(n)
			line.label = RatingLabel(n)
		} else {
			line.rating = s.RatingText()
		}
		return line
	default:
		return skillLine{name: entry.SkillName(), plain: true}
	}
}

func recommendationNote(result types.AnalysisResult) string {
	if result.RecommendationConsistent() {
		return ""
	}
	return fmt.Sprintf("Note: a score of %d suggests %q (threshold %d).",
		result.ATSScore, result.ExpectedRecommendation(), types.SelectionThreshold)
}

// AnalysisTextFormatter handles text formatting for analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	output.WriteString(fmt.Sprintf("ATS Score: %d/100 %s\n", result.ATSScore, scoreBar(result.ATSScore)))
	output.WriteString(fmt.Sprintf("Recommendation: %s\n", result.Recommendation))
	if note := recommendationNote(result); note != "" {
		output.WriteString(note)
		output.WriteString("\n")
	}
	output.WriteString("\n")

	output.WriteString("=== MATCHING SKILLS ===\n")
	for _, entry := range result.Skills() {
		line := describeSkill(entry)
		if line.plain {
			output.WriteString(fmt.Sprintf("✅ %s\n", line.name))
			continue
		}
		output.WriteString(fmt.Sprintf("%s - %s", line.name, line.rating))
		if line.label != "" {
			output.WriteString(fmt.Sprintf(" (%s)", line.label))
		}
		output.WriteString("\n")
		if line.comment != "" {
			output.WriteString(fmt.Sprintf("   %s\n", line.comment))
		}
	}
	output.WriteString("\n")

	output.WriteString("=== MISSING SKILLS ===\n")
	if missing := result.Missing(); len(missing) > 0 {
		for _, skill := range missing {
			output.WriteString(fmt.Sprintf("❌ %s\n", skill))
		}
	} else {
		output.WriteString(noMissingSkills + "\n")
	}
	output.WriteString("\n")

	output.WriteString("=== OVERALL ASSESSMENT ===\n")
	output.WriteString(result.Assessment)
	output.WriteString("\n")

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return typeAnalysis
}

// AnalysisMarkdownFormatter handles markdown formatting for analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Resume Analysis\n\n")
	output.WriteString(fmt.Sprintf("### ATS Score: %d/100\n\n", result.ATSScore))
	output.WriteString(fmt.Sprintf("**Recommendation:** %s\n\n", result.Recommendation))
	if note := recommendationNote(result); note != "" {
		output.WriteString(fmt.Sprintf("> %s\n\n", note))
	}

	output.WriteString("## Matching Skills\n\n")
	for _, entry := range result.Skills() {
		line := describeSkill(entry)
		if line.plain {
			output.WriteString(fmt.Sprintf("- ✅ %s\n", line.name))
			continue
		}
		output.WriteString(fmt.Sprintf("- **%s** - %s", line.name, line.rating))
		if line.label != "" {
			output.WriteString(fmt.Sprintf(" _%s_", line.label))
		}
		output.WriteString("\n")
		if line.comment != "" {
			output.WriteString(fmt.Sprintf("  *%s*\n", line.comment))
		}
	}
	output.WriteString("\n")

	output.WriteString("## Missing Skills\n\n")
	if missing := result.Missing(); len(missing) > 0 {
		for _, skill := range missing {
			output.WriteString(fmt.Sprintf("- ❌ %s\n", skill))
		}
	} else {
		output.WriteString(noMissingSkills + "\n")
	}
	output.WriteString("\n")

	output.WriteString("## Overall Assessment\n\n")
	output.WriteString(result.Assessment)
	output.WriteString("\n")

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return typeAnalysis
}
