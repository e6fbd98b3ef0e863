package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	RecommendationSelected    = "Selected"
	RecommendationNotSelected = "Not Selected"

	// SelectionThreshold is the score the analysis prompt asks the model
	// to use when choosing a recommendation.
	SelectionThreshold = 75
)

// ErrMissingATSScore is returned when an analysis object has no ats_score.
var ErrMissingATSScore = errors.New("ats_score is missing")

// AnalysisResult is a resume-to-job analysis as reported by the model.
// Recommendation is kept exactly as the model wrote it.
type AnalysisResult struct {
	ATSScore       int       `json:"ats_score"`
	MatchingSkills SkillList `json:"matching_skills,omitempty"`
	MissingSkills  []string  `json:"missing_skills,omitempty"`
	Assessment     string    `json:"assessment,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
}

// UnmarshalJSON requires ats_score to be present and numeric. A score given
// as a numeric string is accepted. The remaining fields are optional: a field
// with an unexpected shape is left at its empty value rather than failing the
// whole object.
func (a *AnalysisResult) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("analysis is not a JSON object")
	}

	score, err := decodeScore(fields["ats_score"])
	if err != nil {
		return err
	}

	var skills SkillList
	_ = skills.UnmarshalJSON(fields["matching_skills"])

	*a = AnalysisResult{
		ATSScore:       score,
		MatchingSkills: skills,
		MissingSkills:  decodeNames(fields["missing_skills"]),
		Assessment:     optionalString(fields["assessment"]),
		Recommendation: optionalString(fields["recommendation"]),
	}
	return nil
}

func decodeScore(raw json.RawMessage) (int, error) {
	text := bytes.TrimSpace(raw)
	if len(text) == 0 || bytes.Equal(text, []byte("null")) {
		return 0, ErrMissingATSScore
	}
	if text[0] == '"' {
		var quoted string
		if err := json.Unmarshal(text, &quoted); err != nil {
			return 0, fmt.Errorf("ats_score is not a number: %w", err)
		}
		text = []byte(strings.TrimSpace(quoted))
		if len(text) == 0 || text[0] == '"' {
			return 0, fmt.Errorf("ats_score is not a number: %q", quoted)
		}
	}

	score, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return 0, fmt.Errorf("ats_score is not a number: %s", text)
	}
	if math.IsNaN(score) || math.Abs(score) > math.MaxInt32 {
		return 0, fmt.Errorf("ats_score out of range: %s", text)
	}
	return int(math.Round(score)), nil
}

// optionalString returns raw as a string, or "" for any other JSON value.
func optionalString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// decodeNames reads a list of skill names. Objects contribute their "skill"
// field; elements without a usable name are skipped.
func decodeNames(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		entry, ok := decodeSkillEntry(item)
		if !ok || entry.SkillName() == "" {
			continue
		}
		names = append(names, entry.SkillName())
	}
	return names
}

// Skills returns the matching skills, never nil.
func (a *AnalysisResult) Skills() []SkillEntry {
	if a == nil || a.MatchingSkills == nil {
		return []SkillEntry{}
	}
	return a.MatchingSkills
}

// Missing returns the missing skills, never nil.
func (a *AnalysisResult) Missing() []string {
	if a == nil || a.MissingSkills == nil {
		return []string{}
	}
	return a.MissingSkills
}

// ExpectedRecommendation is the recommendation the score threshold implies.
func (a *AnalysisResult) ExpectedRecommendation() string {
	if a.ATSScore >= SelectionThreshold {
		return RecommendationSelected
	}
	return RecommendationNotSelected
}

// RecommendationConsistent reports whether the model's recommendation agrees
// with its score. An empty recommendation is treated as consistent.
func (a *AnalysisResult) RecommendationConsistent() bool {
	return a.Recommendation == "" || a.Recommendation == a.ExpectedRecommendation()
}

// SkillEntry is either a PlainSkill or a RatedSkill.
type SkillEntry interface {
	SkillName() string
	isSkillEntry()
}

// PlainSkill is a matching skill given as a bare string.
type PlainSkill string

func (s PlainSkill) SkillName() string { return string(s) }
func (PlainSkill) isSkillEntry()       {}

// RatedSkill is a matching skill with a 1-5 rating and a comment. The rating
// is kept as delivered: a string rating stays a string.
type RatedSkill struct {
	Skill   string          `json:"skill"`
	Rating  json.RawMessage `json:"rating,omitempty"`
	Comment string          `json:"comment,omitempty"`
}

func (s RatedSkill) SkillName() string { return s.Skill }
func (RatedSkill) isSkillEntry()       {}

// HasRating reports whether a non-null rating was delivered.
func (s RatedSkill) HasRating() bool {
	trimmed := bytes.TrimSpace(s.Rating)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// IntRating returns the rating when it was delivered as a JSON integer.
func (s RatedSkill) IntRating() (int, bool) {
	if !s.HasRating() {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(s.Rating, &n); err != nil {
		return 0, false
	}
	return n, true
}

// RatingText renders the raw rating for display, unquoting strings.
func (s RatedSkill) RatingText() string {
	if !s.HasRating() {
		return ""
	}
	var str string
	if err := json.Unmarshal(s.Rating, &str); err == nil {
		return str
	}
	return string(s.Rating)
}

// SkillList decodes a mixed array of strings and skill objects. Elements of
// any other shape are skipped, and a value that is not an array decodes to an
// empty list.
type SkillList []SkillEntry

func (l *SkillList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		*l = nil
		return nil
	}

	out := make(SkillList, 0, len(items))
	for _, item := range items {
		if entry, ok := decodeSkillEntry(item); ok {
			out = append(out, entry)
		}
	}
	*l = out
	return nil
}

func decodeSkillEntry(item json.RawMessage) (SkillEntry, bool) {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) == 0 {
		return nil, false
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, false
		}
		return PlainSkill(s), true
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, false
		}
		rs := RatedSkill{
			Skill:   optionalString(fields["skill"]),
			Comment: optionalString(fields["comment"]),
		}
		if rating, ok := fields["rating"]; ok {
			rs.Rating = rating
		}
		return rs, true
	}
	return nil, false
}
