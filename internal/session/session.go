// Package session keeps per-user recruitment state in memory.
package session

import (
	"slices"
	"time"

	"recruitagent/internal/types"
)

// Session is the state one user builds up across actions. Every setter
// replaces its field wholesale.
type Session struct {
	ID             string                `json:"id"`
	ResumeName     string                `json:"resume_name,omitempty"`
	ResumeText     string                `json:"-"`
	JobDescription string                `json:"-"`
	Analysis       *types.AnalysisResult `json:"analysis,omitempty"`
	ATSScore       *int                  `json:"ats_score,omitempty"`
	ImprovedResume string                `json:"-"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func (s *Session) HasResume() bool         { return s.ResumeText != "" }
func (s *Session) HasJobDescription() bool { return s.JobDescription != "" }
func (s *Session) HasImprovedResume() bool { return s.ImprovedResume != "" }

// SetResume stores newly extracted resume text. Earlier results stay until
// the next successful action replaces them.
func (s *Session) SetResume(name, text string) {
	s.ResumeName = name
	s.ResumeText = text
}

func (s *Session) SetJobDescription(jd string) {
	s.JobDescription = jd
}

// SetAnalysis stores the analysis and its score together.
func (s *Session) SetAnalysis(result *types.AnalysisResult) {
	if result == nil {
		s.Analysis = nil
		s.ATSScore = nil
		return
	}
	s.Analysis = result
	score := result.ATSScore
	s.ATSScore = &score
}

func (s *Session) SetImprovedResume(text string) {
	s.ImprovedResume = text
}

// Summary is the client-facing view of a session.
type Summary struct {
	ID                string                `json:"session_id"`
	ResumeName        string                `json:"resume_name,omitempty"`
	HasResume         bool                  `json:"has_resume"`
	ResumeLength      int                   `json:"resume_length"`
	HasJobDescription bool                  `json:"has_job_description"`
	ATSScore          *int                  `json:"ats_score"`
	Analysis          *types.AnalysisResult `json:"analysis,omitempty"`
	HasImprovedResume bool                  `json:"has_improved_resume"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func (s *Session) Summary() Summary {
	return Summary{
		ID:                s.ID,
		ResumeName:        s.ResumeName,
		HasResume:         s.HasResume(),
		ResumeLength:      len([]rune(s.ResumeText)),
		HasJobDescription: s.HasJobDescription(),
		ATSScore:          s.ATSScore,
		Analysis:          s.Analysis,
		HasImprovedResume: s.HasImprovedResume(),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// clone returns a copy sharing no mutable memory with s.
func (s *Session) clone() *Session {
	c := *s
	if s.ATSScore != nil {
		score := *s.ATSScore
		c.ATSScore = &score
	}
	if s.Analysis != nil {
		a := *s.Analysis
		a.MatchingSkills = slices.Clone(s.Analysis.MatchingSkills)
		a.MissingSkills = slices.Clone(s.Analysis.MissingSkills)
		c.Analysis = &a
	}
	return &c
}
