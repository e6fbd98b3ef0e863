package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	agentErrors "recruitagent/internal/errors"
	"recruitagent/internal/extract"
	"recruitagent/internal/observability"
	"recruitagent/internal/recruiter"
	"recruitagent/internal/session"
	"recruitagent/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const improvedResumeFilename = "improved_resume.txt"

// startSpan opens a span for a session route and tags it with the session ID.
func (s *Server) startSpan(r *http.Request, name string) (context.Context, trace.Span) {
	ctx, span := s.Observability.Tracer("recruitagent.api").Start(r.Context(), name)
	span.SetAttributes(attribute.String("session.id", r.PathValue("id")))
	return ctx, span
}

// fail records err on the span and writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	if appErr, ok := agentErrors.AsAppError(err); ok {
		span.SetAttributes(attribute.String("error.type", string(appErr.Type)))
	}
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "status", status)
	}
	writeAppError(w, err, status)
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.Create()
	s.Logger.Info("Session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, SessionCreatedResponse{SessionID: sess.ID})
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeAppError(w, err, statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.PathValue("id")); err != nil {
		writeAppError(w, err, statusForError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadResumeHandler extracts the multipart "file" field into the session.
func (s *Server) uploadResumeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.upload_resume")
	defer span.End()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, span, formFileError(err))
		return
	}
	defer func() { _ = file.Close() }()

	var doc *extract.Document
	id := r.PathValue("id")
	_, err = s.Sessions.Update(id, func(sess *session.Session) error {
		var extractErr error
		doc, extractErr = s.Extractor.Extract(ctx, header.Filename, header.Header.Get("Content-Type"), file)
		if extractErr != nil {
			return extractErr
		}
		sess.SetResume(doc.Name, doc.Text)
		return nil
	})

	metrics := s.Observability.GetMetrics()
	if err != nil {
		if !agentErrors.IsType(err, agentErrors.ErrorTypeNotFound) {
			metrics.RecordBusinessMetric(ctx, observability.MetricDocumentExtracted, false)
		}
		s.fail(w, span, err)
		return
	}

	characters := len([]rune(doc.Text))
	metrics.RecordBusinessMetric(ctx, observability.MetricDocumentExtracted, true,
		attribute.String("document.kind", string(doc.Kind)))
	span.SetAttributes(
		attribute.String("document.kind", string(doc.Kind)),
		attribute.Int("document.characters", characters),
	)
	s.Logger.Info("Resume uploaded", "session_id", id, "kind", doc.Kind, "characters", characters)

	writeJSON(w, http.StatusOK, ResumeUploadResponse{
		SessionID:  id,
		ResumeName: doc.Name,
		Kind:       doc.Kind,
		Characters: characters,
		Message:    fmt.Sprintf("Resume uploaded successfully! Extracted %d characters.", characters),
	})
}

func (s *Server) jobDescriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req JobDescriptionRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeAppError(w, err, statusForError(err))
		return
	}
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	if err := types.Validate(req); err != nil {
		writeErrorResponse(w, "Missing job description", "job_description field is required", http.StatusBadRequest)
		return
	}

	sess, err := s.Sessions.Update(r.PathValue("id"), func(sess *session.Session) error {
		sess.SetJobDescription(req.JobDescription)
		return nil
	})
	if err != nil {
		writeAppError(w, err, statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.analyze")
	defer span.End()

	var result *types.AnalysisResult
	_, err := s.Sessions.Update(r.PathValue("id"), func(sess *session.Session) error {
		var err error
		result, err = s.Recruiter.Analyze(ctx, sess)
		return err
	})
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(
		attribute.Int("ats.score", result.ATSScore),
		attribute.String("recommendation", result.Recommendation),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) questionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.questions")
	defer span.End()

	var req QuestionsRequest
	if err := parseOptionalJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}
	opts, err := req.options()
	if err != nil {
		s.fail(w, span, err)
		return
	}

	var output *types.QuestionsOutput
	_, err = s.Sessions.Update(r.PathValue("id"), func(sess *session.Session) error {
		var err error
		output, err = s.Recruiter.GenerateQuestions(ctx, sess, opts)
		return err
	})
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// options converts the request into question options; zero fields take the
// defaults later.
func (req QuestionsRequest) options() (types.QuestionOptions, error) {
	var opts types.QuestionOptions
	questionTypes, err := types.ParseQuestionTypes(req.Types)
	if err != nil {
		return opts, agentErrors.NewValidationError(agentErrors.ErrCodeInvalidRequest, err.Error(), err)
	}
	opts.Types = questionTypes
	if req.Difficulty != "" {
		difficulty, err := types.ParseDifficulty(req.Difficulty)
		if err != nil {
			return opts, agentErrors.NewValidationError(agentErrors.ErrCodeInvalidRequest, err.Error(), err)
		}
		opts.Difficulty = difficulty
	}
	opts.Count = req.Count
	return opts, nil
}

func (s *Server) improveHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.improve")
	defer span.End()

	var output *types.ImproveOutput
	_, err := s.Sessions.Update(r.PathValue("id"), func(sess *session.Session) error {
		var err error
		output, err = s.Recruiter.Improve(ctx, sess)
		return err
	})
	if err != nil {
		s.fail(w, span, err)
		return
	}

	span.SetAttributes(attribute.Int("response.improved_length", len(output.ImprovedResume)))
	writeJSON(w, http.StatusOK, output)
}

func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "api.ask")
	defer span.End()

	var req AskRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.fail(w, span, err)
		return
	}

	var output *types.AnswerOutput
	_, err := s.Sessions.Update(r.PathValue("id"), func(sess *session.Session) error {
		var err error
		output, err = s.Recruiter.Answer(ctx, sess, req.Question)
		return err
	})
	if err != nil {
		s.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// improvedResumeHandler serves the improved resume as a text download.
func (s *Server) improvedResumeHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeAppError(w, err, statusForError(err))
		return
	}
	text, err := recruiter.ImprovedResume(sess)
	if err != nil {
		writeAppError(w, err, statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", improvedResumeFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(text)); err != nil {
		s.Logger.LogError(err, "Failed to write improved resume")
	}
}
