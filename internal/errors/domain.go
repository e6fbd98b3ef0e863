package errors

import (
	"fmt"
	"net/http"
)

// DocumentParseError reports an uploaded document that could not be read
// or is not a well-formed document of its declared kind.
type DocumentParseError struct {
	*AppError
	Source string
}

// NewDocumentParseError wraps cause for the named source document.
func NewDocumentParseError(source, message string, cause error) *DocumentParseError {
	e := &DocumentParseError{
		AppError: newAppError(ErrorTypeDocument, ErrCodeDocumentParseFailed, message, cause),
		Source:   source,
	}
	if source != "" {
		e.WithContext("source", source)
	}
	return e
}

// APIError reports a failed chat-completion call: transport failure,
// non-2xx status or a reply without completions.
type APIError struct {
	*AppError
	Provider   string
	StatusCode int
}

// NewAPIError builds an APIError. statusCode is 0 for transport failures.
func NewAPIError(provider string, statusCode int, message string, cause error) *APIError {
	e := &APIError{
		AppError:   newAppError(ErrorTypeAI, ErrCodeAIServiceFailed, message, cause),
		Provider:   provider,
		StatusCode: statusCode,
	}
	e.WithContext("provider", provider)
	if statusCode != 0 {
		e.WithContext("status_code", statusCode)
	}
	return e
}

// Retryable reports whether the failure is transient.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case 0:
		return e.Cause != nil
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

const maxReplyExcerpt = 200

// ResponseFormatError reports an analysis reply with no usable JSON object.
type ResponseFormatError struct {
	*AppError
	Reply string
}

// NewResponseFormatError keeps a bounded excerpt of the offending reply.
func NewResponseFormatError(reply, message string, cause error) *ResponseFormatError {
	excerpt := reply
	if len(excerpt) > maxReplyExcerpt {
		excerpt = fmt.Sprintf("%s...(%d bytes)", excerpt[:maxReplyExcerpt], len(reply))
	}
	return &ResponseFormatError{
		AppError: newAppError(ErrorTypeResponse, ErrCodeResponseFormat, message, cause),
		Reply:    excerpt,
	}
}
