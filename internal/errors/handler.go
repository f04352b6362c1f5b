package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"mentedigital/internal/exporter"
	"mentedigital/internal/infrastructure"
	"mentedigital/internal/survey"
)

// Common error types following RFC 7807
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeTimeout          = "/errors/timeout"
)

// Survey error types
const (
	TypeFieldNotFound    = "/errors/survey/field-not-found"
	TypeNoValidData      = "/errors/survey/no-valid-data"
	TypeInsufficientData = "/errors/survey/insufficient-data"
	TypeNoData           = "/errors/survey/no-data"
)

// ProblemMapping turns errors matching Target (errors.Is) into a problem
type ProblemMapping struct {
	Target error
	Status int
	Type   string
	Title  string
}

// DefaultMappings covers the survey and exporter sentinels
func DefaultMappings() []ProblemMapping {
	return []ProblemMapping{
		{survey.ErrFieldNotFound, http.StatusNotFound, TypeFieldNotFound, "Field Not Found"},
		{survey.ErrNoValidData, http.StatusUnprocessableEntity, TypeNoValidData, "No Valid Data"},
		{survey.ErrInsufficientData, http.StatusUnprocessableEntity, TypeInsufficientData, "Insufficient Data"},
		{survey.ErrNotBinary, http.StatusUnprocessableEntity, TypeInsufficientData, "Insufficient Data"},
		{exporter.ErrUnsupportedFormat, http.StatusBadRequest, TypeValidation, "Validation Failed"},
	}
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
	mappings     []ProblemMapping
}

// NewErrorHandler creates a new error handler. Extra mappings are checked
// before the defaults.
func NewErrorHandler(logger *slog.Logger, includeStack bool, extra ...ProblemMapping) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
		mappings:     append(extra, DefaultMappings()...),
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		infrastructure.RecordError(r.Context(), err)
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if reqID != "" {
		problem.WithExtension("trace_id", reqID)
	}
	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}
	h.write(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorToProblem(apiErr, r)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeValidation,
			"Validation Failed",
			"One or more parameters are invalid",
			r.URL.Path,
		).WithExtension("errors", FromValidator(verrs))
	}

	for _, m := range h.mappings {
		if errors.Is(err, m.Target) {
			return NewProblemDetails(m.Status, m.Type, m.Title, err.Error(), r.URL.Path)
		}
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

// FromValidator flattens validator errors into field messages
func FromValidator(verrs validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}
		out = append(out, ValidationError{Field: fe.Field(), Message: msg})
	}
	return out
}

func apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST":
		problemType = TypeValidation
	case "NOT_FOUND":
		problemType = TypeNotFound
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	case "SERVICE_UNAVAILABLE":
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		if problemType == TypeValidation {
			problem.WithExtension("errors", apiErr.Details)
		} else {
			problem.WithExtension("details", apiErr.Details)
		}
	}
	return problem
}

// HandlePanic logs a recovered panic and answers with a 500 problem
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}
	h.write(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	h.write(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	h.write(w, r, problem)
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, problem *ProblemDetails) {
	if err := problem.Write(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write problem response", slog.String("error", err.Error()))
	}
}

func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
