package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// newAppError is an unexported helper to create AppError instances
func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewAIError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeAI, code, message, cause)
}

func NewStorageError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeStorage, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Common error codes
const (
	ErrCodeNotFound        = "ENTITY_NOT_FOUND"
	ErrCodeNotParsed       = "ENTITY_NOT_PARSED"
	ErrCodeKeywordsMissing = "KEYWORD_EXTRACTION_MISSING"
	ErrCodeAIServiceFailed = "AI_SERVICE_FAILED"
	ErrCodeEmbeddingFailed = "EMBEDDING_FAILED"
	ErrCodeSchemaInvalid   = "SCHEMA_VALIDATION_FAILED"
	ErrCodeStorageFailed   = "STORAGE_FAILED"
	ErrCodeLockUnavailable = "IMPROVEMENT_LOCKED"
	ErrCodeFileNotFound    = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat   = "INVALID_FORMAT"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeMissingAPIKey   = "MISSING_API_KEY"
	ErrCodeInvalidConfig   = "INVALID_CONFIG"
)

// NewNotFoundError reports a missing source document. Kind is "resume" or "job".
func NewNotFoundError(kind, id string) *AppError {
	return NewValidationError(ErrCodeNotFound,
		fmt.Sprintf("%s with id %s not found", kind, id), nil).
		WithContext("kind", kind).
		WithContext("id", id)
}

// NewNotParsedError reports a document whose structured extraction has not
// completed. The reason carries the stored processing error or current status.
func NewNotParsedError(kind, id, reason string) *AppError {
	return NewValidationError(ErrCodeNotParsed,
		fmt.Sprintf("%s with id %s has not been parsed: %s", kind, id, reason), nil).
		WithContext("kind", kind).
		WithContext("id", id).
		WithContext("reason", reason)
}

// NewKeywordsMissingError reports absent or unusable extracted keywords.
func NewKeywordsMissingError(kind, id string) *AppError {
	return NewValidationError(ErrCodeKeywordsMissing,
		fmt.Sprintf("keyword extraction missing for %s with id %s", kind, id), nil).
		WithContext("kind", kind).
		WithContext("id", id)
}

// AsAppError unwraps err into target. Callers import this package under
// the stdlib name, so the stdlib errors.As is re-exposed here.
func AsAppError(err error, target **AppError) bool {
	return errors.As(err, target)
}

// hasCode reports whether err wraps an AppError with the given code.
func hasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool        { return hasCode(err, ErrCodeNotFound) }
func IsNotParsed(err error) bool       { return hasCode(err, ErrCodeNotParsed) }
func IsKeywordsMissing(err error) bool { return hasCode(err, ErrCodeKeywordsMissing) }

// IsValidation reports whether err belongs to the validation taxonomy.
// Validation errors are never retried and surface to the caller as-is.
func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ErrorTypeValidation
}

// IsAI reports whether err came from the AI provider layer.
func IsAI(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ErrorTypeAI
}

// Logger wraps slog with application-specific methods
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new structured logger
func NewLogger(level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)

	return &Logger{logger: logger}
}

// LogError logs an application error with appropriate level and context
func (l *Logger) LogError(err error, message string, args ...any) {
	if appErr, ok := err.(*AppError); ok {
		logArgs := []any{
			"error_type", appErr.Type,
			"error_code", appErr.Code,
			"error_message", appErr.Message,
		}

		// Add context if available
		for key, value := range appErr.Context {
			logArgs = append(logArgs, key, value)
		}

		// Add additional args
		logArgs = append(logArgs, args...)

		l.logger.Error(message, logArgs...)
	} else {
		// Regular error
		logArgs := append([]any{"error", err.Error()}, args...)
		l.logger.Error(message, logArgs...)
	}
}

func (l *Logger) Info(message string, args ...any) {
	l.logger.Info(message, args...)
}

func (l *Logger) Debug(message string, args ...any) {
	l.logger.Debug(message, args...)
}

func (l *Logger) Warn(message string, args ...any) {
	l.logger.Warn(message, args...)
}

// New creates a new logger instance
func New(level string) (*Logger, error) {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	return NewLogger(slogLevel), nil
}
