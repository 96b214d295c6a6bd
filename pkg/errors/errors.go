package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Configuration errors
	ErrUnknownExtractor     = errors.New("unknown feature extractor type")
	ErrInvalidBatchSize     = errors.New("invalid batch size: must be a positive integer")
	ErrUnsupportedChannels  = errors.New("unsupported channel count")
	ErrMissingConfiguration = errors.New("missing configuration")
	ErrInvalidSampleKind    = errors.New("invalid sample kind")

	// Checkpoint errors
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrCheckpointCorrupt  = errors.New("checkpoint could not be decoded")

	// Data errors
	ErrInsufficientData  = errors.New("insufficient valid data")
	ErrEmptyInput        = errors.New("empty input")
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeCheckpoint    ErrorType = "checkpoint"
	ErrorTypeData          ErrorType = "data"
	ErrorTypeBatch         ErrorType = "batch"
	ErrorTypeTelemetry     ErrorType = "telemetry"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause attaches the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewConfigurationError creates a configuration error. Configuration errors
// are fatal and surface at construction or first use.
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewCheckpointError creates a checkpoint loading error
func NewCheckpointError(code, message string) *AppError {
	return NewAppError(ErrorTypeCheckpoint, code, message)
}

// NewMissingCheckpointError reports that no checkpoint exists for a dataset
// identity. Not retryable; the caller must provide the checkpoint.
func NewMissingCheckpointError(path string) *AppError {
	return WrapError(ErrCheckpointNotFound, ErrorTypeCheckpoint, CodeCheckpointNotFound,
		"no checkpoint file found").WithContext("path", path)
}

// NewInsufficientDataError reports that too few valid rows survived filtering
// for a metric to be computed. Fatal for that single score only.
func NewInsufficientDataError(message string) *AppError {
	return WrapError(ErrInsufficientData, ErrorTypeData, CodeInsufficientData, message)
}

// NewDimensionMismatchError reports incompatible vector dimensions between
// two sets or against a fitted component.
func NewDimensionMismatchError(message string) *AppError {
	return WrapError(ErrDimensionMismatch, ErrorTypeData, CodeDimensionMismatch, message)
}

// NewBatchError wraps a per-batch function failure with the index of the
// failing batch. The cause's message is surfaced in the details so the real
// failure is visible without unwrapping. No partial results accompany it.
func NewBatchError(batchIndex int, cause error) *AppError {
	return WrapError(cause, ErrorTypeBatch, CodeBatchFailed,
		fmt.Sprintf("batch %d failed", batchIndex)).
		WithDetails(cause.Error()).
		WithContext("batch_index", batchIndex)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternalError, message)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsMissingCheckpoint reports whether err stems from a missing checkpoint file.
func IsMissingCheckpoint(err error) bool {
	return errors.Is(err, ErrCheckpointNotFound)
}

// IsInsufficientData reports whether err stems from too few valid feature rows.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

// Error codes for different error scenarios
const (
	// Configuration error codes
	CodeUnknownExtractor    = "UNKNOWN_EXTRACTOR"
	CodeInvalidBatchSize    = "INVALID_BATCH_SIZE"
	CodeUnsupportedChannels = "UNSUPPORTED_CHANNELS"
	CodeMissingField        = "MISSING_FIELD"
	CodeInvalidSampleKind   = "INVALID_SAMPLE_KIND"
	CodeOutOfRange          = "OUT_OF_RANGE"

	// Checkpoint error codes
	CodeCheckpointNotFound = "CHECKPOINT_NOT_FOUND"
	CodeCheckpointCorrupt  = "CHECKPOINT_CORRUPT"

	// Data error codes
	CodeInsufficientData   = "INSUFFICIENT_DATA"
	CodeEmptyInput         = "EMPTY_INPUT"
	CodeDimensionMismatch  = "DIMENSION_MISMATCH"
	CodeInvalidProbability = "INVALID_PROBABILITY"

	// Batch error codes
	CodeBatchFailed = "BATCH_FAILED"

	// Internal error codes
	CodeInternalError = "INTERNAL_ERROR"
)
