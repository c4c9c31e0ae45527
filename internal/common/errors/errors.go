// Package errors provides the stable error kinds surfaced by template builds.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is a stable error-kind tag that API consumers can branch on.
type ErrorCode string

const (
	ErrCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrCodeUnknownComponentKind  ErrorCode = "UNKNOWN_COMPONENT_KIND"
	ErrCodeUnsupportedModuleType ErrorCode = "UNSUPPORTED_MODULE_TYPE"
	ErrCodeNameCollision         ErrorCode = "NAME_COLLISION"
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"

	ErrCodeBuildInProgress    ErrorCode = "BUILD_IN_PROGRESS"
	ErrCodeDuplicateBuild     ErrorCode = "DUPLICATE_BUILD"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeTerminalState      ErrorCode = "TERMINAL_STATE"
	ErrCodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
	ErrCodeFilesystemFailure  ErrorCode = "FILESYSTEM_FAILURE"

	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	ErrCodeStaleBuild       ErrorCode = "STALE_BUILD"
	ErrCodeCancelled        ErrorCode = "CANCELLED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so the sentinels
// below work with errors.Is regardless of message or details.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound              = &StandardError{Code: ErrCodeNotFound}
	ErrUnknownComponentKind  = &StandardError{Code: ErrCodeUnknownComponentKind}
	ErrUnsupportedModuleType = &StandardError{Code: ErrCodeUnsupportedModuleType}
	ErrNameCollision         = &StandardError{Code: ErrCodeNameCollision}
	ErrValidationFailed      = &StandardError{Code: ErrCodeValidationFailed}
	ErrBuildInProgress       = &StandardError{Code: ErrCodeBuildInProgress}
	ErrDuplicateBuild        = &StandardError{Code: ErrCodeDuplicateBuild}
	ErrConflict              = &StandardError{Code: ErrCodeConflict}
	ErrTerminalState         = &StandardError{Code: ErrCodeTerminalState}
	ErrPersistenceFailure    = &StandardError{Code: ErrCodePersistenceFailure}
	ErrFilesystemFailure     = &StandardError{Code: ErrCodeFilesystemFailure}
	ErrCancelled             = &StandardError{Code: ErrCodeCancelled}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewNotFoundError reports a missing template, schema or module.
func NewNotFoundError(resource, id string) *StandardError {
	return newError(ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		fmt.Sprintf("id: %s", id),
		false, nil,
	).WithMetadata("resource", resource).WithMetadata("id", id)
}

// NewUnknownComponentKindError reports a component type outside schema|module|page.
func NewUnknownComponentKindError(componentType string) *StandardError {
	return newError(ErrCodeUnknownComponentKind,
		"unknown component type",
		fmt.Sprintf("componentType: %s", componentType),
		false, nil,
	)
}

// NewUnsupportedModuleTypeError reports a module type that has no generator yet.
func NewUnsupportedModuleTypeError(moduleID, moduleType string) *StandardError {
	return newError(ErrCodeUnsupportedModuleType,
		"module type not yet supported",
		fmt.Sprintf("moduleId: %s, moduleType: %s", moduleID, moduleType),
		false, nil,
	)
}

// NewNameCollisionError reports two components deriving the same name.
func NewNameCollisionError(name, firstComponentID, secondComponentID string) *StandardError {
	return newError(ErrCodeNameCollision,
		"component name collision",
		fmt.Sprintf("name: %s, components: %s, %s", name, firstComponentID, secondComponentID),
		false, nil,
	)
}

// NewValidationFailedError creates a non-retryable input validation error.
func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "invalid build options", details, false, nil)
}

// NewBuildInProgressError reports a held per-template build lock.
func NewBuildInProgressError(templateID string) *StandardError {
	return newError(ErrCodeBuildInProgress,
		"another build of this template is writing artifacts",
		fmt.Sprintf("templateId: %s", templateID),
		true, nil,
	)
}

// NewDuplicateBuildError reports a unique-constraint violation on the build id.
func NewDuplicateBuildError(buildID string, err error) *StandardError {
	return newError(ErrCodeDuplicateBuild,
		"build record already exists",
		fmt.Sprintf("buildId: %s", buildID),
		true, err,
	)
}

// NewConflictError reports an optimistic version mismatch on a build record.
func NewConflictError(buildID string, expectedVersion int) *StandardError {
	return newError(ErrCodeConflict,
		"build record was modified concurrently",
		fmt.Sprintf("buildId: %s, expectedVersion: %d", buildID, expectedVersion),
		false, nil,
	)
}

// NewTerminalStateError reports an attempt to move a finished build.
func NewTerminalStateError(buildID, status string) *StandardError {
	return newError(ErrCodeTerminalState,
		"build record is already terminal",
		fmt.Sprintf("buildId: %s, status: %s", buildID, status),
		false, nil,
	)
}

// NewPersistenceFailureError creates a retryable build-record storage error.
func NewPersistenceFailureError(operation string, err error) *StandardError {
	return newError(ErrCodePersistenceFailure,
		"build record persistence failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err),
		true, err,
	)
}

// NewFilesystemFailureError creates a retryable artifact write error.
func NewFilesystemFailureError(path string, err error) *StandardError {
	return newError(ErrCodeFilesystemFailure,
		"artifact write failed",
		fmt.Sprintf("path: %s, error: %v", path, err),
		true, err,
	)
}

// NewGenerationFailedError wraps any other generation error.
func NewGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeGenerationFailed, "component generation failed", err.Error(), false, err)
}

// NewCancelledError wraps a context cancellation or deadline.
func NewCancelledError(err error) *StandardError {
	return newError(ErrCodeCancelled, "build cancelled", err.Error(), true, err)
}

// NewStaleBuildError is recorded on builds reconciled out of the building state.
func NewStaleBuildError(age time.Duration) *StandardError {
	return newError(ErrCodeStaleBuild,
		"build never reached a terminal state",
		fmt.Sprintf("age: %s", age.Round(time.Second)),
		false, nil,
	)
}

// FromKind rebuilds a StandardError from a reported error kind, as found in
// a failed BuildResult.
func FromKind(code ErrorCode, details string) *StandardError {
	if code == "" {
		code = ErrCodeGenerationFailed
	}
	return newError(code, "build failed", details, IsRetryableErrorCode(code), nil)
}

// ==========================
// 4. Classification
// ==========================

// KindOf returns the stable code carried by err. Context errors map to
// CANCELLED and anything unclassified to GENERATION_FAILED.
func KindOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return ErrCodeCancelled
	}
	return ErrCodeGenerationFailed
}

// Normalize converts any error into a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if KindOf(err) == ErrCodeCancelled {
		return NewCancelledError(err)
	}
	return NewGenerationFailedError(err)
}

// HTTPStatus maps an error code to the response status used by the API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeValidationFailed, ErrCodeNameCollision:
		return http.StatusUnprocessableEntity
	case ErrCodeBuildInProgress, ErrCodeDuplicateBuild, ErrCodeConflict, ErrCodeTerminalState:
		return http.StatusConflict
	case ErrCodeCancelled:
		return http.StatusGatewayTimeout
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended retry count for a job failing with code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailure,
		ErrCodeFilesystemFailure,
		ErrCodeDuplicateBuild:
		return 3

	case ErrCodeBuildInProgress,
		ErrCodeCancelled:
		return 2

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeNotFound, strings.Contains(codeStr, "COMPONENT"), strings.Contains(codeStr, "MODULE"), code == ErrCodeNameCollision:
		return "TEMPLATE"
	case code == ErrCodePersistenceFailure, code == ErrCodeDuplicateBuild:
		return "STORAGE"
	case code == ErrCodeFilesystemFailure:
		return "FILESYSTEM"
	case code == ErrCodeConflict, code == ErrCodeBuildInProgress, code == ErrCodeTerminalState, code == ErrCodeStaleBuild:
		return "CONCURRENCY"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"errorCategory": GetErrorCategory(stdErr.Code),
			"timestamp":     stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}
