package domain

import "fmt"

// Error codes used across the compliance mapping core
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeFrameworkLoad     = "FRAMEWORK_LOAD_ERROR"
	ErrCodeUnknownFramework  = "UNKNOWN_FRAMEWORK"
	ErrCodeIssuePersist      = "ISSUE_PERSIST_ERROR"
	ErrCodeCounterUpdate     = "COUNTER_UPDATE_ERROR"
	ErrCodeConfigError       = "CONFIG_ERROR"
	ErrCodeOutputError       = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// DomainError represents a domain-level error with a stable code
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates a DomainError with an arbitrary code
func NewDomainError(code, message string, cause error) error {
	return DomainError{Code: code, Message: message, Cause: cause}
}

// NewInvalidInputError creates an INVALID_INPUT error
func NewInvalidInputError(message string, cause error) error {
	return DomainError{Code: ErrCodeInvalidInput, Message: message, Cause: cause}
}

// NewValidationError creates an INVALID_INPUT error without a cause
func NewValidationError(message string) error {
	return DomainError{Code: ErrCodeInvalidInput, Message: message}
}

// NewFileNotFoundError creates a FILE_NOT_FOUND error for a path
func NewFileNotFoundError(path string, cause error) error {
	return DomainError{Code: ErrCodeFileNotFound, Message: fmt.Sprintf("file not found: %s", path), Cause: cause}
}

// NewFrameworkLoadError creates a FRAMEWORK_LOAD_ERROR.
// This is the only error the mapping pass surfaces to its caller.
func NewFrameworkLoadError(message string, cause error) error {
	return DomainError{Code: ErrCodeFrameworkLoad, Message: message, Cause: cause}
}

// NewUnknownFrameworkError creates an UNKNOWN_FRAMEWORK error for a code
// with no registered rule mapping
func NewUnknownFrameworkError(code string) error {
	return DomainError{Code: ErrCodeUnknownFramework, Message: fmt.Sprintf("no rule mapping registered for framework: %s", code)}
}

// NewIssuePersistError creates an ISSUE_PERSIST_ERROR
func NewIssuePersistError(message string, cause error) error {
	return DomainError{Code: ErrCodeIssuePersist, Message: message, Cause: cause}
}

// NewCounterUpdateError creates a COUNTER_UPDATE_ERROR
func NewCounterUpdateError(message string, cause error) error {
	return DomainError{Code: ErrCodeCounterUpdate, Message: message, Cause: cause}
}

// NewConfigError creates a CONFIG_ERROR
func NewConfigError(message string, cause error) error {
	return DomainError{Code: ErrCodeConfigError, Message: message, Cause: cause}
}

// NewOutputError creates an OUTPUT_ERROR
func NewOutputError(message string, cause error) error {
	return DomainError{Code: ErrCodeOutputError, Message: message, Cause: cause}
}

// NewUnsupportedFormatError creates an UNSUPPORTED_FORMAT error
func NewUnsupportedFormatError(format string) error {
	return DomainError{Code: ErrCodeUnsupportedFormat, Message: fmt.Sprintf("unsupported format: %s", format)}
}

// IsErrorCode reports whether err is a DomainError carrying the given code
func IsErrorCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(DomainError); ok {
		return de.Code == code
	}
	return false
}
