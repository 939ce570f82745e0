// Package errors provides structured error handling for searchhub.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Registry errors
//   - 3XX: Source / network errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryRegistry indicates source registry errors.
	CategoryRegistry Category = "REGISTRY"
	// CategorySource indicates source adapter and network errors.
	CategorySource Category = "SOURCE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Registry errors (200-299)
	ErrCodeRegistryNotFound = "ERR_201_REGISTRY_NOT_FOUND"
	ErrCodeRegistryInvalid  = "ERR_202_REGISTRY_INVALID"
	ErrCodeSourceUnknown    = "ERR_203_SOURCE_UNKNOWN"
	ErrCodeSourceDuplicate  = "ERR_204_SOURCE_DUPLICATE"

	// Source / network errors (300-399)
	ErrCodeSourceTimeout     = "ERR_301_SOURCE_TIMEOUT"
	ErrCodeSourceUnavailable = "ERR_302_SOURCE_UNAVAILABLE"
	ErrCodeAdapterFailed     = "ERR_303_ADAPTER_FAILED"
	ErrCodeAdapterPanic      = "ERR_304_ADAPTER_PANIC"

	// Validation errors (400-499)
	ErrCodeInvalidQuery  = "ERR_401_INVALID_QUERY"
	ErrCodeInvalidLimit  = "ERR_402_INVALID_LIMIT"
	ErrCodeInvalidFilter = "ERR_403_INVALID_FILTER"
	ErrCodeMalformedRow  = "ERR_404_MALFORMED_RESULT"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeDispatchFailed = "ERR_502_DISPATCH_FAILED"
	ErrCodeHistoryStore   = "ERR_503_HISTORY_STORE"
	ErrCodeSuggestFailed  = "ERR_504_SUGGEST_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion starts at offset 4 (e.g., "201" in "ERR_201_REGISTRY_NOT_FOUND").
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryRegistry
	case '3':
		return CategorySource
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeRegistryInvalid, ErrCodeDispatchFailed:
		return SeverityFatal
	}

	// Per-source failures are recovered locally, so they only degrade.
	if isRetryableCode(code) || code == ErrCodeAdapterFailed || code == ErrCodeMalformedRow {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeSourceTimeout, ErrCodeSourceUnavailable:
		return true
	}
	return false
}
