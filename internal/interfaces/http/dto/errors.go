package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeNotFound is used for unknown routes
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeForbidden is used when the client address is not allowed
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeMethodNotAllowed is used when the route exists for other methods
	ErrCodeMethodNotAllowed = "ERR_METHOD_NOT_ALLOWED"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for request validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Valuation error codes
const (
	// ErrCodeInvalidAssumption is used when an assumption breaks a model constraint
	ErrCodeInvalidAssumption = "ERR_INVALID_ASSUMPTION"
	// ErrCodeNotConverged is used when no growth rate reproduces the market price
	ErrCodeNotConverged = "ERR_NOT_CONVERGED"
	// ErrCodeUndefinedValuation is used when the model has no finite value
	ErrCodeUndefinedValuation = "ERR_UNDEFINED_VALUATION"
	// ErrCodeTimeout is used when a calculation exceeds its time budget
	ErrCodeTimeout = "ERR_TIMEOUT"
	// ErrCodeCanceled is used when the client went away mid-calculation
	ErrCodeCanceled = "ERR_CANCELED"
	// ErrCodeBatchTooLarge is used when a batch exceeds the item limit
	ErrCodeBatchTooLarge = "ERR_BATCH_TOO_LARGE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// StatusClientClosedRequest is the non-standard status logged when the
// client disconnects before the response is written.
const StatusClientClosedRequest = 499

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeNotFound: http.StatusNotFound,

	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Valuation errors
	ErrCodeInvalidAssumption:  http.StatusBadRequest,
	ErrCodeNotConverged:       http.StatusUnprocessableEntity,
	ErrCodeUndefinedValuation: http.StatusInternalServerError,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeCanceled:           StatusClientClosedRequest,
	ErrCodeBatchTooLarge:      http.StatusBadRequest,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"INVALID_ASSUMPTION":  ErrCodeInvalidAssumption,
	"NOT_CONVERGED":       ErrCodeNotConverged,
	"UNDEFINED_VALUATION": ErrCodeUndefinedValuation,
	"TIMEOUT":             ErrCodeTimeout,
	"CANCELED":            ErrCodeCanceled,
	"BATCH_TOO_LARGE":     ErrCodeBatchTooLarge,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
