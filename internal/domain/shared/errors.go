package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError carrying the same code,
// so wrapped errors with a detailed message still match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrTimeout      = NewDomainError("TIMEOUT", "Calculation did not finish in time")
	ErrCanceled     = NewDomainError("CANCELED", "Calculation was canceled by the caller")
)
