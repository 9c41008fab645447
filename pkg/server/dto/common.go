package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Error codes returned in ErrorResponse.Error.
const (
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeCancelled      = "cancelled"
	ErrCodeUnavailable    = "unavailable"
	ErrCodeInternal       = "internal_error"
)
