package handlers

// Error codes returned in ErrorResponse.Code. Clients branch on the code,
// never on the message.
const (
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeUnavailable      = "unavailable"
	ErrCodeInternal         = "internal_error"
)
