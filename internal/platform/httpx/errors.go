package httpx

// Error codes carried by the JSON error envelope.
const (
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeAccessDenied           = "ACCESS_DENIED"
	CodeAccountDeactivated     = "ACCOUNT_DEACTIVATED"
	CodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeValidation             = "VALIDATION_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeInternal               = "INTERNAL_ERROR"
)
