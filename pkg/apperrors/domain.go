package apperrors

var (
	// Auth flow — statuses match the wire contract: invalid nonce and dead
	// keys are 403, signature failures and missing credentials are 401.
	ErrInvalidNonce      = Forbidden("invalid or expired nonce")
	ErrSignatureMismatch = Unauthorized("signature/address mismatch")
	ErrMissingAuthHeader = Unauthorized("missing authorization header")
	ErrInvalidAgentKey   = Forbidden("invalid or revoked API key")
	ErrTooManyRequests   = RateLimited("too many requests")

	ErrAgentNotFound = NotFound("agent profile not found")
	ErrPostNotFound  = NotFound("post not found")
	ErrAlreadyLiked  = AlreadyExists("already liked")
)
