package values

type contextKey string

const (
	Error          = "error"
	Success        = "success"
	Created        = "created"
	BadRequestBody = "bad-request-body"
	Unprocessable  = "unprocessable"
	NotAllowed     = "not-allowed"
	Conflict       = "conflict"
	NotFound       = "not-found"
	NotAuthorised  = "not-authorised"
	TokenExpired   = "token-expired"
	Unavailable    = "unavailable"
	TooManyRequest = "too-many-requests"

	HeaderRequestID     = "X-Request-ID"
	HeaderRequestSource = "X-Request-Source"

	ContextTracingKey contextKey = "tracing-context"
	ContextViewerKey  contextKey = "viewer-id"
)
