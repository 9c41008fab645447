package types

type contextKey string

// Context keys used to carry request metadata into logging handlers.
const (
	ContextKeySessionID     contextKey = "session_id"
	ContextKeyRequestSource contextKey = "request_source"
)
