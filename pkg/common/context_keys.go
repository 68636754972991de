package common

type contextKey string

const (
	TraceIdKey          contextKey = "trace_id"
	ClientKeyContextKey contextKey = "client_key"
	EventContextKey     contextKey = "event_id"
)
