package handler

// Context keys set by the auth middleware for every authenticated request.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)
