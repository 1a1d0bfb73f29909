package contract

// Default messages returned in response bodies.
const (
	MessageCreated   = "Created"
	MessageNoContent = "No content"
)

// Default error messages returned in error bodies.
const (
	ErrMessageUnexpected       = "An unknown error occurred, trying again might help."
	ErrMessageMethodNotAllowed = "Method not allowed."
	ErrMessageNotFound         = "Not found."
	ErrMessageInvalidMediaType = "Invalid media type."
	ErrMessageInvalidBody      = "Invalid request body."
	ErrMessageInvalidQuery     = "Invalid query parameters."
	ErrMessageInvalidHeaders   = "Invalid request headers."
)
