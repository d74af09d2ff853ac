package rest

// ErrorResponse is the JSON error shape returned by every handler.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
