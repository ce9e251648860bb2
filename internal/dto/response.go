package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// MessageResponse is a body carrying only a message
type MessageResponse struct {
	Message string `json:"message"`
}

// ListResponse wraps a list result
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}
