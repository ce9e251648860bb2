package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON body of every non-2xx response
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// MessageBody is a plain acknowledgement
type MessageBody struct {
	Message string `json:"message"`
}

// ListBody wraps collection responses
type ListBody struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// Error writes an error body with status
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorBody{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// Abort writes an error body and stops the handler chain
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// List writes a collection with its size
func List(c *gin.Context, data interface{}, total int) {
	c.JSON(http.StatusOK, ListBody{Data: data, Total: total})
}

// Message writes a 200 acknowledgement
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageBody{Message: message})
}

// Unauthorized aborts with 401 UNAUTHORIZED
func Unauthorized(c *gin.Context, message string) {
	Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden aborts with 403 FORBIDDEN
func Forbidden(c *gin.Context, message string) {
	Abort(c, http.StatusForbidden, "FORBIDDEN", message)
}

// BadRequest writes 400 INVALID_REQUEST
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "INVALID_REQUEST", message)
}

// InternalError writes 500 INTERNAL_ERROR without leaking err to the client
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}
