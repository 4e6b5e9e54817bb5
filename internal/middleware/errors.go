package middleware

import "github.com/gin-gonic/gin"

// APIError is the body of every error response.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func NewAPIError(c *gin.Context, code, message string, details any) gin.H {
	return gin.H{"error": APIError{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFrom(c),
		Details:   details,
	}}
}

// Abort stops the chain with an error body.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, NewAPIError(c, code, message, nil))
}
