package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON view is wrapped in.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Error     any    `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// LoadingState is the payload of the loading view shown while profiles or
// the auth gate have not settled.
type LoadingState struct {
	Loading bool `json:"loading"`
}

func Success(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Success: true, Message: message, Data: data, RequestID: requestID(c)})
}

func Error(c *gin.Context, code int, message string, detail any) {
	c.JSON(code, Response{Message: message, Error: detail, RequestID: requestID(c)})
}

// Loading renders the loading view. Pending checks answer 202, a catalog that
// has not finished its initial load answers 503.
func Loading(c *gin.Context, code int, message string) {
	state := LoadingState{Loading: true}
	if code < http.StatusBadRequest {
		Success(c, code, message, state)
		return
	}
	Error(c, code, message, state)
}

// NotFound renders the not-found view for an unknown path.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Page not found", gin.H{"path": c.Request.URL.Path})
}

func requestID(c *gin.Context) string {
	return c.GetString("RequestID")
}
