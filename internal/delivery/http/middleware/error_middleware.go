package middleware

import (
	"errors"
	"net/http"

	"profile-mapper-backend/internal/delivery/http/response"
	"profile-mapper-backend/pkg/apperror"
	"profile-mapper-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError && appErr.Err != nil {
				logger.Log.Error("Request failed", "path", c.FullPath(), "status", appErr.Code, "error", appErr.Err)
			}
			switch {
			case len(appErr.Fields) > 0:
				response.Error(c, appErr.Code, appErr.Message, appErr.Fields)
			case appErr.Code == http.StatusServiceUnavailable:
				response.Loading(c, appErr.Code, appErr.Message)
			default:
				response.Error(c, appErr.Code, appErr.Message, nil)
			}
			return
		}

		// Never expose internal error details to clients.
		logger.Log.Error("Internal Server Error", "path", c.FullPath(), "error", err)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
