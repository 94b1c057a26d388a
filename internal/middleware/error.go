package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "duofinance/internal/errors"
	"duofinance/internal/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error as
// {"error":{"code","message"}}. Handlers that already wrote a response are
// left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		writeError(c, resolve(c, c.Errors.Last().Err))
	}
}

// resolve maps err to the AppError sent to the client. Internal causes and
// unexpected errors are logged here and never reach the response.
func resolve(c *gin.Context, err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"method", c.Request.Method,
				"path", logger.MaskString(c.Request.URL.Path),
				"request_id", c.GetString(RequestIDKey),
			)
		}
		return appErr
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"method", c.Request.Method,
		"path", logger.MaskString(c.Request.URL.Path),
		"request_id", c.GetString(RequestIDKey),
	)
	return apperrors.ErrInternalServer
}

// ErrorBody is the JSON form of appErr shared by every endpoint.
func ErrorBody(appErr *apperrors.AppError) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	}
}

func writeError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, ErrorBody(appErr))
}
