package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler turns errors attached via c.Error into a JSON response,
// mapping domain errors to their HTTP status.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("request error")
		}

		last := c.Errors.Last()
		status := http.StatusInternalServerError
		if mapped, ok := last.Err.(interface{ StatusCode() int }); ok {
			status = mapped.StatusCode()
		}

		c.JSON(status, ErrorResponse{
			Code:    status,
			Message: last.Error(),
			TraceID: requestID,
		})
	}
}
