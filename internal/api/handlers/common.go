package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/yieldai/bridge_service/internal/domain/errors"
	"github.com/yieldai/bridge_service/pkg/logger"
)

// Error codes produced by the handlers themselves. Service errors carry
// their own codes.
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

const msgInternalError = "Internal server error"

// retryAfterSeconds is advertised on retryable failures
const retryAfterSeconds = "30"

// Response is the envelope of every API answer
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// getRequestID extracts request ID from context
func getRequestID(c *gin.Context) string {
	if reqID, exists := c.Get("request_id"); exists {
		if id, ok := reqID.(string); ok {
			return id
		}
	}
	return ""
}

// respondSuccess sends a success envelope with data
func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// respondError sends a standardized error envelope
func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, Response{
		Success: false,
		Error: &ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondBadRequest sends a bad request error
func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, message, nil)
}

// respondDomainError logs err with the request context and maps it onto
// the status and code of the domain taxonomy. Internal causes are not
// echoed to the caller.
func respondDomainError(c *gin.Context, log *logger.Logger, operation string, err error) {
	status := domainerrors.HTTPStatus(err)
	code := domainerrors.GetErrorCode(err)
	details := domainerrors.GetErrorDetails(err)

	fields := []interface{}{
		"operation", operation,
		"request_id", getRequestID(c),
		"status", status,
		"code", code,
		"error", err.Error(),
	}
	if details != nil {
		fields = append(fields, "details", details)
	}

	message := err.Error()
	switch {
	case status >= http.StatusInternalServerError && code == "UNKNOWN_ERROR":
		log.Error("Request failed", fields...)
		code, message, details = ErrCodeInternalError, msgInternalError, nil
	case code == ErrCodeInternalError:
		log.Error("Request failed", fields...)
		details = nil
	case status >= http.StatusInternalServerError:
		log.Error("Request failed", fields...)
	default:
		log.Warn("Request rejected", fields...)
	}

	if domainerrors.IsRetryable(err) {
		c.Header("Retry-After", retryAfterSeconds)
	}
	respondError(c, status, code, message, details)
}
