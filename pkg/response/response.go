package response

import (
	"net/http"
	"strconv"

	appErrors "github.com/farmiq/farmiq/pkg/errors"
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON payload written for every failed request.
type ErrorBody struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	RetryAfter *int   `json:"retry_after,omitempty"`
}

// JSON writes payload as-is. FarmIQ clients consume bare resources rather than an envelope.
func JSON(c *gin.Context, statusCode int, payload interface{}) {
	c.JSON(statusCode, payload)
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := ErrorBody{
		Message: appErr.Message,
		Code:    appErr.Code,
	}
	if appErr.HasRetryAfter {
		retryAfter := appErr.RetryAfter
		body.RetryAfter = &retryAfter
		c.Header("Retry-After", strconv.Itoa(retryAfter))
	}

	c.JSON(status, body)
}

// Abort writes the error response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
