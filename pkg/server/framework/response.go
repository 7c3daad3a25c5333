package framework

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Respond converts a Go value to JSON and sends it to the client
func Respond(c *gin.Context, data any, statusCode int) {
	if statusCode == http.StatusNoContent || data == nil {
		c.Status(statusCode)
		return
	}
	c.JSON(statusCode, data)
}

// RespondError sends an error response back to the client. A SafeError carries its
// own status code and field errors; anything else is sent back verbatim under the
// given status.
func RespondError(c *gin.Context, err error, statusCode int) {
	var safeErr *SafeError
	if errors.As(errors.Cause(err), &safeErr) {
		c.AbortWithStatusJSON(safeErr.StatusCode, ErrorResponse{
			Error:  safeErr.Err.Error(),
			Fields: safeErr.Fields,
		})
		return
	}
	c.AbortWithStatusJSON(statusCode, ErrorResponse{Error: err.Error()})
}

// LoggingRespondError logs and responds with an error
func LoggingRespondError(c *gin.Context, err error, statusCode int) {
	logrus.WithError(err).Error("request failed")
	RespondError(c, err, statusCode)
}

// LoggingRespondErrMsg logs and responds with an error from a message
func LoggingRespondErrMsg(c *gin.Context, errMsg string, statusCode int) {
	LoggingRespondError(c, errors.New(errMsg), statusCode)
}

// LoggingRespondErrWithMsg logs and responds with an error and message
func LoggingRespondErrWithMsg(c *gin.Context, err error, errMsg string, statusCode int) {
	LoggingRespondError(c, errors.Wrap(err, errMsg), statusCode)
}
