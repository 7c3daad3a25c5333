package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/janskor-cz/identuslabel-sub001/pkg/server/framework"
)

// Errors handles errors coming out of the call stack. Handlers normally respond
// with their own error payloads; anything still attached to the gin context at this
// point is logged and converted into a generic error response.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		ginErrors := c.Errors.ByType(gin.ErrorTypeAny)
		if len(ginErrors) == 0 {
			return
		}
		for _, e := range ginErrors {
			logrus.WithError(e.Err).Error("unhandled request error")
		}
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, framework.ErrorResponse{
				Error: http.StatusText(http.StatusInternalServerError),
			})
		}
	}
}
