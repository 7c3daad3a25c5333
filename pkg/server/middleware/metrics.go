package middleware

import (
	"expvar"
	"runtime"

	"github.com/gin-gonic/gin"
)

// counters holds global program counters published over expvar
var counters = struct {
	goroutines *expvar.Int
	requests   *expvar.Int
	errors     *expvar.Int
}{
	goroutines: expvar.NewInt("goroutines"),
	requests:   expvar.NewInt("requests"),
	errors:     expvar.NewInt("errors"),
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		counters.requests.Add(1)

		// sample the goroutine count every 100 requests
		if counters.requests.Value()%100 == 0 {
			counters.goroutines.Set(int64(runtime.NumGoroutine()))
		}

		if len(c.Errors) > 0 {
			counters.errors.Add(1)
		}
	}
}
