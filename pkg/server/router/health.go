package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janskor-cz/identuslabel-sub001/config"
	"github.com/janskor-cz/identuslabel-sub001/pkg/server/framework"
)

type GetHealthCheckResponse struct {
	// Status is always equal to `OK`
	Status      string `json:"status"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

const HealthOK string = "OK"

// Health is a simple handler that always responds with a 200 OK and static service info
func Health(c *gin.Context) {
	framework.Respond(c, GetHealthCheckResponse{
		Status:      HealthOK,
		Service:     config.Name(),
		Description: config.Description(),
		Version:     config.Version(),
	}, http.StatusOK)
}
