// Package framework is a minimal web framework.
package framework

import (
	"net/http"
	"os"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/janskor-cz/identuslabel-sub001/config"
)

// Server is the entrypoint into our application and what configures our context
// object for each of our http routers
type Server struct {
	*http.Server
	router   *gin.Engine
	shutdown chan os.Signal
}

// NewServer creates a Server that handles a set of routes for the application
func NewServer(cfg config.ServerConfig, handler *gin.Engine, shutdown chan os.Signal) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              cfg.APIHost,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		router:   handler,
		shutdown: shutdown,
	}
}

// SignalShutdown is used to gracefully shut down the server when an integrity
// issue is identified
func (s *Server) SignalShutdown() {
	s.shutdown <- syscall.SIGTERM
}
