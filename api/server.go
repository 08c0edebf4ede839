package api

import (
	"github.com/gin-gonic/gin"
)

// Controller registers a group of routes on the engine.
type Controller interface {
	Register(r *gin.Engine)
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(controllers ...Controller) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r)
	for _, c := range controllers {
		c.Register(r)
	}
	return r
}
