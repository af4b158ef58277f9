package api

import (
	"github.com/gin-gonic/gin"

	"storyreel/orchestrator"
	"storyreel/status"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(orc *orchestrator.Orchestrator, st status.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	RegisterRenderRoutes(r, orc, st)
	RegisterHealthRoutes(r)
	return r
}
