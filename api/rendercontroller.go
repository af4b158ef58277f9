package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storyreel/orchestrator"
	"storyreel/status"
	"storyreel/types"
)

// RegisterRenderRoutes registers the render submission and status endpoints.
func RegisterRenderRoutes(r *gin.Engine, orc *orchestrator.Orchestrator, st status.Store) {
	g := r.Group("/api/v1/renders")
	g.POST("", handleCreateRender(orc))
	g.GET("/:id", handleGetRender(st))
}

// handleCreateRender accepts a scene script and starts a render. The work runs
// asynchronously, the response carries the id to poll.
func handleCreateRender(orc *orchestrator.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RenderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload: " + err.Error()})
			return
		}
		if len(req.Scenes) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one scene is required"})
			return
		}

		res, err := orc.StartRender(req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, types.RenderResponse{
			RenderID: res.ID,
			Status:   res.Status,
		})
	}
}

func handleGetRender(st status.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := st.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, status.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "render not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
