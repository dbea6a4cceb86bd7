package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kbforge/kbforge/api/handlers"
	"github.com/kbforge/kbforge/api/middleware"
)

// SetupRoutes wires all API routes.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	v1.POST("/convert", h.Convert.ConvertDocument)

	batches := v1.Group("/batches")
	{
		batches.POST("", h.Convert.CreateBatch)
		batches.GET("/:jobId", h.Convert.GetBatch)
	}
}
