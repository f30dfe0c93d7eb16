package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	courts := g.Group("/courts", authMiddleware)
	{
		courts.GET("/:id/availability", h.ForDate)
	}
}
