package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, providerMiddleware gin.HandlerFunc) {
	group := g.Group("/waitlist", authMiddleware)
	{
		group.POST("", h.Join)
		group.GET("", h.List)
		group.DELETE("/:id", h.Withdraw)
		group.POST("/:id/fulfill", providerMiddleware, h.Fulfill)
	}
}
