package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, providerMiddleware gin.HandlerFunc) {
	group := g.Group("/seasonal-series")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.POST("/preview", h.Preview)
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
	}

	// === Provider Routes ===
	provider := group.Group("", providerMiddleware)
	{
		provider.POST("/:id/confirm", h.Confirm)
		provider.POST("/:id/reject", h.Reject)
		provider.POST("/:id/activate", h.Activate)
		provider.PATCH("/:id/payment", h.MarkPaid)
		provider.POST("/auto-complete", h.AutoComplete)
	}
}
