package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, optionalAuth gin.HandlerFunc) {
	// === Public Routes ===
	g.GET("/availability", h.Availability)

	group := g.Group("/reservations")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", optionalAuth, h.Create)
	}

	// === Authenticated Routes ===
	authed := g.Group("")
	authed.Use(authMiddleware)
	{
		authed.DELETE("/reservations/:id", h.Cancel)
		authed.GET("/users/me/reservations", h.Mine)
	}
}
