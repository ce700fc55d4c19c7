package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	// Health and OAuth endpoints (no session required)
	r.GET("/health", handler.GetHealth)
	r.GET("/auth/linkedin", handler.BeginLinkedInAuth)
	r.GET("/auth/callback", handler.AuthCallback)

	// Session-authenticated endpoints
	authed := r.Group("")
	authed.Use(authMiddleware(handler.jwtSecret))
	{
		authed.GET("/posts", handler.GetPosts)
		authed.POST("/sync", handler.SyncPosts)
		authed.GET("/analytics", handler.GetAnalytics)
		authed.GET("/dma/status", handler.GetDMAStatus)

		authed.GET("/partners", handler.ListPartners)
		authed.GET("/partners/invitations", handler.ListInvitations)
		authed.POST("/partners/invitations", handler.CreateInvitation)
		authed.POST("/partners/invitations/:id/accept", handler.AcceptInvitation)
		authed.POST("/partners/invitations/:id/decline", handler.DeclineInvitation)
		authed.GET("/partners/:id/posts", handler.GetPartnerPosts)

		authed.POST("/suggestions", handler.CreateSuggestions)
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Cignite",
			"version":     handler.version,
			"description": "LinkedIn member data portability sync and engagement service",
			"endpoints": map[string]string{
				"health":      "/health",
				"auth":        "/auth/linkedin",
				"posts":       "/posts (requires session token)",
				"sync":        "/sync (POST, requires session token)",
				"analytics":   "/analytics (requires session token)",
				"dma_status":  "/dma/status (requires session token)",
				"partners":    "/partners (requires session token)",
				"suggestions": "/suggestions (POST, requires session token)",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
