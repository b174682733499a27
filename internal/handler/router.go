package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Handlers groups the HTTP handlers mounted by NewRouter
type Handlers struct {
	Listings     *ListingHandler
	Embeddings   *EmbeddingHandler
	Chat         *ChatHandler
	Appointments *AppointmentHandler
	Lease        *LeaseHandler
}

// RouterConfig holds the settings NewRouter needs
type RouterConfig struct {
	JWTSecret []byte
	CORS      cors.Config
	Build     BuildInfo
}

// NewRouter wires middleware and routes. Listing reads are public, everything else needs a bearer token.
func NewRouter(h Handlers, cfg RouterConfig, log logrus.FieldLogger) *gin.Engine {
	RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LogMiddleware(log))
	router.Use(cors.New(cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "flatmate",
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    cfg.Build.Version,
			"build_time": cfg.Build.BuildTime,
			"git_commit": cfg.Build.GitCommit,
		})
	})

	public := router.Group("/api/v1")
	{
		public.GET("/listings", h.Listings.List)
		public.GET("/listings/:id", h.Listings.Get)
	}

	protected := router.Group("/api/v1")
	protected.Use(AuthMiddleware(cfg.JWTSecret))
	{
		protected.POST("/listings", h.Listings.Create)
		protected.POST("/listings/embeddings/batch", h.Embeddings.BatchUpdate)

		protected.POST("/chat", h.Chat.Chat)
		protected.GET("/conversations", h.Chat.ListConversations)
		protected.GET("/conversations/:id/messages", h.Chat.ListMessages)

		protected.POST("/appointments", h.Appointments.Create)
		protected.GET("/appointments", h.Appointments.List)
		protected.PATCH("/appointments/:id/status", h.Appointments.UpdateStatus)

		protected.POST("/lease/analyze", h.Lease.Analyze)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}
