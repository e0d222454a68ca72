package handlers

import (
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/logger"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live telemetry stream over the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerBoilerRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerBoilerRoutes(api *gin.RouterGroup) {
	boiler := api.Group("/boiler")
	{
		boiler.GET("/status", h.getStatus)
		boiler.POST("/boost", h.startBoost)
		// Body example: {"reason":"chimney sweep"}
		boiler.POST("/safety", h.forceSafety)
		boiler.POST("/reset", h.clearSafety)
		boiler.GET("/settings", h.getSettings)
		boiler.PATCH("/settings", h.updateSettings)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
