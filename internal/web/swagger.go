package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SwaggerServer exposes the interactive API reference
type SwaggerServer struct {
	enabled bool
	logger  *slog.Logger
}

func NewSwaggerServer(enabled bool, logger *slog.Logger) *SwaggerServer {
	return &SwaggerServer{enabled: enabled, logger: logger.With("component", "swagger")}
}

func (s *SwaggerServer) RegisterRoutes(router *gin.Engine) {
	if !s.enabled {
		s.logger.Debug("swagger ui disabled")
		return
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.DocExpansion("list"),
	))
	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	s.logger.Debug("swagger ui registered", "path", "/swagger/index.html")
}
