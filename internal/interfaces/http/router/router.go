// Package router assembles the gin engine from handler registrars.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/b2bstore/backend/internal/infrastructure/auth"
	"github.com/b2bstore/backend/internal/infrastructure/logger"
	"github.com/b2bstore/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar registers a handler's routes on a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config wires the router's dependencies
type Config struct {
	Logger     *zap.Logger
	JWTService *auth.JWTService

	// System handlers mount on the root, unauthenticated
	System []RouteRegistrar
	// API handlers mount under /api/v1 behind JWT auth
	API []RouteRegistrar
	// Admin handlers mount under /admin behind JWT auth plus the admin role
	Admin []RouteRegistrar
}

// New builds the gin engine with the standard middleware chain
func New(cfg Config) *gin.Engine {
	engine := gin.New()
	engine.Use(
		logger.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
	)

	root := engine.Group("")
	for _, registrar := range cfg.System {
		registrar.RegisterRoutes(root)
	}

	api := engine.Group("/api/v1", middleware.JWTAuth(cfg.JWTService))
	for _, registrar := range cfg.API {
		registrar.RegisterRoutes(api)
	}

	admin := engine.Group("/admin", middleware.JWTAuth(cfg.JWTService), middleware.RequireAdmin())
	for _, registrar := range cfg.Admin {
		registrar.RegisterRoutes(admin)
	}

	return engine
}
