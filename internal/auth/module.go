// Package auth provides admin authentication: configured credentials are
// exchanged for a short-lived access token carrying the admin role.
package auth

import (
	"georesponse_backend/internal/auth/handler"
	"georesponse_backend/internal/auth/service"
	"georesponse_backend/internal/events"
	apphttp "georesponse_backend/internal/http"
	"georesponse_backend/platform/config"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(cfg config.AdminAuthConfig, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(cfg, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.LoginRateLimiter.RateLimit())
	authGroup.POST("/admin/login", m.handler.Login)

	ctx.Admin.GET("/me", m.handler.Me)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
