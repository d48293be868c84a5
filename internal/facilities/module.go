// Package facilities provides the facility registry bounded context: admin
// CRUD plus the directory endpoints the search side reads from.
package facilities

import (
	"georesponse_backend/internal/events"
	"georesponse_backend/internal/facilities/handler"
	"georesponse_backend/internal/facilities/repository"
	"georesponse_backend/internal/facilities/service"
	"georesponse_backend/internal/facility"
	apphttp "georesponse_backend/internal/http"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/validator"
)

// Module is the facilities bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the facilities module over repo.
func NewModule(repo repository.Repository, bus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := facility.RegisterValidations(val); err != nil {
		return nil, err
	}
	svc := service.New(repo, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "facilities"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts facility routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Directory wire format, read by the directory client
	locations := ctx.V1.Group("/locations")
	locations.GET("", m.handler.Locations)
	locations.GET("/nearby", m.handler.Nearby)
	locations.GET("/closest", m.handler.Closest)

	// Admin-only CRUD endpoints
	adminGroup := ctx.Admin.Group("/facilities")
	adminGroup.GET("", m.handler.List)
	adminGroup.POST("", m.handler.Create)
	adminGroup.GET("/:id", m.handler.GetByID)
	adminGroup.PUT("/:id", m.handler.Update)
	adminGroup.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
