// Package search provides the search sessions and stateless facility
// listing endpoints.
package search

import (
	"georesponse_backend/internal/facility"
	apphttp "georesponse_backend/internal/http"
	"georesponse_backend/internal/search/handler"
	"georesponse_backend/internal/search/orchestrator"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/validator"
)

// Module is the search bounded context module implementing http.Module.
type Module struct {
	sessions   *handler.SessionHandler
	facilities *handler.FacilitiesHandler
	registry   *orchestrator.Registry
}

// NewModule creates and initializes the search module with all its dependencies.
func NewModule(registry *orchestrator.Registry, dir orchestrator.Directory, regions handler.RegionResolver, settings orchestrator.Settings, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := facility.RegisterValidations(val); err != nil {
		return nil, err
	}
	return &Module{
		sessions:   handler.NewSessionHandler(registry, regions, val, log),
		facilities: handler.NewFacilitiesHandler(dir, settings, val),
		registry:   registry,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "search"
}

// Registry returns the session registry for shutdown wiring.
func (m *Module) Registry() *orchestrator.Registry {
	return m.registry
}

// RegisterRoutes mounts search routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/facilities", m.facilities.List)
	ctx.V1.GET("/facilities/around", m.facilities.Around)

	sessions := ctx.V1.Group("/search/sessions")
	sessions.POST("", ctx.RateLimiter.RateLimit(), m.sessions.Create)
	sessions.GET("/:id", m.sessions.Get)
	sessions.DELETE("/:id", m.sessions.Delete)
	sessions.POST("/:id/query", ctx.RateLimiter.RateLimit(), m.sessions.Query)
	sessions.POST("/:id/suggestion", ctx.RateLimiter.RateLimit(), m.sessions.PickSuggestion)
	sessions.POST("/:id/category", m.sessions.SelectCategory)
	sessions.POST("/:id/city", m.sessions.SelectCity)
	sessions.POST("/:id/state", m.sessions.SelectState)
	sessions.POST("/:id/facilities/:facilityId/open", m.sessions.OpenFacility)
	sessions.DELETE("/:id/selection", m.sessions.CloseFacility)
	sessions.POST("/:id/locate", m.sessions.Locate)
	sessions.POST("/:id/reset", m.sessions.Reset)
	sessions.GET("/:id/clusters", m.sessions.Clusters)
	sessions.GET("/:id/events", m.sessions.Events)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
