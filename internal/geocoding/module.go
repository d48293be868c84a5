package geocoding

import (
	apphttp "georesponse_backend/internal/http"
	"georesponse_backend/platform/validator"
)

// Module wires the geocoding HTTP routes.
type Module struct {
	handler *Handler
}

func NewModule(client *Client, regions *RegionResolver, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(client, regions, val)}
}

func (m *Module) Name() string {
	return "geocoding"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/geocoding")
	group.Use(ctx.RateLimiter.RateLimit())
	group.GET("/suggest", m.handler.Suggest)
	group.GET("/places/:placeId", m.handler.Resolve)
}

var _ apphttp.Module = (*Module)(nil)
