package handler

import (
	"net/http"

	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
	"georesponse_backend/internal/search/orchestrator"
	"georesponse_backend/internal/search/transport"
	"georesponse_backend/platform/httpkit"
	"georesponse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// FacilitiesHandler serves one-shot, sessionless listings.
type FacilitiesHandler struct {
	dir      orchestrator.Directory
	settings orchestrator.Settings
	val      *validator.Validator
}

func NewFacilitiesHandler(dir orchestrator.Directory, settings orchestrator.Settings, val *validator.Validator) *FacilitiesHandler {
	return &FacilitiesHandler{dir: dir, settings: settings, val: val}
}

// List handles GET /api/v1/facilities?q=&category=&city=&state=
func (h *FacilitiesHandler) List(c *gin.Context) {
	var req transport.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.Fields(err))
		return
	}

	criteria := facility.Criteria{
		Text:     req.Query,
		Category: facility.ParseSelection(req.Category),
		City:     req.City,
		State:    req.State,
	}.Normalize()

	res := h.dir.ListAll(c.Request.Context(), directory.Filter{
		Category: criteria.Category,
		CityName: criteria.City,
	})
	items := facility.Filter(res.Facilities, criteria.Matches)

	httpkit.OK(c, transport.ListResponse{
		Items:   toFacilityViews(items, nil),
		Total:   len(items),
		Facets:  facility.BuildFacets(res.Facilities),
		Outcome: listOutcome(len(items), res.Outcome),
	})
}

// Around handles GET /api/v1/facilities/around?lat=&lon=&category=
func (h *FacilitiesHandler) Around(c *gin.Context) {
	var req transport.AroundRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.Fields(err))
		return
	}

	origin := geo.Point{Lat: *req.Lat, Lng: *req.Lon}
	criteria := facility.Criteria{
		Category: facility.ParseSelection(req.Category),
		City:     req.City,
		State:    req.State,
	}.Normalize()

	res := orchestrator.RunOriginSearch(c.Request.Context(), h.dir, orchestrator.OriginQuery{
		Origin:         origin,
		Category:       criteria.Category,
		NearbyRadiusKm: h.settings.NearbyRadiusKm,
		NearbyLimit:    h.settings.NearbyLimit,
		ClosestLimit:   h.settings.ClosestLimit,
	})
	items := facility.Filter(res.Facilities, criteria.MatchesPlace)

	httpkit.OK(c, transport.AroundResponse{
		Origin:      origin,
		Items:       toFacilityViews(items, res.Distances),
		Total:       len(items),
		Facets:      facility.BuildFacets(res.Facilities),
		Outcome:     listOutcome(len(items), res.Outcome),
		UsedClosest: res.UsedClosest,
	})
}

// listOutcome downgrades ok to empty when local filtering removed everything.
func listOutcome(n int, upstream directory.Outcome) directory.Outcome {
	if n > 0 {
		return directory.OutcomeOK
	}
	if upstream == directory.OutcomeFailed {
		return directory.OutcomeFailed
	}
	return directory.OutcomeEmpty
}
