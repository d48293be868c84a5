package handler

import (
	"net/http"

	"georesponse_backend/internal/facilities/transport"
	"georesponse_backend/platform/httpkit"
	"georesponse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Locations serves the registry in the directory wire format.
// GET /api/v1/locations?category=&address=&cityName=
func (h *Handler) Locations(c *gin.Context) {
	var req transport.LocationsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.Locations(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Nearby serves GET /api/v1/locations/nearby?latitude=&longitude=&radiusKm=&limit=&category=
func (h *Handler) Nearby(c *gin.Context) {
	var req transport.NearbyRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.Nearby(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Closest serves GET /api/v1/locations/closest?latitude=&longitude=&limit=&category=
func (h *Handler) Closest(c *gin.Context) {
	var req transport.ClosestRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := h.svc.Closest(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return false
	}
	return true
}
