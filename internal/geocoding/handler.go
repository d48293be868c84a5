package geocoding

import (
	"errors"
	"net/http"

	"georesponse_backend/platform/apperr"
	"georesponse_backend/platform/httpkit"
	"georesponse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes suggestion and place resolution endpoints.
type Handler struct {
	client  *Client
	regions *RegionResolver
	val     *validator.Validator
}

func NewHandler(client *Client, regions *RegionResolver, val *validator.Validator) *Handler {
	return &Handler{client: client, regions: regions, val: val}
}

// Suggest handles GET /api/v1/geocoding/suggest?q=...&region=...
func (h *Handler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.Fields(err))
		return
	}

	region := req.Region
	if region == "" {
		region = h.regions.RegionFor(c.ClientIP())
	}
	if region == "" {
		region = h.client.DefaultRegion()
	}

	suggestions, err := h.client.Suggest(c.Request.Context(), req.Query, region)
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	} else if len(suggestions) == 0 {
		outcome = "empty"
	}

	httpkit.OK(c, SuggestResponse{Suggestions: suggestions, Region: region, Outcome: outcome})
}

// Resolve handles GET /api/v1/geocoding/places/:placeId
func (h *Handler) Resolve(c *gin.Context) {
	place, err := h.client.Resolve(c.Request.Context(), c.Param("placeId"))
	if errors.Is(err, ErrNotInitialized) {
		httpkit.HandleError(c, apperr.Unavailable("geocoding provider not ready"))
		return
	}
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindUnavailable, "place lookup failed", err))
		return
	}
	if place == nil {
		httpkit.HandleError(c, apperr.NotFound("place not found"))
		return
	}
	httpkit.OK(c, place)
}
