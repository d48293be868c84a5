package handler

import (
	"net/http"
	"time"

	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
	"georesponse_backend/internal/geocoding"
	"georesponse_backend/internal/search/orchestrator"
	"georesponse_backend/internal/search/transport"
	"georesponse_backend/platform/apperr"
	"georesponse_backend/platform/httpkit"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 25 * time.Second

// RegionResolver maps a client IP to a two-letter region, or "".
type RegionResolver interface {
	RegionFor(ip string) string
}

// SessionHandler exposes search sessions over HTTP.
type SessionHandler struct {
	registry *orchestrator.Registry
	regions  RegionResolver
	val      *validator.Validator
	log      *logger.Logger
}

func NewSessionHandler(registry *orchestrator.Registry, regions RegionResolver, val *validator.Validator, log *logger.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, regions: regions, val: val, log: log}
}

// Create handles POST /api/v1/search/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req transport.CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.Fields(err))
		return
	}

	region := req.Region
	if region == "" && h.regions != nil {
		region = h.regions.RegionFor(c.ClientIP())
	}

	session := h.registry.Create(c.Request.Context(), region)
	h.log.WithSessionID(session.ID()).Info("search session created", "region", region)
	httpkit.Created(c, toSessionResponse(session.Snapshot()))
}

// Get handles GET /api/v1/search/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	httpkit.OK(c, toSessionResponse(session.Snapshot()))
}

// Delete handles DELETE /api/v1/search/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !h.registry.Delete(id) {
		httpkit.HandleError(c, h.missing(id))
		return
	}
	httpkit.NoContent(c)
}

// Query handles POST /api/v1/search/sessions/:id/query
func (h *SessionHandler) Query(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.QueryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	httpkit.OK(c, toSessionResponse(session.TypeQuery(req.Text)))
}

// PickSuggestion handles POST /api/v1/search/sessions/:id/suggestion
func (h *SessionHandler) PickSuggestion(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.SuggestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	st, err := session.PickSuggestion(c.Request.Context(), geocoding.Suggestion{
		Label:   req.Label,
		PlaceID: req.PlaceID,
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSessionResponse(st))
}

// SelectCategory handles POST /api/v1/search/sessions/:id/category
func (h *SessionHandler) SelectCategory(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.CategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	st := session.SelectCategory(c.Request.Context(), facility.ParseSelection(req.Category))
	httpkit.OK(c, toSessionResponse(st))
}

// SelectCity handles POST /api/v1/search/sessions/:id/city
func (h *SessionHandler) SelectCity(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.PlaceFilterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	httpkit.OK(c, toSessionResponse(session.SelectCity(c.Request.Context(), req.Value)))
}

// SelectState handles POST /api/v1/search/sessions/:id/state
func (h *SessionHandler) SelectState(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.PlaceFilterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	httpkit.OK(c, toSessionResponse(session.SelectState(c.Request.Context(), req.Value)))
}

// OpenFacility handles POST /api/v1/search/sessions/:id/facilities/:facilityId/open
func (h *SessionHandler) OpenFacility(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	st, err := session.OpenFacility(c.Param("facilityId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSessionResponse(st))
}

// CloseFacility handles DELETE /api/v1/search/sessions/:id/selection
func (h *SessionHandler) CloseFacility(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	httpkit.OK(c, toSessionResponse(session.CloseFacility()))
}

// Locate handles POST /api/v1/search/sessions/:id/locate
func (h *SessionHandler) Locate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.LocateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	st, err := session.Locate(geo.Point{Lat: req.Lat, Lng: req.Lng})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toSessionResponse(st))
}

// Reset handles POST /api/v1/search/sessions/:id/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	httpkit.OK(c, toSessionResponse(session.Reset(c.Request.Context())))
}

// Clusters handles GET /api/v1/search/sessions/:id/clusters?zoom=
func (h *SessionHandler) Clusters(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req transport.ClustersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.Fields(err))
		return
	}
	httpkit.OK(c, transport.ClustersResponse{Zoom: req.Zoom, Clusters: session.Clusters(req.Zoom)})
}

// Events handles GET /api/v1/search/sessions/:id/events as a Server-Sent
// Events stream of session states. The first event is the current state.
func (h *SessionHandler) Events(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	states, unsubscribe := session.Subscribe()
	defer unsubscribe()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case <-keepAlive.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			c.Writer.Flush()
		case st, ok := <-states:
			if !ok {
				c.SSEvent("closed", gin.H{"id": session.ID()})
				c.Writer.Flush()
				return
			}
			c.SSEvent("state", toSessionResponse(st))
			c.Writer.Flush()
		}
	}
}

func (h *SessionHandler) session(c *gin.Context) (*orchestrator.Session, bool) {
	id := c.Param("id")
	session, ok := h.registry.Get(id)
	if !ok {
		httpkit.HandleError(c, h.missing(id))
		return nil, false
	}
	return session, true
}

func (h *SessionHandler) missing(id string) error {
	if h.registry.Closed(id) {
		return apperr.Gone("search session expired")
	}
	return apperr.NotFound("search session not found")
}

func (h *SessionHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.Fields(err))
		return false
	}
	return true
}
