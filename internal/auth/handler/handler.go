package handler

import (
	"net/http"

	"georesponse_backend/internal/auth/service"
	"georesponse_backend/internal/auth/transport"
	"georesponse_backend/platform/httpkit"
	"georesponse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Login handles POST /api/v1/auth/admin/login
func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Me handles GET /api/v1/admin/me
func (h *Handler) Me(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	httpkit.OK(c, transport.MeResponse{Email: identity.Subject(), Roles: identity.Roles()})
}
