package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"georesponse_backend/internal/auth/password"
	"georesponse_backend/internal/auth/token"
	"georesponse_backend/internal/auth/transport"
	"georesponse_backend/internal/events"
	"georesponse_backend/platform/apperr"
	"georesponse_backend/platform/config"
	"georesponse_backend/platform/logger"
)

const (
	roleAdmin        = "admin"
	defaultTokenTTL  = 8 * time.Hour
	msgInvalidLogin  = "invalid credentials"
	msgLoginDisabled = "admin login is not configured"
)

type Service struct {
	cfg config.AdminAuthConfig
	bus events.Bus
	log *logger.Logger
	now func() time.Time
	// dummyHash is compared on the unknown-email path so both paths pay
	// the bcrypt cost.
	dummyHash string
}

// New creates the admin auth service. bus may be nil.
func New(cfg config.AdminAuthConfig, bus events.Bus, log *logger.Logger) *Service {
	dummy, _ := password.Hash("georesponse-unknown-admin")
	return &Service{cfg: cfg, bus: bus, log: log, now: time.Now, dummyHash: dummy}
}

// Login checks the configured admin credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, plainPassword, clientIP string) (transport.LoginResponse, error) {
	if !s.cfg.IsAdminEnabled() {
		return transport.LoginResponse{}, apperr.Forbidden(msgLoginDisabled)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	emailMatches := subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.GetAdminEmail())) == 1

	hash := s.cfg.GetAdminPasswordHash()
	if !emailMatches {
		hash = s.dummyHash
	}
	passwordErr := password.Compare(hash, plainPassword)
	if !emailMatches || passwordErr != nil {
		s.log.AuthEvent("admin_login", email, false, msgInvalidLogin)
		return transport.LoginResponse{}, apperr.Unauthorized(msgInvalidLogin)
	}

	ttl := s.cfg.GetAccessTokenTTL()
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := s.now()
	roles := []string{roleAdmin}
	accessToken, err := token.SignAccess(email, roles, now, ttl, s.cfg.GetJWTAccessSecret())
	if err != nil {
		return transport.LoginResponse{}, apperr.Wrap(apperr.KindInternal, "failed to issue token", err).WithOp("auth.Login")
	}

	s.log.AuthEvent("admin_login", email, true, "")
	if s.bus != nil {
		s.bus.Publish(ctx, events.AdminLoggedIn{BaseEvent: events.NewBaseEvent(), Email: email, ClientIP: clientIP})
	}

	return transport.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(ttl).UTC().Truncate(time.Second),
		Roles:       roles,
	}, nil
}
