// Package token signs the access tokens accepted by httpkit.AuthRequired.
package token

import (
	"time"

	"georesponse_backend/platform/httpkit"

	"github.com/golang-jwt/jwt/v5"
)

// SignAccess returns an HS256 access token for subject carrying roles,
// valid from now for ttl.
func SignAccess(subject string, roles []string, now time.Time, ttl time.Duration, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   subject,
		"type":  httpkit.AccessTokenType,
		"roles": roles,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}
