package controller

import (
	"github.com/labstack/echo/v4"

	"mentorhub/service"
)

// ClaimsContextKey is where the auth middleware stores the verified
// token claims.
const ClaimsContextKey = "claims"

// claimsFromContext returns the JWT claims stored by the auth
// middleware, or false on routes that skipped it.
func claimsFromContext(ctx echo.Context) (*service.JWTClaims, bool) {
	claims, ok := ctx.Get(ClaimsContextKey).(*service.JWTClaims)
	return claims, ok
}
