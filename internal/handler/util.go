package handler

import (
	"forms-service/internal/tenancy"
	"forms-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

// currentActor builds the caller identity from the JWT claims the auth
// middleware stored on the context. Anonymous requests yield nil.
func currentActor(c echo.Context) *tenancy.Actor {
	claims, ok := c.Get("user").(*jwtutil.UserClaims)
	if !ok || claims == nil {
		return nil
	}
	return &tenancy.Actor{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Role:     claims.Role,
		TenantID: claims.TenantID,
	}
}
