// Package middleware holds the Echo middleware shared by the route groups:
// bearer token authentication, role gates and rate limiting.
package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-booking/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the caller in the
// context under "user_id" (uint64), "role" (role name) and "principal".
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            p, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(ctxUserID, p.ID)
            c.Set(ctxRole, p.Role.String())
            c.Set(ctxPrincipal, p)
            return next(c)
        }
    }
}
