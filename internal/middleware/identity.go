package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-booking/internal/model"
)

const (
    ctxUserID    = "user_id"
    ctxRole      = "role"
    ctxPrincipal = "principal"
)

// Principal returns the caller authenticated by JWTAuth.
func Principal(c echo.Context) (model.Principal, bool) {
    p, ok := c.Get(ctxPrincipal).(model.Principal)
    return p, ok && p.ID != 0
}

// userKey identifies the caller for rate limiting; "anon" when
// unauthenticated.
func userKey(c echo.Context) string {
    if p, ok := Principal(c); ok {
        return strconv.FormatUint(p.ID, 10)
    }
    return "anon"
}
