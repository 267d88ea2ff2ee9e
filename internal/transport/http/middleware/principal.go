package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/makerclub/printq/internal/identity"
)

// Identity headers stamped by the trusted edge proxy. Requests reach
// this service only after the gateway has authenticated them.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

const principalKey = "printq.principal"

// Principal extracts the authenticated caller from the identity headers
// and stores it on the request context. Absent or malformed headers
// yield a GUEST principal, which downstream capability checks reject
// for any write.
func Principal() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := identity.Principal{
				Email: c.Request().Header.Get(HeaderUserEmail),
				Role:  identity.ParseRole(c.Request().Header.Get(HeaderUserRole)),
			}
			if raw := c.Request().Header.Get(HeaderUserID); raw != "" {
				if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
					p.ID = id
				}
			}
			if p.ID == 0 {
				p.Role = identity.RoleGuest
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// From returns the principal stored by the middleware. Handlers running
// outside the middleware chain get a GUEST principal.
func From(c echo.Context) identity.Principal {
	if p, ok := c.Get(principalKey).(identity.Principal); ok {
		return p
	}
	return identity.Principal{Role: identity.RoleGuest}
}
