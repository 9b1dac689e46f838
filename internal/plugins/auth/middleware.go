package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ninglab/ning-backend/internal/apperror"
)

// Context key for storing the resolved user in the Echo context. Other
// plugins access it via the exported getter below.
const contextKeyUser = "auth_user"

// RequireUser returns middleware that resolves the bearer token from the
// Authorization header and injects the full user record into the request
// context. Requests without a valid token are rejected with 401.
func RequireUser(service Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c)
			if token == "" {
				return apperror.NewUnauthorized("missing bearer token")
			}

			user, err := service.Resolve(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(contextKeyUser, user)
			return next(c)
		}
	}
}

// BearerToken extracts the token from the Authorization header. Returns ""
// when the header is missing or not a bearer scheme.
func BearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetUser retrieves the authenticated user from the Echo context. Returns
// nil if the request is not authenticated (middleware not applied).
func GetUser(c echo.Context) *User {
	user, ok := c.Get(contextKeyUser).(*User)
	if !ok {
		return nil
	}
	return user
}
