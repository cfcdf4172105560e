package middleware

import (
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"optikcare_api/internal/apperrors"
	"optikcare_api/internal/models"
	"optikcare_api/internal/repository"
)

const userContextKey = "authUser"

// RequireAuth verifies the caller's Firebase credential and loads the
// matching account into the request context. Both a Bearer ID token and
// the "session" cookie are accepted; the header wins when both exist.
func RequireAuth(authClient *auth.Client, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return apperrors.Authentication("authentication is not configured")
			}

			ctx := c.Request().Context()
			uid := ""

			if header := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
				token, err := authClient.VerifyIDToken(ctx, strings.TrimPrefix(header, "Bearer "))
				if err != nil {
					return apperrors.Authentication("invalid token")
				}
				uid = token.UID
			} else if cookie, err := c.Cookie("session"); err == nil && cookie.Value != "" {
				token, err := authClient.VerifySessionCookie(ctx, cookie.Value)
				if err != nil {
					return apperrors.Authentication("invalid session")
				}
				uid = token.UID
			} else {
				return apperrors.Authentication("missing credentials")
			}

			user, err := users.FindByFirebaseUID(ctx, uid)
			if err != nil {
				if apperrors.IsKind(err, apperrors.KindNotFound) {
					return apperrors.Authentication("account not registered")
				}
				return err
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireAdmin rejects callers whose account does not hold the admin
// role. It must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || !user.IsAdmin() {
				return apperrors.Authentication("admin access required")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated account set by RequireAuth, or
// nil when the route ran without it.
func CurrentUser(c echo.Context) *models.User {
	if user, ok := c.Get(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}
