package middleware

import (
	"context"
	"strings"

	"notepad/internal/domain/entity"
	"notepad/internal/infrastructure/google"
	"notepad/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const bearerPrefix = "Bearer "

// DefaultPublicPaths bypass verification entirely: health/monitoring
// routes and the endpoints a client must reach before it holds a token.
// The root path "/" is matched exactly, the rest by prefix.
var DefaultPublicPaths = []string{
	"/health",
	"/metrics",
	"/api/auth/verify-token",
	"/api/auth/logout",
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*google.Token, error)
}

type UserDirectory interface {
	ResolveOrCreate(sub, email, name string) (*entity.User, error)
}

type IdentityMiddlewareConfig struct {
	Verifier    TokenVerifier
	Users       UserDirectory
	PublicPaths []string // defaults to DefaultPublicPaths when empty
}

// NewIdentityMiddleware returns a pass-through filter: it binds the
// resolved user to the request context when a valid bearer credential is
// present, and otherwise lets the request continue unauthenticated. It
// never aborts the chain itself; handlers that require identity return
// 401 when none was bound.
func NewIdentityMiddleware(cfg *IdentityMiddlewareConfig) echo.MiddlewareFunc {
	public := cfg.PublicPaths
	if len(public) == 0 {
		public = DefaultPublicPaths
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isPublicPath(c.Request().URL.Path, public) {
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, bearerPrefix) {
				return next(c)
			}

			token, err := cfg.Verifier.Verify(c.Request().Context(), header)
			if err != nil {
				// Expired, malformed and signature failures all land here;
				// protected handlers surface the 401.
				log.Warnf("token verification failed: %v", err)
				return next(c)
			}

			user, err := cfg.Users.ResolveOrCreate(token.Sub, token.Email, token.Name)
			if err != nil {
				log.Errorf("failed to resolve user for subject %s: %v", token.Sub, err)
				return next(c)
			}

			c.Set(utils.UserContextKey, user)
			c.Set("subject", token.Sub)
			return next(c)
		}
	}
}

func isPublicPath(path string, public []string) bool {
	if path == "/" {
		return true
	}

	for _, p := range public {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
