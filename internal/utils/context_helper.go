package utils

import (
	"notepad/internal/domain/entity"
	"notepad/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

const UserContextKey = "user"

// GetUserFromContext returns the authenticated user bound by the identity
// middleware, or UnauthorizedError when the request carried no valid
// credential. Handlers that require identity fail through this path.
func GetUserFromContext(c echo.Context) (*entity.User, apierror.ErrorResponse) {
	val := c.Get(UserContextKey)
	if val == nil {
		return nil, apierror.UnauthorizedError
	}

	user, ok := val.(*entity.User)
	if !ok {
		return nil, apierror.InternalServerError
	}
	return user, nil
}
