package handler

import (
	"context"
	"net/http"
	"strings"

	"notepad/internal/contract"
	"notepad/internal/domain/entity"
	"notepad/internal/infrastructure/google"
	"notepad/internal/utils"
	"notepad/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*google.Token, error)
}

type UserDirectory interface {
	ResolveOrCreate(sub, email, name string) (*entity.User, error)
	GetByID(id int64) (*entity.User, error)
}

type DefaultAuthRoute struct {
	Verifier TokenVerifier
	Users    UserDirectory
}

func NewAuthDefault(verifier TokenVerifier, users UserDirectory) *DefaultAuthRoute {
	return &DefaultAuthRoute{Verifier: verifier, Users: users}
}

// VerifyToken is public: clients call it right after sign-in to confirm
// the credential and provision the local user row.
func (a *DefaultAuthRoute) VerifyToken(c echo.Context) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthHeaderError)
	}

	token, err := a.Verifier.Verify(c.Request().Context(), header)
	if err != nil {
		log.Warnf("token verification failed: %v", err)
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	user, err := a.Users.ResolveOrCreate(token.Sub, token.Email, token.Name)
	if err != nil {
		log.Errorf("failed to resolve user for subject %s: %v", token.Sub, err)
		return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
	}

	return c.JSON(http.StatusOK, &contract.VerifyTokenResponse{
		Valid:  true,
		UID:    token.Sub,
		Email:  token.Email,
		Name:   token.Name,
		UserID: user.ID,
	})
}

func (a *DefaultAuthRoute) GetCurrentUser(c echo.Context) error {
	user, cerr := utils.GetUserFromContext(c)
	if cerr != nil {
		return c.JSON(cerr.Code(), cerr)
	}

	// Re-read the row so a stale context cannot echo back a user that no
	// longer exists in the directory.
	current, err := a.Users.GetByID(user.ID)
	if err != nil {
		log.Errorf("failed to fetch user %d: %v", user.ID, err)
		return c.JSON(http.StatusInternalServerError, apierror.InternalServerError)
	}

	if current == nil {
		return c.JSON(http.StatusNotFound, apierror.UserNotFoundError)
	}

	return c.JSON(http.StatusOK, &contract.CurrentUserResponse{
		ID:        current.ID,
		SubjectID: current.Subject(),
		Email:     current.Email,
		Name:      current.Name,
		CreatedAt: utils.FormatEpoch(current.CreatedAt),
	})
}

// Logout is stateless on this side: tokens are issued and revoked by the
// identity provider, so there is no server session to tear down.
func (a *DefaultAuthRoute) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, &contract.MessageResponse{Message: "Logged out successfully"})
}
