package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/cadence/store"
)

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	UID       string `json:"uid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	CreatedTs int64  `json:"createdTs"`
}

type signInResponse struct {
	User        *userResponse `json:"user"`
	AccessToken string        `json:"accessToken"`
}

func convertUser(user *store.User) *userResponse {
	return &userResponse{
		UID:       user.UID,
		Username:  user.Username,
		Email:     user.Email,
		Nickname:  user.Nickname,
		CreatedTs: user.CreatedTs,
	}
}

// SignUp registers a new account and signs it in.
func (s *APIV1Service) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	ctx := c.Request().Context()
	if _, err := s.auth.SignUp(ctx, req.Username, req.Email, req.Nickname, req.Password); err != nil {
		return toHTTPError(err)
	}

	user, token, err := s.auth.SignIn(ctx, req.Username, req.Password)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, &signInResponse{User: convertUser(user), AccessToken: token})
}

// SignIn verifies credentials and issues an access token.
func (s *APIV1Service) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	user, token, err := s.auth.SignIn(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, &signInResponse{User: convertUser(user), AccessToken: token})
}

// SignOut acknowledges a sign-out. Tokens are stateless; the client
// discards its copy.
func (s *APIV1Service) SignOut(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Me returns the authenticated user's profile.
func (s *APIV1Service) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, convertUser(currentUser(c)))
}
