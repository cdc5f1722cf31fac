// Package v1 exposes the JSON REST API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/cadence/internal/profile"
	"github.com/hrygo/cadence/plugin/markdown"
	"github.com/hrygo/cadence/server/assistant"
	"github.com/hrygo/cadence/server/auth"
	apperrors "github.com/hrygo/cadence/server/internal/errors"
	"github.com/hrygo/cadence/server/middleware"
	"github.com/hrygo/cadence/store"
)

const (
	userContextKey = "cadence-user"

	// maxConcurrentChats bounds in-flight model calls across all users.
	maxConcurrentChats = 8
)

// APIV1Service wires the REST handlers.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	auth     *auth.Service
	session  *assistant.Session
	markdown *markdown.Service
	limiter  *middleware.RateLimiter
	chatSem  *semaphore.Weighted
}

// NewAPIV1Service creates the API service. session may be nil when the
// AI assistant is disabled by configuration.
func NewAPIV1Service(p *profile.Profile, st *store.Store, authService *auth.Service, session *assistant.Session) *APIV1Service {
	return &APIV1Service{
		Profile:  p,
		Store:    st,
		auth:     authService,
		session:  session,
		markdown: markdown.NewService(),
		limiter:  middleware.NewRateLimiter(),
		chatSem:  semaphore.NewWeighted(maxConcurrentChats),
	}
}

// Register mounts all routes on the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", s.Healthz)

	g := e.Group("/api/v1")

	g.POST("/auth/signup", s.SignUp)
	g.POST("/auth/signin", s.SignIn)
	g.POST("/auth/signout", s.SignOut)

	authed := g.Group("", s.requireUser)
	authed.GET("/auth/me", s.Me)

	authed.GET("/events", s.ListEvents)
	authed.POST("/events", s.CreateEvent)
	authed.PATCH("/events/:uid", s.UpdateEvent)
	authed.DELETE("/events/:uid", s.DeleteEvent)

	authed.GET("/conversations", s.ListConversations)
	authed.POST("/conversations", s.InitConversation)
	authed.DELETE("/conversations/:uid", s.ClearConversation)
	authed.GET("/conversations/:uid/messages", s.ListMessages)
	authed.POST("/conversations/:uid/messages", s.Chat)

	authed.GET("/calendar.ics", s.CalendarICS)
	authed.GET("/feeds/events.rss", s.EventsRSS)
}

// Healthz reports liveness.
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// requireUser resolves the bearer token and stashes the user on the
// request context.
func (s *APIV1Service) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c)
		user, err := s.auth.Authenticate(c.Request().Context(), token)
		if err != nil {
			return toHTTPError(err)
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

func extractToken(c echo.Context) string {
	const prefix = "Bearer "
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	// Fallback for feed readers that can't set headers.
	return c.QueryParam("access_token")
}

func currentUser(c echo.Context) *store.User {
	user, _ := c.Get(userContextKey).(*store.User)
	return user
}

// toHTTPError maps coded pipeline errors onto HTTP responses. Unknown
// errors become opaque 500s so store details never leak.
func toHTTPError(err error) *echo.HTTPError {
	if apiErr, ok := err.(*apperrors.APIError); ok {
		return echo.NewHTTPError(apiErr.HTTPStatus(), apiErr.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "something went wrong, please try again")
}
