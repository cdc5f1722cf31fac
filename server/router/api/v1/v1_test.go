package v1

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hrygo/cadence/server/internal/errors"
	"github.com/hrygo/cadence/store"
)

func TestValidDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2025-06-02", true},
		{"2025-2-3", false},
		{"06/02/2025", false},
		{"2025-13-01", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validDate(tt.input), tt.input)
	}
}

func TestValidTime(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"noon", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validTime(tt.input), tt.input)
	}
}

func TestExtractToken(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc123")
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "abc123", extractToken(c))

	req = httptest.NewRequest(http.MethodGet, "/?access_token=qp456", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "qp456", extractToken(c))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	assert.Empty(t, extractToken(c))
}

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "unauthorized", err: apperrors.Unauthorized("nope"), want: http.StatusUnauthorized},
		{name: "invalid argument", err: apperrors.InvalidArgument("bad"), want: http.StatusBadRequest},
		{name: "not found", err: apperrors.NotFound("gone"), want: http.StatusNotFound},
		{name: "session busy", err: apperrors.SessionBusy(), want: http.StatusConflict},
		{name: "rate limited", err: apperrors.RateLimited(), want: http.StatusTooManyRequests},
		{name: "opaque", err: assertableError("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := toHTTPError(tt.err)
			assert.Equal(t, tt.want, httpErr.Code)
		})
	}
}

type assertableError string

func (e assertableError) Error() string { return string(e) }

func TestHealthz(t *testing.T) {
	e := echo.New()
	s := &APIV1Service{}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, s.Healthz(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestCreateEventValidation(t *testing.T) {
	e := echo.New()
	s := &APIV1Service{}
	user := &store.User{ID: 7, Username: "alice"}

	tests := []struct {
		name string
		body string
	}{
		{name: "missing title", body: `{"date":"2025-06-02","time":"12:00"}`},
		{name: "empty title", body: `{"title":"","date":"2025-06-02","time":"12:00"}`},
		{name: "bad date", body: `{"title":"Lunch","date":"June 2","time":"12:00"}`},
		{name: "bad time", body: `{"title":"Lunch","date":"2025-06-02","time":"noon"}`},
		{name: "missing time", body: `{"title":"Lunch","date":"2025-06-02"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			c := e.NewContext(req, httptest.NewRecorder())
			c.Set(userContextKey, user)

			err := s.CreateEvent(c)
			require.Error(t, err)
			httpErr, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		})
	}
}

func TestChatDisabledAssistant(t *testing.T) {
	e := echo.New()
	s := &APIV1Service{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/x/messages", strings.NewReader(`{"content":"hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set(userContextKey, &store.User{ID: 7})

	err := s.Chat(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotImplemented, httpErr.Code)
}
