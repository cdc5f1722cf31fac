package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/cadence/store"
)

type eventResponse struct {
	UID         string `json:"uid"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	CreatedTs   int64  `json:"createdTs"`
	UpdatedTs   int64  `json:"updatedTs"`
}

type upsertEventRequest struct {
	Title       *string `json:"title"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

func convertEvent(event *store.Event) *eventResponse {
	return &eventResponse{
		UID:         event.UID,
		Title:       event.Title,
		Date:        event.Date,
		Time:        event.Time,
		Description: event.Description,
		Color:       event.Color,
		CreatedTs:   event.CreatedTs,
		UpdatedTs:   event.UpdatedTs,
	}
}

func convertEventList(events []*store.Event) []*eventResponse {
	list := make([]*eventResponse, 0, len(events))
	for _, event := range events {
		list = append(list, convertEvent(event))
	}
	return list
}

func validDate(s string) bool {
	_, err := time.Parse(store.DateLayout, s)
	return err == nil
}

func validTime(s string) bool {
	_, err := time.Parse(store.TimeLayout, s)
	return err == nil
}

// ListEvents returns the user's events ordered by (date, time), with
// optional inclusive from/to date filters.
func (s *APIV1Service) ListEvents(c echo.Context) error {
	user := currentUser(c)
	find := &store.FindEvent{CreatorID: &user.ID}

	if from := c.QueryParam("from"); from != "" {
		if !validDate(from) {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		find.DateAfter = &from
	}
	if to := c.QueryParam("to"); to != "" {
		if !validDate(to) {
			return echo.NewHTTPError(http.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		find.DateBefore = &to
	}

	events, err := s.Store.ListEvents(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events")
	}
	return c.JSON(http.StatusOK, convertEventList(events))
}

// CreateEvent creates an event from the form payload.
func (s *APIV1Service) CreateEvent(c echo.Context) error {
	var req upsertEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	if req.Title == nil || *req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if req.Date == nil || !validDate(*req.Date) {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	if req.Time == nil || !validTime(*req.Time) {
		return echo.NewHTTPError(http.StatusBadRequest, "time must be HH:MM")
	}

	user := currentUser(c)
	event := &store.Event{
		UID:       shortuuid.New(),
		CreatorID: user.ID,
		Title:     *req.Title,
		Date:      *req.Date,
		Time:      *req.Time,
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Color != nil {
		event.Color = *req.Color
	}

	created, err := s.Store.CreateEvent(c.Request().Context(), event)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create event")
	}
	return c.JSON(http.StatusOK, convertEvent(created))
}

// UpdateEvent patches an event in place by its public id.
func (s *APIV1Service) UpdateEvent(c echo.Context) error {
	var req upsertEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	event, httpErr := s.findOwnedEvent(c)
	if httpErr != nil {
		return httpErr
	}

	now := time.Now().Unix()
	update := &store.UpdateEvent{ID: event.ID, UpdatedTs: &now}
	if req.Title != nil {
		if *req.Title == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "title must not be empty")
		}
		update.Title = req.Title
	}
	if req.Date != nil {
		if !validDate(*req.Date) {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		update.Date = req.Date
	}
	if req.Time != nil {
		if !validTime(*req.Time) {
			return echo.NewHTTPError(http.StatusBadRequest, "time must be HH:MM")
		}
		update.Time = req.Time
	}
	update.Description = req.Description
	update.Color = req.Color

	ctx := c.Request().Context()
	if err := s.Store.UpdateEvent(ctx, update); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update event")
	}

	updated, err := s.Store.GetEvent(ctx, &store.FindEvent{ID: &event.ID})
	if err != nil || updated == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to reload event")
	}
	return c.JSON(http.StatusOK, convertEvent(updated))
}

// DeleteEvent removes an event by its public id.
func (s *APIV1Service) DeleteEvent(c echo.Context) error {
	event, httpErr := s.findOwnedEvent(c)
	if httpErr != nil {
		return httpErr
	}

	if err := s.Store.DeleteEvent(c.Request().Context(), &store.DeleteEvent{ID: event.ID}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete event")
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// findOwnedEvent resolves :uid to an event owned by the caller.
func (s *APIV1Service) findOwnedEvent(c echo.Context) (*store.Event, *echo.HTTPError) {
	user := currentUser(c)
	uid := c.Param("uid")
	if uid == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "event id is required")
	}

	event, err := s.Store.GetEvent(c.Request().Context(), &store.FindEvent{UID: &uid, CreatorID: &user.ID})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load event")
	}
	if event == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "event not found")
	}
	return event, nil
}
