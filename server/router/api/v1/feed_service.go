package v1

import (
	"fmt"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/cadence/store"
)

const (
	// defaultEventDuration pads zone-less events into a calendar block.
	defaultEventDuration = time.Hour

	rssItemLimit = 50
)

// CalendarICS exports the user's full calendar as an iCalendar file.
func (s *APIV1Service) CalendarICS(c echo.Context) error {
	user := currentUser(c)
	events, err := s.Store.ListEvents(c.Request().Context(), &store.FindEvent{CreatorID: &user.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events")
	}

	loc := s.Profile.TimeLocation()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Cadence//Calendar//EN")
	cal.SetXWRCalName(fmt.Sprintf("Cadence - %s", user.Username))

	for _, event := range events {
		start := event.StartTime(loc)
		if start.IsZero() {
			continue
		}

		entry := cal.AddEvent(fmt.Sprintf("%s@cadence", event.UID))
		entry.SetCreatedTime(time.Unix(event.CreatedTs, 0))
		entry.SetDtStampTime(time.Unix(event.UpdatedTs, 0))
		entry.SetStartAt(start)
		entry.SetEndAt(start.Add(defaultEventDuration))
		entry.SetSummary(event.Title)
		if event.Description != "" {
			entry.SetDescription(event.Description)
		}
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/calendar; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="cadence.ics"`)
	return c.String(http.StatusOK, cal.Serialize())
}

// EventsRSS publishes the user's upcoming events as an RSS feed.
func (s *APIV1Service) EventsRSS(c echo.Context) error {
	user := currentUser(c)
	loc := s.Profile.TimeLocation()
	now := time.Now().In(loc)
	today := now.Format(store.DateLayout)

	events, err := s.Store.ListEvents(c.Request().Context(), &store.FindEvent{
		CreatorID: &user.ID,
		DateAfter: &today,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events")
	}

	baseURL := s.Profile.InstanceURL
	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Cadence - upcoming events for %s", user.Username),
		Link:        &feeds.Link{Href: baseURL},
		Description: "Upcoming calendar events",
		Created:     now,
	}

	count := 0
	for _, event := range events {
		start := event.StartTime(loc)
		if start.Before(now) {
			continue
		}
		if count >= rssItemLimit {
			break
		}
		count++

		feed.Items = append(feed.Items, &feeds.Item{
			Id:          event.UID,
			Title:       fmt.Sprintf("%s (%s %s)", event.Title, event.Date, event.Time),
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/events/%s", baseURL, event.UID)},
			Description: event.Description,
			Created:     start,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render feed")
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	return c.String(http.StatusOK, rss)
}
