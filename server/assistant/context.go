package assistant

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hrygo/cadence/store"
)

// contextCap bounds each partition of the event context block so the
// prompt stays a predictable size regardless of calendar history.
const contextCap = 100

// noEventsSentence is emitted instead of an empty context block.
const noEventsSentence = "The user currently has no events scheduled."

// FormatEvents renders the user's events into the context block sent
// with each model request. Events are partitioned into past and
// upcoming around now, each partition ordered by (date, time) ascending
// and capped at the 100 entries nearest to now. Lines carry the event's
// public id for model-internal addressing; replies to the user must
// never repeat it.
func FormatEvents(events []*store.Event, now time.Time, loc *time.Location) string {
	if len(events) == 0 {
		return noEventsSentence
	}
	if loc == nil {
		loc = time.Local
	}

	sorted := make([]*store.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Before(sorted[j])
	})

	var past, upcoming []*store.Event
	for _, event := range sorted {
		if event.StartTime(loc).Before(now) {
			past = append(past, event)
		} else {
			upcoming = append(upcoming, event)
		}
	}

	// Most recent past, earliest upcoming.
	if len(past) > contextCap {
		past = past[len(past)-contextCap:]
	}
	if len(upcoming) > contextCap {
		upcoming = upcoming[:contextCap]
	}

	var sb strings.Builder
	if len(past) > 0 {
		sb.WriteString("Past events:\n")
		for _, event := range past {
			sb.WriteString(formatEventLine(event))
		}
	}
	if len(upcoming) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Upcoming events:\n")
		for _, event := range upcoming {
			sb.WriteString(formatEventLine(event))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatEventLine(event *store.Event) string {
	line := fmt.Sprintf("- ID: %s | %s on %s at %s", event.UID, event.Title, event.Date, event.Time)
	if event.Description != "" {
		line += fmt.Sprintf(" (%s)", event.Description)
	}
	return line + "\n"
}
