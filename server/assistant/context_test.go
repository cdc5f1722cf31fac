package assistant

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/cadence/store"
)

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("UTC")
	require.NoError(t, err)
	return loc
}

func TestFormatEventsEmpty(t *testing.T) {
	got := FormatEvents(nil, time.Now(), mustLoc(t))
	assert.Equal(t, "The user currently has no events scheduled.", got)
}

func TestFormatEventsPartitions(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, loc)

	events := []*store.Event{
		{UID: "past1", Title: "Retro", Date: "2025-05-30", Time: "16:00"},
		{UID: "up1", Title: "Lunch", Date: "2025-06-02", Time: "12:00", Description: "with Sam"},
		{UID: "same-day", Title: "Standup", Date: "2025-06-01", Time: "09:30"},
	}

	got := FormatEvents(events, now, loc)

	pastIdx := strings.Index(got, "Past events:")
	upcomingIdx := strings.Index(got, "Upcoming events:")
	require.GreaterOrEqual(t, pastIdx, 0)
	require.Greater(t, upcomingIdx, pastIdx)

	// 09:30 on the same day is already behind noon.
	past := got[:upcomingIdx]
	assert.Contains(t, past, "- ID: past1 | Retro on 2025-05-30 at 16:00")
	assert.Contains(t, past, "- ID: same-day | Standup on 2025-06-01 at 09:30")

	upcoming := got[upcomingIdx:]
	assert.Contains(t, upcoming, "- ID: up1 | Lunch on 2025-06-02 at 12:00 (with Sam)")
}

func TestFormatEventsCap(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, loc)

	var events []*store.Event
	// 150 past days and 150 upcoming days around now.
	for i := 1; i <= 150; i++ {
		events = append(events, &store.Event{
			UID:   fmt.Sprintf("past%d", i),
			Title: "Past",
			Date:  now.AddDate(0, 0, -i).Format(store.DateLayout),
			Time:  "10:00",
		})
		events = append(events, &store.Event{
			UID:   fmt.Sprintf("up%d", i),
			Title: "Upcoming",
			Date:  now.AddDate(0, 0, i).Format(store.DateLayout),
			Time:  "10:00",
		})
	}

	got := FormatEvents(events, now, loc)

	assert.Equal(t, 200, strings.Count(got, "- ID: "))

	// The nearest 100 on each side survive, the farthest 50 do not.
	assert.Contains(t, got, "- ID: past1 ")
	assert.Contains(t, got, "- ID: past100 ")
	assert.NotContains(t, got, "- ID: past101 ")
	assert.Contains(t, got, "- ID: up1 ")
	assert.Contains(t, got, "- ID: up100 ")
	assert.NotContains(t, got, "- ID: up101 ")
}

func TestFormatEventsOrdering(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, loc)

	events := []*store.Event{
		{UID: "b", Title: "Second", Date: "2025-06-03", Time: "09:00"},
		{UID: "a", Title: "First", Date: "2025-06-02", Time: "09:00"},
		{UID: "c", Title: "Third", Date: "2025-06-03", Time: "15:00"},
	}

	got := FormatEvents(events, now, loc)

	aIdx := strings.Index(got, "ID: a")
	bIdx := strings.Index(got, "ID: b")
	cIdx := strings.Index(got, "ID: c")
	assert.Less(t, aIdx, bIdx)
	assert.Less(t, bIdx, cIdx)
}

func TestBuildSystemPromptContainsContract(t *testing.T) {
	loc := mustLoc(t)
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, loc)

	got := BuildSystemPrompt(nil, now, loc)

	assert.Contains(t, got, "Sunday, June 1, 2025")
	assert.Contains(t, got, "08:30")
	assert.Contains(t, got, "The user currently has no events scheduled.")
	assert.Contains(t, got, `"create_event"`)
	assert.Contains(t, got, `"update_event"`)
	assert.Contains(t, got, `"delete_event"`)
}
