// Package assistant implements the calendar assistant pipeline: it
// formats the user's events into model context, extracts structured
// commands from free-form model output, applies them against the event
// store, and orchestrates one chat round trip per send.
package assistant

import "encoding/json"

// CommandAction is the mutation requested by an extracted command.
type CommandAction string

const (
	ActionCreateEvent CommandAction = "create_event"
	ActionUpdateEvent CommandAction = "update_event"
	ActionDeleteEvent CommandAction = "delete_event"
)

// IsValid reports whether the action is one the dispatcher understands.
func (a CommandAction) IsValid() bool {
	switch a {
	case ActionCreateEvent, ActionUpdateEvent, ActionDeleteEvent:
		return true
	}
	return false
}

// CommandData is the partial event payload carried by a command. ID is
// the event's public UID; update and delete require it, create ignores
// it.
type CommandData struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Command is a transient action object embedded in assistant text. It
// is produced by the extractor, consumed by the dispatcher, and never
// persisted.
type Command struct {
	Action CommandAction `json:"action"`
	Data   CommandData   `json:"data"`
}

// parseCommand attempts to decode a candidate JSON object into a
// command. Returns false for malformed JSON or unrecognized actions.
func parseCommand(candidate string) (*Command, bool) {
	var cmd Command
	if err := json.Unmarshal([]byte(candidate), &cmd); err != nil {
		return nil, false
	}
	if !cmd.Action.IsValid() {
		return nil, false
	}
	return &cmd, true
}
