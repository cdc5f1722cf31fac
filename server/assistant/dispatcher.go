package assistant

import (
	"context"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/cadence/store"
)

// EventStore is the narrow event CRUD surface the dispatcher needs.
// *store.Store satisfies it.
type EventStore interface {
	CreateEvent(ctx context.Context, create *store.Event) (*store.Event, error)
	ListEvents(ctx context.Context, find *store.FindEvent) ([]*store.Event, error)
	GetEvent(ctx context.Context, find *store.FindEvent) (*store.Event, error)
	UpdateEvent(ctx context.Context, update *store.UpdateEvent) error
	DeleteEvent(ctx context.Context, delete *store.DeleteEvent) error
}

// Dispatcher applies extracted commands against the event store,
// strictly in extraction order, with per-command failure isolation.
type Dispatcher struct {
	store EventStore
}

// NewDispatcher creates a command dispatcher.
func NewDispatcher(eventStore EventStore) *Dispatcher {
	return &Dispatcher{store: eventStore}
}

// Dispatch attempts every command in order on behalf of userID and
// returns the number applied. A command that is malformed, references
// an unknown event, or fails at the store is logged and skipped;
// later commands still run. Commands referencing an id created earlier
// in the same batch cannot be satisfied, the model must already know
// the id.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int32, commands []*Command) int {
	applied := 0
	for i, cmd := range commands {
		if !cmd.Action.IsValid() {
			// Forward compatibility with model output: ignore, don't fail.
			slog.Warn("unknown command action ignored", "action", cmd.Action, "user_id", userID)
			continue
		}
		if err := d.dispatchOne(ctx, userID, cmd); err != nil {
			slog.Warn("command skipped",
				"index", i,
				"action", cmd.Action,
				"user_id", userID,
				"error", err)
			continue
		}
		applied++
	}
	return applied
}

func (d *Dispatcher) dispatchOne(ctx context.Context, userID int32, cmd *Command) error {
	switch cmd.Action {
	case ActionCreateEvent:
		return d.createEvent(ctx, userID, cmd.Data)
	case ActionUpdateEvent:
		return d.updateEvent(ctx, userID, cmd.Data)
	case ActionDeleteEvent:
		return d.deleteEvent(ctx, userID, cmd.Data)
	default:
		return nil
	}
}

func (d *Dispatcher) createEvent(ctx context.Context, userID int32, data CommandData) error {
	if data.Title == "" || data.Date == "" {
		return errMissingField("create_event", "title/date")
	}
	if _, err := time.Parse(store.DateLayout, data.Date); err != nil {
		return errMissingField("create_event", "date")
	}
	_, err := d.store.CreateEvent(ctx, &store.Event{
		UID:         shortuuid.New(),
		CreatorID:   userID,
		Title:       data.Title,
		Date:        data.Date,
		Time:        data.Time,
		Description: data.Description,
		Color:       data.Color,
	})
	return err
}

func (d *Dispatcher) updateEvent(ctx context.Context, userID int32, data CommandData) error {
	event, err := d.findOwned(ctx, userID, data.ID)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	update := &store.UpdateEvent{ID: event.ID, UpdatedTs: &now}
	if data.Title != "" {
		update.Title = &data.Title
	}
	if data.Date != "" {
		update.Date = &data.Date
	}
	if data.Time != "" {
		update.Time = &data.Time
	}
	if data.Description != "" {
		update.Description = &data.Description
	}
	if data.Color != "" {
		update.Color = &data.Color
	}
	return d.store.UpdateEvent(ctx, update)
}

func (d *Dispatcher) deleteEvent(ctx context.Context, userID int32, data CommandData) error {
	event, err := d.findOwned(ctx, userID, data.ID)
	if err != nil {
		return err
	}
	return d.store.DeleteEvent(ctx, &store.DeleteEvent{ID: event.ID})
}

// findOwned resolves a command's public id to the user's event. Missing
// or unknown ids make the command a no-op.
func (d *Dispatcher) findOwned(ctx context.Context, userID int32, uid string) (*store.Event, error) {
	if uid == "" {
		return nil, errMissingField("command", "id")
	}
	event, err := d.store.GetEvent(ctx, &store.FindEvent{UID: &uid, CreatorID: &userID})
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, errEventNotFound(uid)
	}
	return event, nil
}

type dispatchError string

func (e dispatchError) Error() string { return string(e) }

func errMissingField(action, field string) error {
	return dispatchError(action + " missing " + field)
}

func errEventNotFound(uid string) error {
	return dispatchError("event not found: " + uid)
}
