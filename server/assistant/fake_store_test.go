package assistant

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hrygo/cadence/store"
)

// fakeStore is an in-memory SessionStore for pipeline tests.
type fakeStore struct {
	mu sync.Mutex

	nextID        int32
	events        map[int32]*store.Event
	conversations map[int32]*store.Conversation
	messages      []*store.Message

	createEventCalls int
	updateEventCalls int
	deleteEventCalls int
	listEventCalls   int

	failCreateEvent bool
	failListEvents  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:        1,
		events:        make(map[int32]*store.Event),
		conversations: make(map[int32]*store.Conversation),
	}
}

func (f *fakeStore) id() int32 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) CreateEvent(_ context.Context, create *store.Event) (*store.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createEventCalls++
	if f.failCreateEvent {
		return nil, fmt.Errorf("store unavailable")
	}
	create.ID = f.id()
	create.RowStatus = store.Normal
	clone := *create
	f.events[create.ID] = &clone
	return create, nil
}

func (f *fakeStore) ListEvents(_ context.Context, find *store.FindEvent) ([]*store.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listEventCalls++
	if f.failListEvents {
		return nil, fmt.Errorf("store unavailable")
	}
	var list []*store.Event
	for _, event := range f.events {
		if find.CreatorID != nil && event.CreatorID != *find.CreatorID {
			continue
		}
		if find.UID != nil && event.UID != *find.UID {
			continue
		}
		clone := *event
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Before(list[j]) })
	return list, nil
}

func (f *fakeStore) GetEvent(ctx context.Context, find *store.FindEvent) (*store.Event, error) {
	list, err := f.ListEvents(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (f *fakeStore) UpdateEvent(_ context.Context, update *store.UpdateEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateEventCalls++
	event, ok := f.events[update.ID]
	if !ok {
		return fmt.Errorf("event not found")
	}
	if update.Title != nil {
		event.Title = *update.Title
	}
	if update.Date != nil {
		event.Date = *update.Date
	}
	if update.Time != nil {
		event.Time = *update.Time
	}
	if update.Description != nil {
		event.Description = *update.Description
	}
	if update.Color != nil {
		event.Color = *update.Color
	}
	return nil
}

func (f *fakeStore) DeleteEvent(_ context.Context, del *store.DeleteEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteEventCalls++
	if _, ok := f.events[del.ID]; !ok {
		return fmt.Errorf("event not found")
	}
	delete(f.events, del.ID)
	return nil
}

func (f *fakeStore) CreateConversation(_ context.Context, create *store.Conversation) (*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	create.ID = f.id()
	clone := *create
	f.conversations[create.ID] = &clone
	return create, nil
}

func (f *fakeStore) GetConversation(_ context.Context, find *store.FindConversation) (*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *store.Conversation
	for _, conversation := range f.conversations {
		if find.CreatorID != nil && conversation.CreatorID != *find.CreatorID {
			continue
		}
		if find.UID != nil && conversation.UID != *find.UID {
			continue
		}
		if find.ID != nil && conversation.ID != *find.ID {
			continue
		}
		if newest == nil || conversation.UpdatedTs > newest.UpdatedTs {
			newest = conversation
		}
	}
	if newest == nil {
		return nil, nil
	}
	clone := *newest
	return &clone, nil
}

func (f *fakeStore) UpdateConversation(_ context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation, ok := f.conversations[update.ID]
	if !ok {
		return nil, fmt.Errorf("conversation not found")
	}
	if update.Title != nil {
		conversation.Title = *update.Title
	}
	if update.UpdatedTs != nil {
		conversation.UpdatedTs = *update.UpdatedTs
	}
	clone := *conversation
	return &clone, nil
}

func (f *fakeStore) DeleteConversation(_ context.Context, del *store.DeleteConversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conversations[del.ID]; !ok {
		return fmt.Errorf("conversation not found")
	}
	delete(f.conversations, del.ID)
	kept := f.messages[:0]
	for _, msg := range f.messages {
		if msg.ConversationID != del.ID {
			kept = append(kept, msg)
		}
	}
	f.messages = kept
	return nil
}

func (f *fakeStore) CreateMessage(_ context.Context, create *store.Message) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	create.ID = f.id()
	clone := *create
	f.messages = append(f.messages, &clone)
	return create, nil
}

func (f *fakeStore) ListMessages(_ context.Context, find *store.FindMessage) ([]*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []*store.Message
	for _, msg := range f.messages {
		if find.ConversationID != nil && msg.ConversationID != *find.ConversationID {
			continue
		}
		clone := *msg
		list = append(list, &clone)
	}
	return list, nil
}
