package store

import "context"

// Conversation is the object representing an assistant conversation.
type Conversation struct {
	ID        int32
	UID       string
	CreatorID int32
	Title     string
	CreatedTs int64
	UpdatedTs int64
}

// FindConversation is the find condition for conversation.
type FindConversation struct {
	ID        *int32
	UID       *string
	CreatorID *int32
}

// UpdateConversation is the update request for conversation.
type UpdateConversation struct {
	ID        int32
	Title     *string
	UpdatedTs *int64
}

// DeleteConversation is the delete request for conversation.
// Deleting a conversation cascades its messages.
type DeleteConversation struct {
	ID int32
}

// MessageRole is the author role of a chat message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is a single chat message. Messages are append-only within a
// conversation and never mutated.
type Message struct {
	ID             int32
	UID            string
	ConversationID int32
	Role           MessageRole
	Content        string
	CreatedTs      int64
}

// FindMessage is the find condition for message.
type FindMessage struct {
	ID             *int32
	UID            *string
	ConversationID *int32
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

// ListConversations lists conversations ordered by updated_ts descending.
func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the first conversation matching the find
// condition, or nil.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	return s.driver.UpdateConversation(ctx, update)
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

// ListMessages lists messages ordered by created_ts ascending.
func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}
