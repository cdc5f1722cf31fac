package assistant

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/cadence/plugin/ai"
	apperrors "github.com/hrygo/cadence/server/internal/errors"
	"github.com/hrygo/cadence/server/internal/observability"
	"github.com/hrygo/cadence/store"
)

const (
	conversationTitle = "Assistant"

	welcomeMessage = "Hi! I'm your Cadence assistant. I can schedule, reschedule, and cancel events for you, or answer questions about your calendar. What would you like to do?"

	apologyMessage = "Sorry, I ran into a problem handling that. Please try again."

	// Used when commands were applied but the model sent no prose
	// alongside them.
	defaultConfirmation = "Done! I've updated your calendar."
)

// SessionStore is the persistence surface the session layer needs.
// *store.Store satisfies it.
type SessionStore interface {
	EventStore

	CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error)
	GetConversation(ctx context.Context, find *store.FindConversation) (*store.Conversation, error)
	UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error)
	DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error
	CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error)
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
}

// Session orchestrates assistant round trips. One send may be in
// flight per user at a time; a second send while busy is rejected, not
// queued.
type Session struct {
	store      SessionStore
	llm        ai.LLMService
	dispatcher *Dispatcher
	loc        *time.Location

	mu   sync.Mutex
	busy map[int32]bool
}

// NewSession creates the session orchestrator.
func NewSession(sessionStore SessionStore, llm ai.LLMService, loc *time.Location) *Session {
	if loc == nil {
		loc = time.Local
	}
	return &Session{
		store:      sessionStore,
		llm:        llm,
		dispatcher: NewDispatcher(sessionStore),
		loc:        loc,
		busy:       make(map[int32]bool),
	}
}

// SendResult is the outcome of one completed round trip.
type SendResult struct {
	UserMessage *store.Message
	Reply       *store.Message
	// CommandsApplied counts store mutations performed by this send.
	CommandsApplied int
	// Events is the reconciled event list after dispatch, nil when no
	// commands ran.
	Events []*store.Event
	// Degraded is set when the model call failed and Reply holds the
	// canned apology instead of a real answer.
	Degraded bool
}

// InitConversation resumes the user's most recent conversation, or
// creates a fresh one seeded with the welcome message.
func (s *Session) InitConversation(ctx context.Context, userID int32) (*store.Conversation, []*store.Message, error) {
	conversation, err := s.store.GetConversation(ctx, &store.FindConversation{CreatorID: &userID})
	if err != nil {
		return nil, nil, apperrors.StoreError("failed to load conversation", err)
	}
	if conversation == nil {
		return s.createFreshConversation(ctx, userID)
	}

	messages, err := s.store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	if err != nil {
		return nil, nil, apperrors.StoreError("failed to load messages", err)
	}
	return conversation, messages, nil
}

// Send runs one round trip: persist the user's message, call the model
// with history and event context, extract and dispatch any commands,
// await the reconciliation fetch, then persist the reply.
func (s *Session) Send(ctx context.Context, userID int32, conversationUID string, content string) (*SendResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.InvalidArgument("message must not be empty")
	}

	if !s.acquire(userID) {
		return nil, apperrors.SessionBusy()
	}
	defer s.release(userID)

	conversation, err := s.store.GetConversation(ctx, &store.FindConversation{UID: &conversationUID, CreatorID: &userID})
	if err != nil {
		return nil, apperrors.StoreError("failed to load conversation", err)
	}
	if conversation == nil {
		return nil, apperrors.NotFound("conversation not found")
	}

	rc := observability.NewRequestContext(slog.Default(), "assistant", userID)

	// History is loaded before the new message is persisted; the new
	// message rides as the final user turn of the model request.
	history, err := s.store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	if err != nil {
		return nil, apperrors.StoreError("failed to load messages", err)
	}

	// The user's message lands regardless of what the model does next.
	userMessage, err := s.appendMessage(ctx, conversation.ID, store.MessageRoleUser, content)
	if err != nil {
		return nil, apperrors.StoreError("failed to save message", err)
	}
	result := &SendResult{UserMessage: userMessage}

	events, err := s.store.ListEvents(ctx, &store.FindEvent{CreatorID: &userID})
	if err != nil {
		rc.Warn("event context unavailable, continuing without it", slog.String("error", err.Error()))
		events = nil
	}

	now := time.Now()
	prompt := BuildSystemPrompt(events, now, s.loc)
	raw, err := s.llm.Chat(ctx, ai.FormatMessages(prompt, content, toModelHistory(history)))
	if err != nil {
		rc.Error("model call failed", err)
		return s.degrade(ctx, conversation, result)
	}

	extracted := Extract(raw)
	reply := extracted.Message
	if extracted.HasCommand {
		result.CommandsApplied = s.dispatcher.Dispatch(ctx, userID, extracted.Commands)

		// Reconciliation is awaited, not raced: the reply is only
		// persisted once the authoritative event list has been
		// re-fetched, so clients render explanation and fresh state
		// together.
		fresh, err := s.store.ListEvents(ctx, &store.FindEvent{CreatorID: &userID})
		if err != nil {
			rc.Warn("reconciliation fetch failed", slog.String("error", err.Error()))
		} else {
			result.Events = fresh
		}

		if reply == "" {
			reply = defaultConfirmation
		}
	}

	replyMessage, err := s.appendMessage(ctx, conversation.ID, store.MessageRoleAssistant, reply)
	if err != nil {
		rc.Error("failed to save reply", err)
		return result, apperrors.StoreError("failed to save reply", err)
	}
	result.Reply = replyMessage

	s.touchConversation(ctx, conversation.ID)
	rc.Info("round trip complete",
		slog.String(observability.LogFieldConversation, conversation.UID),
		slog.Int("commands", result.CommandsApplied),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return result, nil
}

// Clear deletes the conversation, cascading its messages, and starts a
// fresh one seeded with the welcome message.
func (s *Session) Clear(ctx context.Context, userID int32, conversationUID string) (*store.Conversation, []*store.Message, error) {
	conversation, err := s.store.GetConversation(ctx, &store.FindConversation{UID: &conversationUID, CreatorID: &userID})
	if err != nil {
		return nil, nil, apperrors.StoreError("failed to load conversation", err)
	}
	if conversation == nil {
		return nil, nil, apperrors.NotFound("conversation not found")
	}

	if err := s.store.DeleteConversation(ctx, &store.DeleteConversation{ID: conversation.ID}); err != nil {
		return nil, nil, apperrors.StoreError("failed to delete conversation", err)
	}
	return s.createFreshConversation(ctx, userID)
}

func (s *Session) createFreshConversation(ctx context.Context, userID int32) (*store.Conversation, []*store.Message, error) {
	now := time.Now().Unix()
	conversation, err := s.store.CreateConversation(ctx, &store.Conversation{
		UID:       shortuuid.New(),
		CreatorID: userID,
		Title:     conversationTitle,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return nil, nil, apperrors.StoreError("failed to create conversation", err)
	}

	welcome, err := s.appendMessage(ctx, conversation.ID, store.MessageRoleAssistant, welcomeMessage)
	if err != nil {
		return nil, nil, apperrors.StoreError("failed to seed conversation", err)
	}
	return conversation, []*store.Message{welcome}, nil
}

// degrade persists the canned apology so the conversation record stays
// coherent even when the model is down.
func (s *Session) degrade(ctx context.Context, conversation *store.Conversation, result *SendResult) (*SendResult, error) {
	apology, err := s.appendMessage(ctx, conversation.ID, store.MessageRoleAssistant, apologyMessage)
	if err != nil {
		return result, apperrors.StoreError("failed to save reply", err)
	}
	result.Reply = apology
	result.Degraded = true
	s.touchConversation(ctx, conversation.ID)
	return result, nil
}

func (s *Session) appendMessage(ctx context.Context, conversationID int32, role store.MessageRole, content string) (*store.Message, error) {
	return s.store.CreateMessage(ctx, &store.Message{
		UID:            shortuuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedTs:      time.Now().Unix(),
	})
}

func (s *Session) touchConversation(ctx context.Context, conversationID int32) {
	now := time.Now().Unix()
	if _, err := s.store.UpdateConversation(ctx, &store.UpdateConversation{ID: conversationID, UpdatedTs: &now}); err != nil {
		slog.Warn("failed to touch conversation", "conversation_id", conversationID, "error", err)
	}
}

func (s *Session) acquire(userID int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[userID] {
		return false
	}
	s.busy[userID] = true
	return true
}

func (s *Session) release(userID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, userID)
}

func toModelHistory(messages []*store.Message) []ai.Message {
	history := make([]ai.Message, 0, len(messages))
	for _, msg := range messages {
		history = append(history, ai.Message{Role: string(msg.Role), Content: msg.Content})
	}
	return history
}
