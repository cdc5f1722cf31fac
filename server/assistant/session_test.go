package assistant

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/cadence/plugin/ai"
	apperrors "github.com/hrygo/cadence/server/internal/errors"
	"github.com/hrygo/cadence/store"
)

// fakeLLM returns scripted replies in order. A reply function may block
// to simulate a slow model.
type fakeLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
	block   chan struct{}
	// captured request of the last call
	lastMessages []ai.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.lastMessages = messages
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if call <= len(f.replies) {
		return f.replies[call-1], nil
	}
	return "ok", nil
}

func newTestSession(t *testing.T, llm ai.LLMService) (*Session, *fakeStore, *store.Conversation) {
	t.Helper()
	f := newFakeStore()
	s := NewSession(f, llm, time.UTC)
	conversation, messages, err := s.InitConversation(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, store.MessageRoleAssistant, messages[0].Role)
	return s, f, conversation
}

func TestSendPlainReply(t *testing.T) {
	llm := &fakeLLM{replies: []string{"You have nothing scheduled tomorrow."}}
	s, f, conversation := newTestSession(t, llm)

	result, err := s.Send(context.Background(), 7, conversation.UID, "what's on tomorrow?")
	require.NoError(t, err)

	assert.Equal(t, "what's on tomorrow?", result.UserMessage.Content)
	assert.Equal(t, "You have nothing scheduled tomorrow.", result.Reply.Content)
	assert.Zero(t, result.CommandsApplied)
	assert.Nil(t, result.Events)
	assert.False(t, result.Degraded)

	messages, err := f.ListMessages(context.Background(), &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	// welcome + user + assistant
	require.Len(t, messages, 3)
	assert.Equal(t, store.MessageRoleUser, messages[1].Role)
	assert.Equal(t, store.MessageRoleAssistant, messages[2].Role)
}

func TestSendEndToEndCreate(t *testing.T) {
	llm := &fakeLLM{replies: []string{
		`I've scheduled it! {"action":"create_event","data":{"title":"Lunch with Sam","date":"2025-06-02","time":"12:00"}}`,
	}}
	s, f, conversation := newTestSession(t, llm)

	result, err := s.Send(context.Background(), 7, conversation.UID, "Schedule lunch with Sam tomorrow at noon")
	require.NoError(t, err)

	assert.Equal(t, 1, result.CommandsApplied)
	assert.Equal(t, 1, f.createEventCalls)

	// Only the confirmation prose is persisted, never the JSON.
	assert.Equal(t, "I've scheduled it!", result.Reply.Content)

	// The reconciled event list rides along with the reply.
	require.Len(t, result.Events, 1)
	assert.Equal(t, "Lunch with Sam", result.Events[0].Title)
	assert.Equal(t, "2025-06-02", result.Events[0].Date)
	assert.Equal(t, "12:00", result.Events[0].Time)
}

func TestSendCommandOnlyReplyGetsConfirmation(t *testing.T) {
	llm := &fakeLLM{replies: []string{
		`{"action":"create_event","data":{"title":"Standup","date":"2025-06-03","time":"09:30"}}`,
	}}
	s, _, conversation := newTestSession(t, llm)

	result, err := s.Send(context.Background(), 7, conversation.UID, "add standup")
	require.NoError(t, err)

	assert.Equal(t, 1, result.CommandsApplied)
	assert.Equal(t, defaultConfirmation, result.Reply.Content)
}

func TestSendEmptyRejected(t *testing.T) {
	s, f, conversation := newTestSession(t, &fakeLLM{})

	_, err := s.Send(context.Background(), 7, conversation.UID, "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))

	messages, err := f.ListMessages(context.Background(), &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, messages, 1, "no user message may be appended")
}

func TestSendModelFailureDegrades(t *testing.T) {
	llm := &fakeLLM{err: fmt.Errorf("upstream down")}
	s, f, conversation := newTestSession(t, llm)

	result, err := s.Send(context.Background(), 7, conversation.UID, "hello?")
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, apologyMessage, result.Reply.Content)

	// The user's message still landed before the model failed.
	messages, err := f.ListMessages(context.Background(), &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "hello?", messages[1].Content)
}

func TestSendConcurrentRejected(t *testing.T) {
	llm := &fakeLLM{block: make(chan struct{}), replies: []string{"slow answer"}}
	s, f, conversation := newTestSession(t, llm)

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), 7, conversation.UID, "first")
		done <- err
	}()

	// Wait for the first send to reach the model call.
	require.Eventually(t, func() bool {
		llm.mu.Lock()
		defer llm.mu.Unlock()
		return llm.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := s.Send(context.Background(), 7, conversation.UID, "second")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSessionBusy))

	close(llm.block)
	require.NoError(t, <-done)

	// Exactly one user message and one model call happened for "first";
	// "second" left no trace.
	assert.Equal(t, 1, llm.calls)
	messages, err := f.ListMessages(context.Background(), &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[1].Content)
}

func TestSendContextIncludesEvents(t *testing.T) {
	llm := &fakeLLM{replies: []string{"you have a standup"}}
	s, f, conversation := newTestSession(t, llm)
	seedEvent(t, f, 7, "ev1", "Standup", "2125-06-03", "09:30")

	_, err := s.Send(context.Background(), 7, conversation.UID, "what's next?")
	require.NoError(t, err)

	require.NotEmpty(t, llm.lastMessages)
	system := llm.lastMessages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "- ID: ev1 | Standup on 2125-06-03 at 09:30")
}

func TestSendUnknownConversation(t *testing.T) {
	s, _, _ := newTestSession(t, &fakeLLM{})

	_, err := s.Send(context.Background(), 7, "missing", "hello")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotFound))
}

func TestInitConversationResumes(t *testing.T) {
	s, _, conversation := newTestSession(t, &fakeLLM{replies: []string{"noted"}})

	_, err := s.Send(context.Background(), 7, conversation.UID, "remember this")
	require.NoError(t, err)

	resumed, messages, err := s.InitConversation(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, conversation.ID, resumed.ID)
	require.Len(t, messages, 3)
}

func TestClearStartsFresh(t *testing.T) {
	llm := &fakeLLM{replies: []string{"noted"}}
	s, f, conversation := newTestSession(t, llm)

	_, err := s.Send(context.Background(), 7, conversation.UID, "some history")
	require.NoError(t, err)

	fresh, messages, err := s.Clear(context.Background(), 7, conversation.UID)
	require.NoError(t, err)
	assert.NotEqual(t, conversation.ID, fresh.ID)
	require.Len(t, messages, 1)
	assert.Equal(t, welcomeMessage, messages[0].Content)

	// The old conversation's messages are gone.
	old, err := f.ListMessages(context.Background(), &store.FindMessage{ConversationID: &conversation.ID})
	require.NoError(t, err)
	assert.Empty(t, old)
}
