package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/cadence/server/assistant"
	apperrors "github.com/hrygo/cadence/server/internal/errors"
	"github.com/hrygo/cadence/store"
)

type conversationResponse struct {
	UID       string `json:"uid"`
	Title     string `json:"title"`
	CreatedTs int64  `json:"createdTs"`
	UpdatedTs int64  `json:"updatedTs"`
}

type messageResponse struct {
	UID       string `json:"uid"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	HTML      string `json:"html,omitempty"`
	CreatedTs int64  `json:"createdTs"`
}

type chatRequest struct {
	Content string `json:"content"`
}

type chatResponse struct {
	UserMessage     *messageResponse `json:"userMessage"`
	Reply           *messageResponse `json:"reply"`
	CommandsApplied int              `json:"commandsApplied"`
	Events          []*eventResponse `json:"events,omitempty"`
	Degraded        bool             `json:"degraded,omitempty"`
}

func convertConversation(conversation *store.Conversation) *conversationResponse {
	return &conversationResponse{
		UID:       conversation.UID,
		Title:     conversation.Title,
		CreatedTs: conversation.CreatedTs,
		UpdatedTs: conversation.UpdatedTs,
	}
}

// convertMessage renders assistant markdown to HTML alongside the raw
// content. User messages pass through as written.
func (s *APIV1Service) convertMessage(msg *store.Message) *messageResponse {
	resp := &messageResponse{
		UID:       msg.UID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedTs: msg.CreatedTs,
	}
	if msg.Role == store.MessageRoleAssistant {
		if html, err := s.markdown.Render(msg.Content); err == nil {
			resp.HTML = html
		}
	}
	return resp
}

func (s *APIV1Service) convertMessageList(messages []*store.Message) []*messageResponse {
	list := make([]*messageResponse, 0, len(messages))
	for _, msg := range messages {
		list = append(list, s.convertMessage(msg))
	}
	return list
}

// requireAssistant guards the chat routes when the assistant is
// disabled by configuration.
func (s *APIV1Service) requireAssistant() *echo.HTTPError {
	if s.session == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "the assistant is not enabled on this instance")
	}
	return nil
}

// ListConversations lists the user's conversations, most recent first.
func (s *APIV1Service) ListConversations(c echo.Context) error {
	user := currentUser(c)
	conversations, err := s.Store.ListConversations(c.Request().Context(), &store.FindConversation{CreatorID: &user.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations")
	}

	list := make([]*conversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		list = append(list, convertConversation(conversation))
	}
	return c.JSON(http.StatusOK, list)
}

type initConversationResponse struct {
	Conversation *conversationResponse `json:"conversation"`
	Messages     []*messageResponse    `json:"messages"`
}

// InitConversation resumes the user's conversation or creates a fresh
// one seeded with the welcome message.
func (s *APIV1Service) InitConversation(c echo.Context) error {
	if httpErr := s.requireAssistant(); httpErr != nil {
		return httpErr
	}

	user := currentUser(c)
	conversation, messages, err := s.session.InitConversation(c.Request().Context(), user.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, &initConversationResponse{
		Conversation: convertConversation(conversation),
		Messages:     s.convertMessageList(messages),
	})
}

// ClearConversation deletes the conversation (cascading its messages)
// and returns the fresh replacement.
func (s *APIV1Service) ClearConversation(c echo.Context) error {
	if httpErr := s.requireAssistant(); httpErr != nil {
		return httpErr
	}

	user := currentUser(c)
	conversation, messages, err := s.session.Clear(c.Request().Context(), user.ID, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, &initConversationResponse{
		Conversation: convertConversation(conversation),
		Messages:     s.convertMessageList(messages),
	})
}

// ListMessages returns a conversation's messages, oldest first.
func (s *APIV1Service) ListMessages(c echo.Context) error {
	user := currentUser(c)
	uid := c.Param("uid")

	ctx := c.Request().Context()
	conversation, err := s.Store.GetConversation(ctx, &store.FindConversation{UID: &uid, CreatorID: &user.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load conversation")
	}
	if conversation == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}

	messages, err := s.Store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list messages")
	}
	return c.JSON(http.StatusOK, s.convertMessageList(messages))
}

// Chat runs one assistant round trip. Rate limited per user; total
// in-flight model calls are bounded by the semaphore.
func (s *APIV1Service) Chat(c echo.Context) error {
	if httpErr := s.requireAssistant(); httpErr != nil {
		return httpErr
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	user := currentUser(c)
	if !s.limiter.Allow(user.UID) {
		return toHTTPError(apperrors.RateLimited())
	}

	ctx := c.Request().Context()
	if err := s.chatSem.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "the assistant is overloaded, try again shortly")
	}
	defer s.chatSem.Release(1)

	result, err := s.session.Send(ctx, user.ID, c.Param("uid"), req.Content)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, s.convertChatResult(result))
}

func (s *APIV1Service) convertChatResult(result *assistant.SendResult) *chatResponse {
	resp := &chatResponse{
		UserMessage:     s.convertMessage(result.UserMessage),
		Reply:           s.convertMessage(result.Reply),
		CommandsApplied: result.CommandsApplied,
		Degraded:        result.Degraded,
	}
	if result.Events != nil {
		resp.Events = convertEventList(result.Events)
	}
	return resp
}
