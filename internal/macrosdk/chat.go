package macrosdk

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/macropath/macropath/internal/gateway"
	"github.com/macropath/macropath/internal/state"
	"github.com/macropath/macropath/internal/utils"
)

const (
	chatSend    = "/chat/send"
	chatHistory = "/chat/history"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatSendRequest struct {
	Message string `json:"message"`
}

type ChatSendResponse struct {
	Reply ChatMessage `json:"reply"`
}

type ChatHistoryResponse struct {
	Messages []ChatMessage `json:"messages"`
}

type ChatAPI struct {
	c *caller
}

func newChatAPI(c *caller) *ChatAPI {
	return &ChatAPI{c: c}
}

// Send posts a message to the assistant and returns its reply.
func (c *ChatAPI) Send(ctx context.Context, message string) (*ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	resp, err := call[ChatSendResponse](ctx, c.c, state.AreaChat, "chat send", gateway.Post(chatSend, &ChatSendRequest{Message: message}))
	if err != nil {
		return nil, err
	}
	return &resp.Reply, nil
}

// History returns up to limit most recent messages, oldest first. limit <= 0
// returns everything the api keeps.
func (c *ChatAPI) History(ctx context.Context, limit int) ([]ChatMessage, error) {
	path := chatHistory
	if limit > 0 {
		path = utils.WithQuery(chatHistory, map[string]string{"limit": strconv.Itoa(limit)})
	}

	resp, err := call[ChatHistoryResponse](ctx, c.c, state.AreaChat, "chat history", gateway.Get(path))
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}
