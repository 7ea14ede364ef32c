package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/chat"
	"github.com/policy-whisperer/backend/pkg/logger"
)

// WebSocketHandler streams chat replies word by word so the UI can render
// them progressively.
type WebSocketHandler struct {
	service *chat.Service
}

func NewWebSocketHandler(service *chat.Service) *WebSocketHandler {
	return &WebSocketHandler{service: service}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type           string `json:"type"`
			Prompt         string `json:"prompt"`
			ConversationID string `json:"conversationId"`
			FormatAsHTML   bool   `json:"formatAsHtml"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "chat" || msg.Prompt == "" {
			continue
		}

		err = h.streamReply(c, msg.Prompt, msg.ConversationID, msg.FormatAsHTML)
		if err != nil {
			logger.Error("Failed to stream chat reply", zap.Error(err))
			h.sendError(c, "Failed to generate response")
		}
	}
}

func (h *WebSocketHandler) streamReply(c *websocket.Conn, prompt, conversationID string, formatAsHTML bool) error {
	resp, err := h.service.Respond(context.Background(), chat.Request{
		Prompt:         prompt,
		ConversationID: conversationID,
		FormatAsHTML:   formatAsHTML,
	})
	if err != nil {
		return err
	}

	words := strings.Fields(resp.Reply)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}

		if err := h.sendChunk(c, "chunk", chunk); err != nil {
			return err
		}
	}

	return c.WriteJSON(map[string]interface{}{
		"type":           "complete",
		"response":       resp.Reply,
		"conversationId": resp.ConversationID,
	})
}

func (h *WebSocketHandler) sendChunk(c *websocket.Conn, msgType, content string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"content": content,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
