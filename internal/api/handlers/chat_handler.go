package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/chat"
	"github.com/policy-whisperer/backend/internal/storage/sqlite"
	"github.com/policy-whisperer/backend/pkg/logger"
)

type ChatHandler struct {
	service *chat.Service
}

func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	PolicyContent  string `json:"policyContent"`
	ConversationID string `json:"conversationId"`
	FormatAsHTML   *bool  `json:"formatAsHtml"`
}

// GenerateResponse handles POST /generate-ai-response.
func (h *ChatHandler) GenerateResponse(c *fiber.Ctx) error {
	var req generateRequest

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required field: prompt",
		})
	}

	// HTML formatting is on unless explicitly disabled.
	formatAsHTML := true
	if req.FormatAsHTML != nil {
		formatAsHTML = *req.FormatAsHTML
	}

	resp, err := h.service.Respond(c.Context(), chat.Request{
		Prompt:         req.Prompt,
		PolicyContent:  req.PolicyContent,
		ConversationID: req.ConversationID,
		FormatAsHTML:   formatAsHTML,
	})
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Conversation not found",
			})
		}
		logger.Error("Failed to generate AI response", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate AI response",
		})
	}

	return c.JSON(fiber.Map{
		"response":       resp.Reply,
		"conversationId": resp.ConversationID,
	})
}
