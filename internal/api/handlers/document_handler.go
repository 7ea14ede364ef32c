package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/content"
	"github.com/policy-whisperer/backend/internal/ingestion"
	"github.com/policy-whisperer/backend/internal/storage/models"
	"github.com/policy-whisperer/backend/internal/storage/sqlite"
	"github.com/policy-whisperer/backend/pkg/logger"
)

type DocumentHandler struct {
	processor *ingestion.Processor
	acquirer  *content.Acquirer
	store     *sqlite.Client
}

func NewDocumentHandler(processor *ingestion.Processor, acquirer *content.Acquirer, store *sqlite.Client) *DocumentHandler {
	return &DocumentHandler{
		processor: processor,
		acquirer:  acquirer,
		store:     store,
	}
}

// ProcessDocument handles POST /process-policy-document.
func (h *DocumentHandler) ProcessDocument(c *fiber.Ctx) error {
	var req struct {
		Content         string `json:"content"`
		Title           string `json:"title"`
		SourceType      string `json:"sourceType"`
		SourceReference string `json:"sourceReference"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Content == "" || req.SourceType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: content and sourceType are required",
		})
	}

	sourceType := models.SourceType(req.SourceType)
	switch sourceType {
	case models.SourceURL, models.SourceFile, models.SourceText:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sourceType must be one of url, file, text",
		})
	}

	var text string
	var err error
	if sourceType == models.SourceFile {
		text, err = h.acquirer.FromFile(req.SourceReference, "", []byte(req.Content))
	} else {
		text, err = h.acquirer.FromText(req.Content)
	}
	if err != nil {
		if errors.Is(err, content.ErrUnsupportedFileType) || errors.Is(err, content.ErrEmptyInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logger.Error("Failed to prepare document content", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process document content",
		})
	}

	result, err := h.processor.ProcessDocument(c.Context(), req.Title, text, sourceType, req.SourceReference)
	if err != nil {
		logger.Error("Failed to process policy document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process policy document",
		})
	}

	return c.JSON(fiber.Map{
		"document":     result.Document,
		"conversation": result.Conversation,
		"summary":      result.Summary,
	})
}

// GetDocument handles GET /policy-documents/:id.
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	doc, err := h.store.GetDocument(c.Params("id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Policy document not found",
			})
		}
		logger.Error("Failed to get policy document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get policy document",
		})
	}

	return c.JSON(fiber.Map{"document": doc})
}

// GetConversationMessages handles GET /conversations/:id/messages.
func (h *DocumentHandler) GetConversationMessages(c *fiber.Ctx) error {
	conversationID := c.Params("id")

	if _, err := h.store.GetConversation(conversationID); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Conversation not found",
			})
		}
		logger.Error("Failed to get conversation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get conversation",
		})
	}

	limit := c.QueryInt("limit", 50)
	messages, err := h.store.ListRecentMessages(conversationID, limit)
	if err != nil {
		logger.Error("Failed to list messages", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list messages",
		})
	}

	if messages == nil {
		messages = []models.Message{}
	}

	return c.JSON(fiber.Map{"messages": messages})
}
