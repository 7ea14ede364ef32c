package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/content"
	"github.com/policy-whisperer/backend/pkg/logger"
)

type ContentHandler struct {
	acquirer *content.Acquirer
}

func NewContentHandler(acquirer *content.Acquirer) *ContentHandler {
	return &ContentHandler{acquirer: acquirer}
}

// FetchURLContent handles POST /fetch-url-content.
func (h *ContentHandler) FetchURLContent(c *fiber.Ctx) error {
	var req struct {
		URL string `json:"url"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "URL is required",
		})
	}

	text, err := h.acquirer.FromURL(c.Context(), req.URL)
	if err != nil {
		var fetchErr *content.FetchError
		switch {
		case errors.As(err, &fetchErr):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": fetchErr.Error()})
		case errors.Is(err, content.ErrContentTooShort):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "The URL did not yield enough readable content",
			})
		default:
			logger.Error("Failed to fetch URL content", zap.String("url", req.URL), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch URL content",
			})
		}
	}

	return c.JSON(fiber.Map{"content": text})
}
