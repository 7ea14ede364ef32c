package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/impact"
	"github.com/policy-whisperer/backend/internal/storage/models"
	"github.com/policy-whisperer/backend/internal/storage/sqlite"
	"github.com/policy-whisperer/backend/pkg/logger"
)

type LegislationHandler struct {
	store *sqlite.Client
}

func NewLegislationHandler(store *sqlite.Client) *LegislationHandler {
	return &LegislationHandler{store: store}
}

// CreateLegislation handles POST /legislation, the manual entry form.
func (h *LegislationHandler) CreateLegislation(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Level       string `json:"level"`
		State       string `json:"state"`
		SourceURL   string `json:"sourceUrl"`
		Content     string `json:"content"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Title == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: title and content are required",
		})
	}

	level := models.LegislationLevel(req.Level)
	switch level {
	case models.LevelFederal:
	case models.LevelState:
		if _, ok := impact.ResolveStateCode(req.State); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "State-level legislation requires a recognized state name",
			})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "level must be federal or state",
		})
	}

	leg := &models.Legislation{
		Title:       req.Title,
		Description: req.Description,
		Level:       level,
		State:       req.State,
		SourceURL:   req.SourceURL,
		Content:     req.Content,
	}

	if err := h.store.CreateLegislation(leg); err != nil {
		logger.Error("Failed to create legislation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create legislation",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"legislation": leg})
}

// ListLegislation handles GET /legislation.
func (h *LegislationHandler) ListLegislation(c *fiber.Ctx) error {
	records, err := h.store.ListLegislation()
	if err != nil {
		logger.Error("Failed to list legislation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list legislation",
		})
	}

	if records == nil {
		records = []models.Legislation{}
	}

	return c.JSON(fiber.Map{"legislation": records})
}

// GetLegislation handles GET /legislation/:id.
func (h *LegislationHandler) GetLegislation(c *fiber.Ctx) error {
	leg, err := h.store.GetLegislation(c.Params("id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Legislation not found",
			})
		}
		logger.Error("Failed to get legislation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get legislation",
		})
	}

	return c.JSON(fiber.Map{"legislation": leg})
}

// GetImpacts handles GET /legislation/:id/impacts, the map page data source.
func (h *LegislationHandler) GetImpacts(c *fiber.Ctx) error {
	legislationID := c.Params("id")

	if _, err := h.store.GetLegislation(legislationID); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Legislation not found",
			})
		}
		logger.Error("Failed to get legislation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get legislation",
		})
	}

	impacts, err := h.store.ListImpacts(legislationID)
	if err != nil {
		logger.Error("Failed to list impacts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list impacts",
		})
	}

	if impacts == nil {
		impacts = []models.LegislationImpact{}
	}

	return c.JSON(fiber.Map{"impacts": impacts})
}
