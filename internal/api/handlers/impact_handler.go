package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/impact"
	"github.com/policy-whisperer/backend/internal/storage/sqlite"
	"github.com/policy-whisperer/backend/pkg/logger"
)

type ImpactHandler struct {
	service *impact.Service
}

func NewImpactHandler(service *impact.Service) *ImpactHandler {
	return &ImpactHandler{service: service}
}

// AnalyzeImpact handles POST /analyze-legislation-impact.
func (h *ImpactHandler) AnalyzeImpact(c *fiber.Ctx) error {
	var req struct {
		LegislationID string `json:"legislationId"`
		StateCode     string `json:"stateCode"`
		StoreResults  *bool  `json:"storeResults"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.LegislationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required field: legislationId",
		})
	}

	if req.StateCode != "" && !impact.IsValidStateCode(req.StateCode) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown state code",
		})
	}

	storeResults := true
	if req.StoreResults != nil {
		storeResults = *req.StoreResults
	}

	results, err := h.service.Analyze(c.Context(), req.LegislationID, req.StateCode, storeResults)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Legislation not found",
			})
		}
		logger.Error("Failed to analyze legislation impact", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to analyze legislation impact",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"results": results,
	})
}
