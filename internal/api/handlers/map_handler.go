package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type MapHandler struct {
	publicToken string
}

func NewMapHandler(publicToken string) *MapHandler {
	return &MapHandler{publicToken: publicToken}
}

// FetchToken handles GET /fetch-mapbox-token. The token is a public one; the
// endpoint exists so the frontend never needs it baked into its bundle.
func (h *MapHandler) FetchToken(c *fiber.Ctx) error {
	if h.publicToken == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Map token not configured",
		})
	}

	return c.JSON(fiber.Map{"token": h.publicToken})
}
